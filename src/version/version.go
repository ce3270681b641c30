package version

import "fmt"

// These variables are injected at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Agent is the agent type reported to the inventory service.
const Agent = "go-agent"

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("wss-agent %s (%s, %s)", Version, Commit, BuildDate)
}
