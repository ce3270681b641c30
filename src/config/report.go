package config

// ReportConfig controls the policy check artifacts written to the output directory.
type ReportConfig struct {
	Badge      bool   `yaml:"badge"`       // write policy-badge.svg
	BadgeLabel string `yaml:"badge_label"` // left-hand badge text (default: policies)
}

// DefaultReportConfig returns defaults for policy report generation.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Badge:      true,
		BadgeLabel: "policies",
	}
}
