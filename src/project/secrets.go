package project

import (
	"encoding/json"
	"fmt"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// SecretFinding is a credential-like string found in an outbound inventory.
type SecretFinding struct {
	RuleID      string
	Description string
	Line        int
}

// ScanSecrets runs the gitleaks default rules over the encoded inventory,
// i.e. exactly the bytes that would leave the build.
func ScanSecrets(infos []*Info) ([]SecretFinding, error) {
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding inventory: %w", err)
	}

	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading secret rules: %w", err)
	}

	hits := detector.DetectBytes(data)
	findings := make([]SecretFinding, 0, len(hits))
	for _, h := range hits {
		findings = append(findings, SecretFinding{
			RuleID:      h.RuleID,
			Description: h.Description,
			Line:        h.StartLine + 1, // gitleaks is 0-indexed
		})
	}
	return findings, nil
}
