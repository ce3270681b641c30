// Package report renders policy check results into the output directory.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/whitesource/wss-agent/src/badge"
	"github.com/whitesource/wss-agent/src/service"
)

// Files written by Generate.
const (
	TextFile  = "policy-check-report.txt"
	JSONFile  = "policy-check-result.json"
	BadgeFile = "policy-badge.svg"
)

// Generator writes policy check reports. A nil Badges engine disables the badge.
type Generator struct {
	Badges     *badge.Engine
	BadgeLabel string
}

// Summary is the machine-readable policy check outcome.
type Summary struct {
	Organization string      `json:"organization"`
	Passed       bool        `json:"passed"`
	Projects     int         `json:"projects"`
	Rejections   int         `json:"rejections"`
	Rejected     []Rejection `json:"rejected"`
}

// Rejection is one rejected resource.
type Rejection struct {
	Project  string `json:"project"`
	Resource string `json:"resource"`
	Policy   string `json:"policy"`
	Link     string `json:"link,omitempty"`
}

// Generate writes the text report, the JSON summary and, when enabled, the
// badge into dir. dir must exist.
func (g *Generator) Generate(dir string, result *service.CheckPolicyComplianceResult) error {
	var buf bytes.Buffer
	WriteText(&buf, result)
	if err := os.WriteFile(filepath.Join(dir, TextFile), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", TextFile, err)
	}

	sum := Summarize(result)
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, JSONFile), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", JSONFile, err)
	}

	if g.Badges == nil {
		return nil
	}
	label := g.BadgeLabel
	if label == "" {
		label = "policies"
	}
	b := badge.Badge{Label: label, Value: badge.StatusPassing, Color: badge.StatusColor(badge.StatusPassing)}
	if !sum.Passed {
		b.Value = fmt.Sprintf("%d %s", sum.Rejections, badge.StatusRejected)
		b.Color = badge.StatusColor(badge.StatusRejected)
	}
	if err := os.WriteFile(filepath.Join(dir, BadgeFile), []byte(g.Badges.Generate(b)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", BadgeFile, err)
	}
	return nil
}

// Summarize flattens result into a Summary, sorted by project then resource.
func Summarize(result *service.CheckPolicyComplianceResult) Summary {
	sum := Summary{
		Organization: result.Organization,
		Projects:     len(result.NewProjects) + len(result.ExistingProjects),
		Rejected:     []Rejection{},
	}
	for project, nodes := range result.Rejections() {
		for _, n := range nodes {
			sum.Rejected = append(sum.Rejected, Rejection{
				Project:  project,
				Resource: n.Resource.DisplayName,
				Policy:   n.Policy.DisplayName,
				Link:     n.Resource.Link,
			})
		}
	}
	sort.Slice(sum.Rejected, func(i, j int) bool {
		a, b := sum.Rejected[i], sum.Rejected[j]
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		return a.Resource < b.Resource
	})
	sum.Rejections = len(sum.Rejected)
	sum.Passed = sum.Rejections == 0
	return sum
}
