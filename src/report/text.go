package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/whitesource/wss-agent/src/output"
	"github.com/whitesource/wss-agent/src/service"
)

// WriteText renders one framed section per project listing every resource
// a policy matched.
func WriteText(w io.Writer, result *service.CheckPolicyComplianceResult) {
	fmt.Fprintf(w, "Policy Check Report for %s\n", result.Organization)

	writeProjects(w, "new", result.NewProjects)
	writeProjects(w, "existing", result.ExistingProjects)

	sum := Summarize(result)
	status := "success"
	if !sum.Passed {
		status = "failed"
	}
	sec := output.NewSection(w, "Summary", "", false)
	output.RowStatus(sec, fmt.Sprintf("%d projects", sum.Projects), fmt.Sprintf("%d rejected", sum.Rejections), status, false)
	sec.Close()
}

func writeProjects(w io.Writer, kind string, trees map[string]*service.ResourceNode) {
	names := make([]string, 0, len(trees))
	for name := range trees {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var rejected, approved []*service.ResourceNode
		trees[name].Walk(func(n *service.ResourceNode) {
			switch {
			case n.Policy == nil || n.Resource.DisplayName == "":
			case n.Rejected():
				rejected = append(rejected, n)
			default:
				approved = append(approved, n)
			}
		})

		sec := output.NewSection(w, name, kind+" project", false)
		for _, n := range rejected {
			output.RowStatus(sec, n.Resource.DisplayName, policyLabel(n.Policy), "failed", false)
		}
		if len(rejected) > 0 && len(approved) > 0 {
			sec.Separator()
		}
		for _, n := range approved {
			output.RowStatus(sec, n.Resource.DisplayName, policyLabel(n.Policy), "success", false)
		}
		if len(rejected)+len(approved) == 0 {
			sec.Row("no policy matches")
		}
		sec.Close()
	}
}

func policyLabel(p *service.Policy) string {
	return fmt.Sprintf("%s (%s)", p.DisplayName, strings.ToLower(p.ActionType))
}
