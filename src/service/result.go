package service

import "strings"

// UpdateResult is the outcome of an inventory update.
type UpdateResult struct {
	Organization    string   `json:"organization"`
	CreatedProjects []string `json:"createdProjects"`
	UpdatedProjects []string `json:"updatedProjects"`
	RequestToken    string   `json:"requestToken,omitempty"`
}

// ActionReject is the policy action that rejects a resource.
const ActionReject = "Reject"

// Resource is a library known to the service.
type Resource struct {
	DisplayName  string   `json:"displayName"`
	Link         string   `json:"link,omitempty"`
	Licenses     []string `json:"licenses,omitempty"`
	SHA1         string   `json:"sha1,omitempty"`
	Homepage     string   `json:"homepageUrl,omitempty"`
	Description  string   `json:"description,omitempty"`
	ResourceType string   `json:"resourceType,omitempty"`
}

// Policy is the organization policy that matched a resource.
type Policy struct {
	DisplayName  string `json:"displayName"`
	FilterType   string `json:"filterType,omitempty"`
	FilterString string `json:"filterLogic,omitempty"`
	ActionType   string `json:"actionType"`
	ProjectLevel bool   `json:"projectLevel,omitempty"`
	Inclusive    bool   `json:"inclusive,omitempty"`
}

// ResourceNode is a resource in a project's dependency tree, with the policy
// that matched it, if any.
type ResourceNode struct {
	Resource Resource        `json:"resource"`
	Policy   *Policy         `json:"policy,omitempty"`
	Children []*ResourceNode `json:"children,omitempty"`
}

// Rejected reports whether the node's policy rejects its resource.
func (n *ResourceNode) Rejected() bool {
	return n.Policy != nil && strings.EqualFold(n.Policy.ActionType, ActionReject)
}

// Walk visits n and its subtree depth-first.
func (n *ResourceNode) Walk(fn func(*ResourceNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// CheckPolicyComplianceResult maps project names to the policy evaluation of
// their dependency trees.
type CheckPolicyComplianceResult struct {
	Organization     string                   `json:"organization"`
	NewProjects      map[string]*ResourceNode `json:"newProjects"`
	ExistingProjects map[string]*ResourceNode `json:"existingProjects"`
}

// HasRejections reports whether any resource of any project is rejected.
func (r *CheckPolicyComplianceResult) HasRejections() bool {
	for _, trees := range []map[string]*ResourceNode{r.NewProjects, r.ExistingProjects} {
		for _, root := range trees {
			rejected := false
			root.Walk(func(n *ResourceNode) {
				rejected = rejected || n.Rejected()
			})
			if rejected {
				return true
			}
		}
	}
	return false
}

// Rejections returns the rejected nodes of every project, keyed by project name.
func (r *CheckPolicyComplianceResult) Rejections() map[string][]*ResourceNode {
	out := make(map[string][]*ResourceNode)
	for _, trees := range []map[string]*ResourceNode{r.NewProjects, r.ExistingProjects} {
		for name, root := range trees {
			root.Walk(func(n *ResourceNode) {
				if n.Rejected() {
					out[name] = append(out[name], n)
				}
			})
		}
	}
	return out
}
