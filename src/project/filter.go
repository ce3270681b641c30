package project

import "strings"

// Apply filters modules and dependencies, assigns project tokens and, when
// requested, merges every module into a single project.
func (o Options) Apply(infos []*Info) []*Info {
	kept := make([]*Info, 0, len(infos))
	for _, info := range infos {
		name := info.Coordinates.ArtifactID
		if len(o.Includes) > 0 && !matchAny(o.Includes, name) {
			continue
		}
		if matchAny(o.Excludes, name) {
			continue
		}
		if len(o.IgnoredScopes) > 0 {
			info.Dependencies = dropScopes(info.Dependencies, o.IgnoredScopes)
		}
		if tok, ok := o.ModuleTokens[name]; ok && info.ProjectToken == "" {
			info.ProjectToken = tok
		}
		kept = append(kept, info)
	}

	if o.AggregateModules && len(kept) > 0 {
		return []*Info{o.aggregate(kept)}
	}
	if len(kept) == 1 && o.ProjectToken != "" {
		kept[0].ProjectToken = o.ProjectToken
	}
	return kept
}

// aggregate merges modules into one project. The first module (the build
// root) provides the default name and version; dependencies are
// de-duplicated by key, first occurrence wins.
func (o Options) aggregate(infos []*Info) *Info {
	root := infos[0]
	merged := &Info{
		Coordinates:  root.Coordinates,
		ProjectToken: o.AggregateProjectToken,
	}
	if o.AggregateProjectName != "" {
		merged.Coordinates.ArtifactID = o.AggregateProjectName
	}

	seen := make(map[string]bool)
	for _, info := range infos {
		for _, d := range info.Dependencies {
			key := d.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			merged.Dependencies = append(merged.Dependencies, d)
		}
	}
	return merged
}

// dropScopes removes dependencies whose scope is ignored, along with the
// subtree they pulled in.
func dropScopes(deps []Dependency, scopes []string) []Dependency {
	out := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		if scopeIgnored(d.Scope, scopes) {
			continue
		}
		d.Children = dropScopes(d.Children, scopes)
		out = append(out, d)
	}
	return out
}

func scopeIgnored(scope string, scopes []string) bool {
	for _, s := range scopes {
		if strings.EqualFold(scope, s) {
			return true
		}
	}
	return false
}
