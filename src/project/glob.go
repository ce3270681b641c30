package project

import (
	"path"
	"strings"
)

// matchGlob matches a slash-separated name against pattern. Besides the
// path.Match syntax, a "**" segment matches zero or more whole segments.
func matchGlob(pattern, name string) bool {
	head, rest, deep := strings.Cut(pattern, "**")
	if !deep {
		ok, _ := path.Match(pattern, name)
		return ok
	}

	// The part before "**" must match whole leading segments.
	if head = strings.TrimSuffix(head, "/"); head != "" {
		lead, tail, ok := cutSegments(name, strings.Count(head, "/")+1)
		if !ok {
			return false
		}
		if matched, _ := path.Match(head, lead); !matched {
			return false
		}
		name = tail
	}

	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return true
	}

	// Let "**" absorb 0..n leading segments of what is left.
	for {
		if matchGlob(rest, name) {
			return true
		}
		i := strings.IndexByte(name, '/')
		if i < 0 {
			return false
		}
		name = name[i+1:]
	}
}

// cutSegments splits name after its first n segments. ok is false when
// name has fewer than n segments.
func cutSegments(name string, n int) (lead, tail string, ok bool) {
	i := 0
	for seg := 0; seg < n; seg++ {
		j := strings.IndexByte(name[i:], '/')
		if j < 0 {
			if seg == n-1 {
				return name, "", true
			}
			return "", "", false
		}
		i += j + 1
	}
	return name[:i-1], name[i:], true
}

// matchAny reports whether name matches any of the patterns.
func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if matchGlob(p, name) {
			return true
		}
	}
	return false
}
