// Package project models the per-module open source usage inventory sent to
// the WhiteSource service and loads it from the files written by the
// dependency scanner.
package project

import "fmt"

// Coordinates identify a build module.
type Coordinates struct {
	GroupID    string `json:"groupId,omitempty" yaml:"group_id" toml:"group_id"`
	ArtifactID string `json:"artifactId" yaml:"artifact_id" toml:"artifact_id"`
	Version    string `json:"version,omitempty" yaml:"version" toml:"version"`
}

func (c Coordinates) String() string {
	if c.GroupID == "" {
		return fmt.Sprintf("%s:%s", c.ArtifactID, c.Version)
	}
	return fmt.Sprintf("%s:%s:%s", c.GroupID, c.ArtifactID, c.Version)
}

// Exclusion removes a transitive dependency from a declared one.
type Exclusion struct {
	GroupID    string `json:"groupId,omitempty" yaml:"group_id" toml:"group_id"`
	ArtifactID string `json:"artifactId" yaml:"artifact_id" toml:"artifact_id"`
}

// Dependency is one open source component used by a module.
type Dependency struct {
	GroupID    string      `json:"groupId,omitempty" yaml:"group_id" toml:"group_id"`
	ArtifactID string      `json:"artifactId" yaml:"artifact_id" toml:"artifact_id"`
	Version    string      `json:"version,omitempty" yaml:"version" toml:"version"`
	Type       string      `json:"type,omitempty" yaml:"type" toml:"type"`
	Classifier string      `json:"classifier,omitempty" yaml:"classifier" toml:"classifier"`
	Scope      string      `json:"scope,omitempty" yaml:"scope" toml:"scope"`
	SHA1       string      `json:"sha1,omitempty" yaml:"sha1" toml:"sha1"`
	SystemPath string      `json:"systemPath,omitempty" yaml:"system_path" toml:"system_path"`
	Filename   string      `json:"filename,omitempty" yaml:"filename" toml:"filename"`
	Optional   bool        `json:"optional,omitempty" yaml:"optional" toml:"optional"`
	Exclusions []Exclusion `json:"exclusions,omitempty" yaml:"exclusions" toml:"exclusions"`

	// Children are the transitive dependencies pulled in by this one.
	Children []Dependency `json:"children,omitempty" yaml:"children" toml:"children"`
}

// Key identifies a dependency regardless of where it appears in a tree.
func (d Dependency) Key() string {
	if d.SHA1 != "" {
		return d.SHA1
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", d.GroupID, d.ArtifactID, d.Version, d.Type, d.Classifier)
}

// Info is the inventory of one build module.
type Info struct {
	Coordinates       Coordinates  `json:"coordinates" yaml:"coordinates" toml:"coordinates"`
	ParentCoordinates *Coordinates `json:"parentCoordinates,omitempty" yaml:"parent_coordinates" toml:"parent_coordinates"`
	ProjectToken      string       `json:"projectToken,omitempty" yaml:"project_token" toml:"project_token"`
	Dependencies      []Dependency `json:"dependencies" yaml:"dependencies" toml:"dependencies"`
}

// Name returns the project name the service files this module under.
func (i *Info) Name() string {
	return i.Coordinates.ArtifactID
}

// CountDependencies returns the number of dependencies in the module's
// tree, transitive ones included.
func (i *Info) CountDependencies() int {
	var count func([]Dependency) int
	count = func(deps []Dependency) int {
		n := len(deps)
		for _, d := range deps {
			n += count(d.Children)
		}
		return n
	}
	return count(i.Dependencies)
}
