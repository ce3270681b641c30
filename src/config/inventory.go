package config

// InventoryConfig controls where project inventories are read from and how
// they are shaped before submission.
type InventoryConfig struct {
	// Files are glob patterns ("**" supported) of inventory files written by
	// the dependency scanner. Command-line arguments take precedence.
	Files []string `yaml:"files"`

	IgnoredScopes []string `yaml:"ignored_scopes"` // dependency scopes to drop, e.g. "test"
	Includes      []string `yaml:"includes"`       // artifact id patterns of modules to keep
	Excludes      []string `yaml:"excludes"`       // artifact id patterns of modules to drop

	ProjectToken string            `yaml:"project_token"` // token of a single-module build
	ModuleTokens map[string]string `yaml:"module_tokens"` // artifact id → project token

	// AggregateModules merges every module into one project.
	AggregateModules      bool   `yaml:"aggregate_modules"`
	AggregateProjectName  string `yaml:"aggregate_project_name"`
	AggregateProjectToken string `yaml:"aggregate_project_token"`
}

// DefaultInventoryConfig returns the scanner's conventional output location.
func DefaultInventoryConfig() InventoryConfig {
	return InventoryConfig{
		Files:        []string{"**/whitesource-inventory.json"},
		ModuleTokens: map[string]string{},
	}
}
