package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".whitesource.yml"

// DefaultServiceURL is the agent endpoint of the WhiteSource SaaS.
const DefaultServiceURL = "https://saas.whitesourcesoftware.com/agent"

// Config is the top-level agent configuration.
type Config struct {
	// Service credentials and identity.
	OrgToken       string `yaml:"org_token"`
	UserKey        string `yaml:"user_key"`
	RequesterEmail string `yaml:"requester_email"`
	ServiceURL     string `yaml:"wss_url"`

	// Product the inventory is reported under. Defaults are resolved from git.
	Product        string `yaml:"product"`
	ProductVersion string `yaml:"product_version"`

	Skip                      bool   `yaml:"skip"`
	FailOnError               bool   `yaml:"fail_on_error"`
	CheckPolicies             bool   `yaml:"check_policies"`
	ForceCheckAllDependencies bool   `yaml:"force_check_all_dependencies"`
	ForceUpdate               bool   `yaml:"force_update"`
	OutputDirectory           string `yaml:"output_directory"`
	ScanSecrets               bool   `yaml:"scan_secrets"`

	ConnectionRetries       int `yaml:"connection_retries"`
	ConnectionRetryInterval int `yaml:"connection_retry_interval"` // milliseconds
	ConnectionTimeout       int `yaml:"connection_timeout"`        // minutes

	Inventory InventoryConfig `yaml:"inventory"`
	Report    ReportConfig    `yaml:"report"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns defaults if the default file doesn't exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RetryInterval returns the pause between connection attempts.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.ConnectionRetryInterval) * time.Millisecond
}

// Timeout returns the HTTP timeout for a single service request.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ConnectionTimeout) * time.Minute
}

func defaults() *Config {
	return &Config{
		ServiceURL:              DefaultServiceURL,
		OutputDirectory:         ".whitesource",
		ScanSecrets:             true,
		ConnectionRetries:       1,
		ConnectionRetryInterval: 3000,
		ConnectionTimeout:       60,
		Inventory:               DefaultInventoryConfig(),
		Report:                  DefaultReportConfig(),
	}
}
