package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError reports configuration problems found before any work starts.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks the settings required to talk to the inventory service.
// Returns warnings (soft issues) and a *ValidationError if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	if strings.TrimSpace(cfg.OrgToken) == "" {
		errs = append(errs, "org_token: is required")
	}

	if cfg.ServiceURL == "" {
		errs = append(errs, "wss_url: is required")
	} else if u, perr := url.Parse(cfg.ServiceURL); perr != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Sprintf("wss_url: %q is not an absolute http(s) URL", cfg.ServiceURL))
	}

	if cfg.ConnectionRetries < 0 {
		errs = append(errs, fmt.Sprintf("connection_retries: must be >= 0, got %d", cfg.ConnectionRetries))
	}
	if cfg.ConnectionRetryInterval < 0 {
		errs = append(errs, fmt.Sprintf("connection_retry_interval: must be >= 0, got %d", cfg.ConnectionRetryInterval))
	}
	if cfg.ConnectionTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("connection_timeout: must be > 0, got %d", cfg.ConnectionTimeout))
	}

	inv := cfg.Inventory
	if inv.AggregateModules && inv.ProjectToken != "" {
		errs = append(errs, "inventory: project_token cannot be combined with aggregate_modules (use aggregate_project_token)")
	}
	if !inv.AggregateModules && (inv.AggregateProjectName != "" || inv.AggregateProjectToken != "") {
		warnings = append(warnings, "inventory: aggregate_project_name/token are ignored unless aggregate_modules is true")
	}

	if len(errs) > 0 {
		return warnings, &ValidationError{Problems: errs}
	}
	return warnings, nil
}
