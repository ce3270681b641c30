package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Property names. Each one overrides the configuration key of the same name
// and can be given as -D<name>=<value> or as an environment variable
// (org.whitesource.orgToken ⇔ ORG_WHITESOURCE_ORGTOKEN).
const (
	PropSkip                      = "org.whitesource.skip"
	PropFailOnError               = "org.whitesource.failOnError"
	PropOrgToken                  = "org.whitesource.orgToken"
	PropUserKey                   = "org.whitesource.userKey"
	PropRequesterEmail            = "org.whitesource.requesterEmail"
	PropServiceURL                = "org.whitesource.wssUrl"
	PropProduct                   = "org.whitesource.product"
	PropProductVersion            = "org.whitesource.productVersion"
	PropCheckPolicies             = "org.whitesource.checkPolicies"
	PropForceCheckAllDependencies = "org.whitesource.forceCheckAllDependencies"
	PropForceUpdate               = "org.whitesource.forceUpdate"
	PropOutputDirectory           = "org.whitesource.outputDirectory"
	PropScanSecrets               = "org.whitesource.scanSecrets"
	PropConnectionRetries         = "org.whitesource.connectionRetries"
	PropConnectionRetryInterval   = "org.whitesource.connectionRetryInterval"
	PropConnectionTimeout         = "org.whitesource.connectionTimeout"
	PropInventory                 = "org.whitesource.inventory"
	PropIgnoredScopes             = "org.whitesource.ignoredScopes"
	PropProjectToken              = "org.whitesource.projectToken"
	PropAggregateModules          = "org.whitesource.aggregateModules"
	PropAggregateProjectName      = "org.whitesource.aggregateProjectName"
	PropAggregateProjectToken     = "org.whitesource.aggregateProjectToken"
)

// Properties is the build-system property source: explicit definitions
// first, then the environment.
type Properties struct {
	v *viper.Viper
}

// NewProperties builds a property source from "key=value" definitions.
// A bare "key" defines the property as "true".
func NewProperties(defines []string) (*Properties, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, d := range defines {
		key, value, ok := strings.Cut(d, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid property definition %q", d)
		}
		if !ok {
			value = "true"
		}
		v.Set(key, value)
	}
	return &Properties{v: v}, nil
}

// Lookup returns the raw value of a property and whether it is defined.
func (p *Properties) Lookup(key string) (string, bool) {
	if p == nil || !p.v.IsSet(key) {
		return "", false
	}
	return p.v.GetString(key), true
}

// Bool returns the boolean value of a property, or def when the property is
// absent or not a boolean.
func (p *Properties) Bool(key string, def bool) bool {
	raw, ok := p.Lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return b
}

// ApplyProperties overrides configuration values with defined properties.
// The check-policies flag is left to the update goal's initializer.
func (c *Config) ApplyProperties(p *Properties) error {
	strs := map[string]*string{
		PropOrgToken:              &c.OrgToken,
		PropUserKey:               &c.UserKey,
		PropRequesterEmail:        &c.RequesterEmail,
		PropServiceURL:            &c.ServiceURL,
		PropProduct:               &c.Product,
		PropProductVersion:        &c.ProductVersion,
		PropOutputDirectory:       &c.OutputDirectory,
		PropProjectToken:          &c.Inventory.ProjectToken,
		PropAggregateProjectName:  &c.Inventory.AggregateProjectName,
		PropAggregateProjectToken: &c.Inventory.AggregateProjectToken,
	}
	for key, dst := range strs {
		if v, ok := p.Lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	bools := map[string]*bool{
		PropSkip:                      &c.Skip,
		PropFailOnError:               &c.FailOnError,
		PropForceCheckAllDependencies: &c.ForceCheckAllDependencies,
		PropForceUpdate:               &c.ForceUpdate,
		PropScanSecrets:               &c.ScanSecrets,
		PropAggregateModules:          &c.Inventory.AggregateModules,
	}
	for key, dst := range bools {
		v, ok := p.Lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Problems: []string{fmt.Sprintf("%s: %q is not a boolean", key, v)}}
		}
		*dst = b
	}

	ints := map[string]*int{
		PropConnectionRetries:       &c.ConnectionRetries,
		PropConnectionRetryInterval: &c.ConnectionRetryInterval,
		PropConnectionTimeout:       &c.ConnectionTimeout,
	}
	for key, dst := range ints {
		v, ok := p.Lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Problems: []string{fmt.Sprintf("%s: %q is not an integer", key, v)}}
		}
		*dst = n
	}

	if v, ok := p.Lookup(PropInventory); ok {
		c.Inventory.Files = splitList(v)
	}
	if v, ok := p.Lookup(PropIgnoredScopes); ok {
		c.Inventory.IgnoredScopes = splitList(v)
	}
	return nil
}

// splitList splits a comma-separated property value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
