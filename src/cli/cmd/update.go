package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/whitesource/wss-agent/src/badge"
	"github.com/whitesource/wss-agent/src/config"
	"github.com/whitesource/wss-agent/src/gitver"
	"github.com/whitesource/wss-agent/src/output"
	"github.com/whitesource/wss-agent/src/project"
	"github.com/whitesource/wss-agent/src/report"
	"github.com/whitesource/wss-agent/src/service"
	"github.com/whitesource/wss-agent/src/updater"
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// Exit codes for update.
const (
	exitOK         = 0
	exitPolicyFail = 1
	exitExecFail   = 2
)

const (
	msgSkip         = "Skipping update (skip=true)"
	msgNoProjects   = "No Projects Found. Skipping Update"
	msgNoOpenSource = "No open source information found."
)

// sectionOut receives CI section markers.
var sectionOut io.Writer = os.Stdout

// newService creates the service client for an update run.
var newService = func(c *config.Config, log logrus.FieldLogger) service.Service {
	return service.NewClient(c.ServiceURL, c.Timeout(), log)
}

var updateCmd = &cobra.Command{
	Use:   "update [inventory files...]",
	Short: "Send the build's open source inventory to WhiteSource",
	Long: `Send the open source inventory collected during the build to WhiteSource.

Inventory files are read from the arguments, or found with the inventory.files
patterns. With check_policies, the inventory is first checked against the
organization's policies and a report is written to the output directory.

Exit codes: 0 ok, 1 policy violation, 2 execution failure. Unless
fail_on_error is set, only configuration errors fail the step.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return &ExitError{Code: exitExecFail, Err: fmt.Errorf("getting working directory: %w", err)}
	}
	return update(cmd.Context(), cfg, props, rootDir, args, logger)
}

func update(ctx context.Context, c *config.Config, p *config.Properties, rootDir string, files []string, log logrus.FieldLogger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.ApplyProperties(p); err != nil {
		return &ExitError{Code: exitExecFail, Err: err}
	}
	if c.Skip {
		log.Info(msgSkip)
		return nil
	}
	if err := initUpdate(c, p, rootDir, log); err != nil {
		return &ExitError{Code: exitExecFail, Err: err}
	}

	w := sectionOut

	infos, err := newExtractor(c, rootDir, files, log).Extract(ctx)
	switch {
	case errors.Is(err, project.ErrNoInventory):
		log.Info(msgNoProjects)
		return nil
	case err != nil:
		return fail(c, log, exitExecFail, fmt.Errorf("extracting inventory: %w", err))
	case len(infos) == 0:
		log.Info(msgNoOpenSource)
		return nil
	}

	output.SectionStart(w, "wss_inventory", "Inventory")
	deps := 0
	for _, info := range infos {
		deps += info.CountDependencies()
	}
	log.Infof("Collected %d project(s) with %d dependencies for %s %s", len(infos), deps, c.Product, c.ProductVersion)
	if c.ScanSecrets {
		scanPayload(infos, log)
	}
	output.SectionEnd(w, "wss_inventory")

	output.SectionStart(w, "wss_update", "WhiteSource Update")
	u := updater.New(newService(c, log), settingsFrom(c), newReporter(c, log), log)
	err = u.Update(ctx, infos)
	output.SectionEnd(w, "wss_update")

	switch {
	case err == nil:
		return nil
	case errors.Is(err, updater.ErrPolicyViolation):
		return fail(c, log, exitPolicyFail, err)
	default:
		return fail(c, log, exitExecFail, err)
	}
}

// initUpdate completes the configuration of an update run: product
// defaults, validation, then the check-policies property, which overrides
// the configured value only when it parses as a boolean.
func initUpdate(c *config.Config, p *config.Properties, rootDir string, log logrus.FieldLogger) error {
	resolveProduct(c, rootDir, log)

	warnings, err := config.Validate(c)
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		return err
	}

	c.CheckPolicies = p.Bool(config.PropCheckPolicies, c.CheckPolicies)
	return nil
}

// resolveProduct fills an unset product name and version from git.
func resolveProduct(c *config.Config, rootDir string, log logrus.FieldLogger) {
	if c.Product == "" {
		c.Product = filepath.Base(rootDir)
		meta, err := gitver.DetectProject(rootDir)
		switch {
		case err != nil:
			log.Debugf("product name from git: %v", err)
		case meta.Name != "":
			c.Product = meta.Name
			if meta.URL != "" {
				log.Debugf("Product %s from repository %s", meta.Name, meta.URL)
			}
		}
	}
	if c.ProductVersion == "" {
		v, err := gitver.DetectVersion(rootDir)
		if err != nil {
			log.Debugf("product version from git: %v", err)
			return
		}
		c.ProductVersion = v.Version
		if v.Branch != "" {
			log.Debugf("Product version %s from branch %s", v.Version, v.Branch)
		}
	}
}

func newExtractor(c *config.Config, rootDir string, files []string, log logrus.FieldLogger) project.Extractor {
	inv := c.Inventory
	return &project.InventoryExtractor{
		RootDir:  rootDir,
		Files:    files,
		Patterns: inv.Files,
		Options: project.Options{
			IgnoredScopes:         inv.IgnoredScopes,
			Includes:              inv.Includes,
			Excludes:              inv.Excludes,
			ProjectToken:          inv.ProjectToken,
			ModuleTokens:          inv.ModuleTokens,
			AggregateModules:      inv.AggregateModules,
			AggregateProjectName:  inv.AggregateProjectName,
			AggregateProjectToken: inv.AggregateProjectToken,
		},
		Log: log,
	}
}

func newReporter(c *config.Config, log logrus.FieldLogger) updater.Reporter {
	g := &report.Generator{BadgeLabel: c.Report.BadgeLabel}
	if c.Report.Badge {
		engine, err := badge.NewDefault()
		if err != nil {
			log.Warnf("Policy badge disabled: %v", err)
		} else {
			g.Badges = engine
		}
	}
	return g
}

func settingsFrom(c *config.Config) updater.Settings {
	outputDir := c.OutputDirectory
	if outputDir != "" {
		outputDir = filepath.Clean(outputDir)
	}
	return updater.Settings{
		OrgToken:                  c.OrgToken,
		UserKey:                   c.UserKey,
		RequesterEmail:            c.RequesterEmail,
		Product:                   c.Product,
		ProductVersion:            c.ProductVersion,
		ForceUpdate:               c.ForceUpdate,
		CheckPolicies:             c.CheckPolicies,
		ForceCheckAllDependencies: c.ForceCheckAllDependencies,
		OutputDir:                 outputDir,
		ConnectionRetries:         c.ConnectionRetries,
		ConnectionRetryInterval:   c.RetryInterval(),
	}
}

// scanPayload warns about credential-like strings in the outbound inventory.
func scanPayload(infos []*project.Info, log logrus.FieldLogger) {
	findings, err := project.ScanSecrets(infos)
	if err != nil {
		log.Warnf("Secret scan skipped: %v", err)
		return
	}
	for _, f := range findings {
		log.Warnf("Inventory line %d may contain a secret (%s): %s", f.Line, f.RuleID, f.Description)
	}
}

// fail returns err as an ExitError when fail_on_error is set; otherwise it
// logs err and lets the step succeed.
func fail(c *config.Config, log logrus.FieldLogger, code int, err error) error {
	if c.FailOnError {
		return &ExitError{Code: code, Err: err}
	}
	log.Error(err.Error())
	return nil
}
