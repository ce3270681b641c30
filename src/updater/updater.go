// Package updater sends module inventories to the WhiteSource service,
// optionally gating the submission on the organization's policies.
package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"github.com/whitesource/wss-agent/src/project"
	"github.com/whitesource/wss-agent/src/service"
)

// Log lines emitted during an update.
const (
	MsgCheckingPolicies   = "Checking Policies"
	MsgNoViolations       = "All dependencies conform with the organization's policies"
	MsgSendingForceUpdate = "Force Update Enabled, Sending Update Request to WhiteSource"
	MsgSendingUpdate      = "Sending Update Request to WhiteSource"
	MsgReconnecting       = "Trying to reconnect to WhiteSource"
	MsgSkippingReport     = "Output directory doesn't exist. Skipping policies check report."
)

// ErrPolicyViolation is returned when the service rejected at least one
// dependency. It is returned after a forced update was sent.
var ErrPolicyViolation = errors.New("Some dependencies were rejected by the organization's policies")

const (
	submitErrorPrefix = "Error communicating with service: "
	connectionRefused = "Connection refused"
)

// SubmitError is a fatal failure to talk to the service.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return submitErrorPrefix + e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

// Settings are the read-only inputs of an update.
type Settings struct {
	OrgToken                  string
	UserKey                   string
	RequesterEmail            string
	Product                   string
	ProductVersion            string
	ForceUpdate               bool
	CheckPolicies             bool
	ForceCheckAllDependencies bool
	OutputDir                 string

	// ConnectionRetries is the number of extra attempts after a connection
	// failure. Negative values are treated as zero.
	ConnectionRetries       int
	ConnectionRetryInterval time.Duration
}

// Reporter renders a policy check result into dir.
type Reporter interface {
	Generate(dir string, result *service.CheckPolicyComplianceResult) error
}

// Updater runs one inventory update against a Service.
type Updater struct {
	Service  service.Service
	Settings Settings
	Reporter Reporter
	Log      logrus.FieldLogger
}

// New creates an Updater. reporter may be nil, in which case no policy
// report is written.
func New(svc service.Service, settings Settings, reporter Reporter, log logrus.FieldLogger) *Updater {
	return &Updater{
		Service:  svc,
		Settings: settings,
		Reporter: reporter,
		Log:      log,
	}
}

// Update sends projects to the service. projects must be non-empty.
//
// Connection failures re-run the whole step, policy check included, up to
// ConnectionRetries more times with ConnectionRetryInterval between
// attempts. Other service failures are not retried. Both end in a
// *SubmitError. A policy violation is reported as ErrPolicyViolation.
func (u *Updater) Update(ctx context.Context, projects []*project.Info) error {
	retries := u.Settings.ConnectionRetries
	if retries < 0 {
		retries = 0
	}

	attempts := uint(retries) + 1
	err := retry.Do(
		func() error { return u.send(ctx, projects) },
		retry.Attempts(attempts),
		retry.Delay(u.Settings.ConnectionRetryInterval),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(service.IsConnectionError),
		// OnRetry also runs after the final attempt.
		retry.OnRetry(func(n uint, _ error) {
			if n+1 < attempts {
				u.Log.Info(MsgReconnecting)
			}
		}),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return nil
	}

	var se *service.Error
	if !errors.As(err, &se) {
		return err
	}
	if se.Kind == service.KindConnection {
		return &SubmitError{Message: connectionRefused, Err: err}
	}
	return &SubmitError{Message: se.Error(), Err: err}
}

func (u *Updater) send(ctx context.Context, projects []*project.Info) error {
	if u.Settings.CheckPolicies {
		return u.checkAndSend(ctx, projects)
	}

	u.Log.Info(MsgSendingUpdate)
	result, err := u.Service.Update(ctx, service.UpdateRequest{
		OrgToken:       u.Settings.OrgToken,
		UserKey:        u.Settings.UserKey,
		RequesterEmail: u.Settings.RequesterEmail,
		Product:        u.Settings.Product,
		ProductVersion: u.Settings.ProductVersion,
		Projects:       projects,
	})
	if err != nil {
		return err
	}
	LogResult(u.Log, result)
	return nil
}

func (u *Updater) checkAndSend(ctx context.Context, projects []*project.Info) error {
	u.Log.Info(MsgCheckingPolicies)
	compliance, err := u.Service.CheckPolicyCompliance(ctx, service.CheckPolicyComplianceRequest{
		OrgToken:                  u.Settings.OrgToken,
		UserKey:                   u.Settings.UserKey,
		Product:                   u.Settings.Product,
		ProductVersion:            u.Settings.ProductVersion,
		Projects:                  projects,
		ForceCheckAllDependencies: u.Settings.ForceCheckAllDependencies,
	})
	if err != nil {
		return err
	}

	if err := u.report(compliance); err != nil {
		return err
	}

	rejected := compliance.HasRejections()
	if !rejected {
		u.Log.Info(MsgNoViolations)
	}

	if !rejected || u.Settings.ForceUpdate {
		if u.Settings.ForceUpdate {
			u.Log.Info(MsgSendingForceUpdate)
		} else {
			u.Log.Info(MsgSendingUpdate)
		}
		// The user key is only sent with the compliance check on this path.
		result, err := u.Service.Update(ctx, service.UpdateRequest{
			OrgToken:       u.Settings.OrgToken,
			RequesterEmail: u.Settings.RequesterEmail,
			Product:        u.Settings.Product,
			ProductVersion: u.Settings.ProductVersion,
			Projects:       projects,
		})
		if err != nil {
			return err
		}
		LogResult(u.Log, result)
	}

	if rejected {
		return ErrPolicyViolation
	}
	return nil
}

// report writes the policy report into the output directory, or warns and
// skips when there is no usable directory.
func (u *Updater) report(result *service.CheckPolicyComplianceResult) error {
	dir := u.Settings.OutputDir
	if dir == "" || !ensureDir(dir) {
		u.Log.Warn(MsgSkippingReport)
		return nil
	}
	if u.Reporter == nil {
		return nil
	}
	if err := u.Reporter.Generate(dir, result); err != nil {
		return fmt.Errorf("generating policy report: %w", err)
	}
	return nil
}

func ensureDir(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
