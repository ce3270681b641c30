package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitesource/wss-agent/src/project"
	"github.com/whitesource/wss-agent/src/service"
)

type fakeService struct {
	checkErrs  []error
	updateErrs []error
	compliance *service.CheckPolicyComplianceResult

	checks    []service.CheckPolicyComplianceRequest
	updates   []service.UpdateRequest
	updatedAt []time.Time
}

func (f *fakeService) CheckPolicyCompliance(_ context.Context, req service.CheckPolicyComplianceRequest) (*service.CheckPolicyComplianceResult, error) {
	f.checks = append(f.checks, req)
	if n := len(f.checks) - 1; n < len(f.checkErrs) && f.checkErrs[n] != nil {
		return nil, f.checkErrs[n]
	}
	if f.compliance == nil {
		return &service.CheckPolicyComplianceResult{}, nil
	}
	return f.compliance, nil
}

func (f *fakeService) Update(_ context.Context, req service.UpdateRequest) (*service.UpdateResult, error) {
	f.updates = append(f.updates, req)
	f.updatedAt = append(f.updatedAt, time.Now())
	if n := len(f.updates) - 1; n < len(f.updateErrs) && f.updateErrs[n] != nil {
		return nil, f.updateErrs[n]
	}
	return &service.UpdateResult{Organization: "Acme", CreatedProjects: []string{"shop"}}, nil
}

type fakeReporter struct {
	dirs []string
	err  error
}

func (r *fakeReporter) Generate(dir string, _ *service.CheckPolicyComplianceResult) error {
	r.dirs = append(r.dirs, dir)
	return r.err
}

var projects = []*project.Info{{Coordinates: project.Coordinates{GroupID: "com.acme", ArtifactID: "shop", Version: "1.0"}}}

var connErr = &service.Error{Kind: service.KindConnection, Message: "dial tcp: connection refused"}

func rejecting() *service.CheckPolicyComplianceResult {
	return &service.CheckPolicyComplianceResult{
		Organization: "Acme",
		ExistingProjects: map[string]*service.ResourceNode{
			"shop": {Children: []*service.ResourceNode{{
				Resource: service.Resource{DisplayName: "gpl-lib.jar"},
				Policy:   &service.Policy{DisplayName: "No GPL", ActionType: service.ActionReject},
			}}},
		},
	}
}

func settings() Settings {
	return Settings{
		OrgToken:       "org",
		UserKey:        "key",
		RequesterEmail: "dev@acme.com",
		Product:        "shop",
		ProductVersion: "1.0",
	}
}

func messages(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		out = append(out, e.Message)
	}
	return out
}

func newUpdater(svc service.Service, s Settings, r Reporter) (*Updater, *test.Hook) {
	log, hook := test.NewNullLogger()
	return New(svc, s, r, log), hook
}

func TestPlainPath(t *testing.T) {
	svc := &fakeService{}
	u, hook := newUpdater(svc, settings(), nil)

	require.NoError(t, u.Update(context.Background(), projects))

	assert.Empty(t, svc.checks)
	require.Len(t, svc.updates, 1)
	assert.Equal(t, "key", svc.updates[0].UserKey)
	assert.Equal(t, "dev@acme.com", svc.updates[0].RequesterEmail)
	assert.Equal(t, projects, svc.updates[0].Projects)

	msgs := messages(hook)
	assert.Equal(t, MsgSendingUpdate, msgs[0])
	assert.Contains(t, msgs, "Inventory Update Result for Acme")
	assert.NotContains(t, msgs, MsgCheckingPolicies)
}

func TestPolicyPathNoRejections(t *testing.T) {
	svc := &fakeService{}
	s := settings()
	s.CheckPolicies = true
	s.ForceCheckAllDependencies = true
	u, hook := newUpdater(svc, s, nil)

	require.NoError(t, u.Update(context.Background(), projects))

	require.Len(t, svc.checks, 1)
	assert.Equal(t, "key", svc.checks[0].UserKey)
	assert.True(t, svc.checks[0].ForceCheckAllDependencies)
	require.Len(t, svc.updates, 1)
	assert.Empty(t, svc.updates[0].UserKey, "policy-triggered update omits the user key")

	msgs := messages(hook)
	assert.Equal(t, MsgCheckingPolicies, msgs[0])
	assert.Contains(t, msgs, MsgNoViolations)
	assert.Contains(t, msgs, MsgSendingUpdate)
	assert.NotContains(t, msgs, MsgSendingForceUpdate)
}

func TestPolicyPathRejections(t *testing.T) {
	svc := &fakeService{compliance: rejecting()}
	s := settings()
	s.CheckPolicies = true
	u, hook := newUpdater(svc, s, nil)

	err := u.Update(context.Background(), projects)
	require.ErrorIs(t, err, ErrPolicyViolation)
	assert.Equal(t, "Some dependencies were rejected by the organization's policies", err.Error())
	assert.Empty(t, svc.updates)
	assert.NotContains(t, messages(hook), MsgNoViolations)
}

func TestPolicyPathRejectionsForceUpdate(t *testing.T) {
	svc := &fakeService{compliance: rejecting()}
	s := settings()
	s.CheckPolicies = true
	s.ForceUpdate = true
	u, hook := newUpdater(svc, s, nil)

	err := u.Update(context.Background(), projects)
	require.ErrorIs(t, err, ErrPolicyViolation)
	require.Len(t, svc.updates, 1)

	msgs := messages(hook)
	assert.Contains(t, msgs, MsgSendingForceUpdate)
	assert.Contains(t, msgs, "Inventory Update Result for Acme")
}

func TestForceUpdateWithoutRejections(t *testing.T) {
	svc := &fakeService{}
	s := settings()
	s.CheckPolicies = true
	s.ForceUpdate = true
	u, hook := newUpdater(svc, s, nil)

	require.NoError(t, u.Update(context.Background(), projects))
	msgs := messages(hook)
	assert.Contains(t, msgs, MsgNoViolations)
	assert.Contains(t, msgs, MsgSendingForceUpdate)
}

func TestRetryExhausted(t *testing.T) {
	svc := &fakeService{updateErrs: []error{connErr, connErr, connErr, connErr}}
	s := settings()
	s.ConnectionRetries = 3
	u, hook := newUpdater(svc, s, nil)

	err := u.Update(context.Background(), projects)
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "Error communicating with service: Connection refused", err.Error())
	assert.ErrorIs(t, err, connErr)
	assert.Len(t, svc.updates, 4)

	reconnects := 0
	for _, m := range messages(hook) {
		if m == MsgReconnecting {
			reconnects++
		}
	}
	assert.Equal(t, 3, reconnects)
}

func TestReconnectLoggedBeforePause(t *testing.T) {
	svc := &fakeService{updateErrs: []error{connErr, connErr}}
	s := settings()
	s.ConnectionRetries = 1
	s.ConnectionRetryInterval = 200 * time.Millisecond
	u, hook := newUpdater(svc, s, nil)

	var submitErr *SubmitError
	require.ErrorAs(t, u.Update(context.Background(), projects), &submitErr)
	require.Len(t, svc.updatedAt, 2)

	var logged []time.Time
	for _, e := range hook.AllEntries() {
		if e.Message == MsgReconnecting {
			logged = append(logged, e.Time)
		}
	}
	require.Len(t, logged, 1)
	assert.True(t, logged[0].Before(svc.updatedAt[1]))
	assert.GreaterOrEqual(t, svc.updatedAt[1].Sub(logged[0]), 150*time.Millisecond)
}

func TestRetrySucceedsAtAttempt(t *testing.T) {
	svc := &fakeService{updateErrs: []error{connErr, connErr}}
	s := settings()
	s.ConnectionRetries = 5
	u, hook := newUpdater(svc, s, nil)

	require.NoError(t, u.Update(context.Background(), projects))
	assert.Len(t, svc.updates, 3)

	results := 0
	for _, m := range messages(hook) {
		if m == "Inventory Update Result for Acme" {
			results++
		}
	}
	assert.Equal(t, 1, results)
}

func TestRetryReentersPolicyPath(t *testing.T) {
	svc := &fakeService{checkErrs: []error{connErr}}
	s := settings()
	s.CheckPolicies = true
	s.ConnectionRetries = 1
	u, _ := newUpdater(svc, s, nil)

	require.NoError(t, u.Update(context.Background(), projects))
	assert.Len(t, svc.checks, 2)
	assert.Len(t, svc.updates, 1)
}

func TestNoRetries(t *testing.T) {
	for _, retries := range []int{0, -2} {
		svc := &fakeService{updateErrs: []error{connErr, connErr}}
		s := settings()
		s.ConnectionRetries = retries
		u, _ := newUpdater(svc, s, nil)

		var submitErr *SubmitError
		require.ErrorAs(t, u.Update(context.Background(), projects), &submitErr)
		assert.Len(t, svc.updates, 1)
	}
}

func TestServiceErrorNotRetried(t *testing.T) {
	svcErr := &service.Error{Kind: service.KindService, Message: "Invalid organization token"}
	svc := &fakeService{updateErrs: []error{svcErr}}
	s := settings()
	s.ConnectionRetries = 3
	u, _ := newUpdater(svc, s, nil)

	err := u.Update(context.Background(), projects)
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "Error communicating with service: Invalid organization token", err.Error())
	assert.ErrorIs(t, err, svcErr)
	assert.Len(t, svc.updates, 1)
}

func TestOtherErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{updateErrs: []error{boom}}
	s := settings()
	s.ConnectionRetries = 3
	u, _ := newUpdater(svc, s, nil)

	err := u.Update(context.Background(), projects)
	assert.Equal(t, boom, err)
	assert.Len(t, svc.updates, 1)
}

func TestReportWritten(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	svc := &fakeService{}
	rep := &fakeReporter{}
	s := settings()
	s.CheckPolicies = true
	s.OutputDir = dir
	u, hook := newUpdater(svc, s, rep)

	require.NoError(t, u.Update(context.Background(), projects))
	assert.Equal(t, []string{dir}, rep.dirs)
	assert.DirExists(t, dir)
	assert.NotContains(t, messages(hook), MsgSkippingReport)
}

func TestReportSkipped(t *testing.T) {
	file := filepath.Join(t.TempDir(), "regular")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	for name, dir := range map[string]string{
		"no directory":          "",
		"uncreatable directory": filepath.Join(file, "out"),
	} {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{compliance: rejecting()}
			rep := &fakeReporter{}
			s := settings()
			s.CheckPolicies = true
			s.ForceUpdate = true
			s.OutputDir = dir
			u, hook := newUpdater(svc, s, rep)

			err := u.Update(context.Background(), projects)
			require.ErrorIs(t, err, ErrPolicyViolation)
			assert.Empty(t, rep.dirs)
			assert.Len(t, svc.updates, 1)

			var warned bool
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.WarnLevel && e.Message == MsgSkippingReport {
					warned = true
				}
			}
			assert.True(t, warned)
		})
	}
}

func TestReportFailure(t *testing.T) {
	svc := &fakeService{}
	rep := &fakeReporter{err: errors.New("disk full")}
	s := settings()
	s.CheckPolicies = true
	s.OutputDir = t.TempDir()
	u, _ := newUpdater(svc, s, rep)

	err := u.Update(context.Background(), projects)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, svc.updates)
}
