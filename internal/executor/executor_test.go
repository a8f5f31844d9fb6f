package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/schemahead/schemahead/internal/errs"
	"github.com/schemahead/schemahead/internal/headstate"
	"github.com/schemahead/schemahead/internal/hook"
	"github.com/schemahead/schemahead/internal/metrics"
	"github.com/schemahead/schemahead/internal/planner"
	"github.com/schemahead/schemahead/internal/registry"
)

type hookCall struct {
	unit   string
	action hook.Action
}

// fakeHooks returns a result per (unit, action); missing entries yield an
// empty result.
type fakeHooks struct {
	calls   []hookCall
	results map[string]*hook.Result
	errs    map[string]error
}

func (f *fakeHooks) Run(ctx context.Context, scriptPath string, action hook.Action, caps hook.Capabilities) (*hook.Result, error) {
	unit := filepath.Base(filepath.Dir(scriptPath))
	f.calls = append(f.calls, hookCall{unit: unit, action: action})
	key := unit + "/" + string(action)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	if r := f.results[key]; r != nil {
		return r, nil
	}
	return &hook.Result{}, nil
}

type deployCall struct {
	unit   string
	params string
}

type fakeDeployer struct {
	calls  []deployCall
	failOn string
}

func (f *fakeDeployer) Deploy(ctx context.Context, dir, params string) (string, error) {
	unit := filepath.Base(dir)
	f.calls = append(f.calls, deployCall{unit: unit, params: params})
	if unit == f.failOn {
		return "Error: type User is missing an id field\n", fmt.Errorf("%w: prisma exited with code 1", errs.ErrDeployFailure)
	}
	return "Deployed " + unit + "\n", nil
}

type fixture struct {
	registry *registry.Registry
	store    *headstate.MemoryStore
	heads    *headstate.Client
	hooks    *fakeHooks
	deployer *fakeDeployer
	metrics  *metrics.Recorder
	logs     *bytes.Buffer
	exec     *Executor
}

func newFixture(t *testing.T, units []string, head ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for _, name := range units {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatalf("Failed to create unit %s: %v", name, err)
		}
	}

	f := &fixture{
		registry: registry.New(dir, "job.go"),
		store:    headstate.NewMemoryStore(head...),
		hooks:    &fakeHooks{results: map[string]*hook.Result{}, errs: map[string]error{}},
		deployer: &fakeDeployer{},
		metrics:  metrics.New(),
		logs:     &bytes.Buffer{},
	}
	f.heads = headstate.NewClient(f.store, f.registry, nil)

	exec, err := New(Config{
		Units:        f.registry,
		Heads:        f.heads,
		Hooks:        f.hooks,
		Deployer:     f.deployer,
		DeployParams: "--global",
		Logger:       hclog.New(&hclog.LoggerOptions{Output: f.logs, Level: hclog.Info}),
		Metrics:      f.metrics,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.exec = exec
	return f
}

func (f *fixture) head(t *testing.T) string {
	t.Helper()
	result, err := f.heads.GetHead(context.Background(), false)
	if err != nil {
		t.Fatalf("GetHead failed: %v", err)
	}
	return result.Name
}

func TestMigrate_AppliesForwardInOrder(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c"}, "a")

	report, err := f.exec.Migrate(context.Background(), MigrateOptions{})
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, report.Applied); diff != "" {
		t.Errorf("Applied mismatch (-want +got):\n%s", diff)
	}
	if got := f.head(t); got != "c" {
		t.Errorf("Expected head c, got %q", got)
	}

	wantHooks := []hookCall{
		{"b", hook.UpBefore}, {"b", hook.UpAfter},
		{"c", hook.UpBefore}, {"c", hook.UpAfter},
	}
	if diff := cmp.Diff(wantHooks, f.hooks.calls, cmp.AllowUnexported(hookCall{})); diff != "" {
		t.Errorf("Hook calls mismatch (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(f.metrics.HeadCommitsTotal); got != 2 {
		t.Errorf("Expected 2 head commits, got %v", got)
	}
}

func TestMigrate_BackwardUsesDownActions(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c"}, "c")

	report, err := f.exec.Migrate(context.Background(), MigrateOptions{Direction: planner.Backward, Target: "a"})
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, report.Applied); diff != "" {
		t.Errorf("Applied mismatch (-want +got):\n%s", diff)
	}
	for _, c := range f.hooks.calls {
		if c.action != hook.DownBefore && c.action != hook.DownAfter {
			t.Errorf("Unexpected action %s for %s", c.action, c.unit)
		}
	}
	if got := f.head(t); got != "a" {
		t.Errorf("Expected head a, got %q", got)
	}
}

// A deploy failure at step k leaves steps before k committed, never runs the
// post-hook of k, and never touches later steps.
func TestMigrate_HaltsAtFailingDeploy(t *testing.T) {
	units := []string{"u0", "u1", "u2", "u3", "u4"}
	for k := 1; k < len(units); k++ {
		t.Run(units[k], func(t *testing.T) {
			f := newFixture(t, units, "u0")
			f.deployer.failOn = units[k]

			report, err := f.exec.Migrate(context.Background(), MigrateOptions{})
			if !errors.Is(err, errs.ErrDeployFailure) {
				t.Fatalf("Expected ErrDeployFailure, got %v", err)
			}
			if report.Failed == nil || report.Failed.Unit != units[k] || report.Failed.Action != "deploy" {
				t.Fatalf("Expected failure at %s deploy, got %+v", units[k], report.Failed)
			}
			if diff := cmp.Diff(units[1:k], report.Applied); diff != "" {
				t.Errorf("Applied mismatch (-want +got):\n%s", diff)
			}
			if len(f.deployer.calls) != k {
				t.Errorf("Expected %d deploys, got %d", k, len(f.deployer.calls))
			}
			// k-1 full steps with two hooks each, plus the failing pre-hook.
			if want := 2*(k-1) + 1; len(f.hooks.calls) != want {
				t.Errorf("Expected %d hook calls, got %d", want, len(f.hooks.calls))
			}
			if f.store.Replacements() != k-1 {
				t.Errorf("Expected %d head commits, got %d", k-1, f.store.Replacements())
			}
			if got := f.head(t); got != units[k-1] {
				t.Errorf("Expected head %s, got %q", units[k-1], got)
			}
		})
	}
}

func TestMigrate_PreHookViolationSkipsDeploy(t *testing.T) {
	f := newFixture(t, []string{"a", "b"}, "a")
	f.hooks.errs["b/upBefore"] = fmt.Errorf("%w: did not receive a result", errs.ErrHookContractViolation)

	report, err := f.exec.Migrate(context.Background(), MigrateOptions{})
	if !errors.Is(err, errs.ErrHookContractViolation) {
		t.Fatalf("Expected ErrHookContractViolation, got %v", err)
	}
	if report.Failed.Action != "upBefore" {
		t.Errorf("Expected failure in upBefore, got %q", report.Failed.Action)
	}
	if len(f.deployer.calls) != 0 {
		t.Errorf("Expected no deploys, got %d", len(f.deployer.calls))
	}
	if got := f.head(t); got != "a" {
		t.Errorf("Expected head to stay at a, got %q", got)
	}
}

func TestMigrate_PostHookFailureLeavesHead(t *testing.T) {
	f := newFixture(t, []string{"a", "b"}, "a")
	f.hooks.errs["b/upAfter"] = fmt.Errorf("%w: boom", errs.ErrHookContractViolation)

	_, err := f.exec.Migrate(context.Background(), MigrateOptions{})
	if !errors.Is(err, errs.ErrHookContractViolation) {
		t.Fatalf("Expected ErrHookContractViolation, got %v", err)
	}
	if len(f.deployer.calls) != 1 {
		t.Errorf("Expected the deploy to have run, got %d", len(f.deployer.calls))
	}
	if got := f.head(t); got != "a" {
		t.Errorf("Expected head to stay at a after post-hook failure, got %q", got)
	}
}

func TestMigrate_HookParamsOverrideGlobal(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c"}, "a")
	f.hooks.results["b/upBefore"] = &hook.Result{DeployParams: "--from-hook"}

	if _, err := f.exec.Migrate(context.Background(), MigrateOptions{Force: true}); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	want := []deployCall{{"b", "--from-hook"}, {"c", "--global -f"}}
	if diff := cmp.Diff(want, f.deployer.calls, cmp.AllowUnexported(deployCall{})); diff != "" {
		t.Errorf("Deploy calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMigrate_EndToEnd(t *testing.T) {
	f := newFixture(t, []string{"A", "B", "C"}, "A")
	f.deployer.failOn = "C"

	report, err := f.exec.Migrate(context.Background(), MigrateOptions{})
	if err == nil || !strings.Contains(err.Error(), "C") {
		t.Fatalf("Expected error referencing C, got %v", err)
	}
	if diff := cmp.Diff([]string{"B"}, report.Applied); diff != "" {
		t.Errorf("Applied mismatch (-want +got):\n%s", diff)
	}
	if got := f.head(t); got != "B" {
		t.Errorf("Expected head B, got %q", got)
	}
	if errs.ExitCode(err) != errs.ExitDeploy {
		t.Errorf("Expected deploy exit code, got %d", errs.ExitCode(err))
	}
}

func TestMigrate_InconsistentHeadRunsNothing(t *testing.T) {
	f := newFixture(t, []string{"a", "b"}, "a", "b")

	_, err := f.exec.Migrate(context.Background(), MigrateOptions{})
	if !errors.Is(err, errs.ErrInconsistentHead) {
		t.Fatalf("Expected ErrInconsistentHead, got %v", err)
	}
	if len(f.hooks.calls) != 0 || len(f.deployer.calls) != 0 {
		t.Errorf("Expected no collaborator calls, got hooks=%d deploys=%d", len(f.hooks.calls), len(f.deployer.calls))
	}
}

func TestDeploy_DirectSetsHeadWithoutHooks(t *testing.T) {
	f := newFixture(t, []string{"a", "b"})

	report, err := f.exec.Deploy(context.Background(), DeployOptions{Name: "b", Force: true})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, report.Applied); diff != "" {
		t.Errorf("Applied mismatch (-want +got):\n%s", diff)
	}
	if len(f.hooks.calls) != 0 {
		t.Errorf("Expected no hooks, got %d", len(f.hooks.calls))
	}
	if diff := cmp.Diff([]deployCall{{"b", "--global -f"}}, f.deployer.calls, cmp.AllowUnexported(deployCall{})); diff != "" {
		t.Errorf("Deploy calls mismatch (-want +got):\n%s", diff)
	}
	if got := f.head(t); got != "b" {
		t.Errorf("Expected head b, got %q", got)
	}
}

func TestDeploy_MigrateWhenHeadExists(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c"}, "a")

	report, err := f.exec.Deploy(context.Background(), DeployOptions{Name: "c", Migrate: true})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, report.Applied); diff != "" {
		t.Errorf("Applied mismatch (-want +got):\n%s", diff)
	}
	if len(f.hooks.calls) != 4 {
		t.Errorf("Expected hooks for both steps, got %d calls", len(f.hooks.calls))
	}
}

func TestDeploy_MigrateWithoutHeadDeploysDirectly(t *testing.T) {
	f := newFixture(t, []string{"a", "b"})

	if _, err := f.exec.Deploy(context.Background(), DeployOptions{Name: "a", Migrate: true}); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if len(f.hooks.calls) != 0 {
		t.Errorf("Expected direct deploy without hooks, got %d hook calls", len(f.hooks.calls))
	}
	if got := f.head(t); got != "a" {
		t.Errorf("Expected head a, got %q", got)
	}
}

func TestDeploy_UnknownName(t *testing.T) {
	f := newFixture(t, []string{"a"})
	if _, err := f.exec.Deploy(context.Background(), DeployOptions{Name: "zzz"}); !errors.Is(err, errs.ErrInvalidHead) {
		t.Fatalf("Expected ErrInvalidHead, got %v", err)
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("Expected error for empty config")
	}
}

func TestDeployFailureLogsToolOutput(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *fixture) error
	}{
		{
			name: "migrate",
			run: func(f *fixture) error {
				_, err := f.exec.Migrate(context.Background(), MigrateOptions{Direction: planner.Forward})
				return err
			},
		},
		{
			name: "direct deploy",
			run: func(f *fixture) error {
				_, err := f.exec.Deploy(context.Background(), DeployOptions{Name: "b"})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []string{"a", "b"}, "a")
			f.deployer.failOn = "b"

			if err := tt.run(f); !errors.Is(err, errs.ErrDeployFailure) {
				t.Fatalf("Expected ErrDeployFailure, got %v", err)
			}

			found := false
			for _, line := range strings.Split(f.logs.String(), "\n") {
				if strings.Contains(line, "[ERROR]") && strings.Contains(line, "type User is missing an id field") {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected deploy output logged at error level, got:\n%s", f.logs.String())
			}
		})
	}
}
