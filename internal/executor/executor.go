// Package executor applies traversal plans one migration at a time, running
// each unit through pre-hook, deploy, post-hook and head commit.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/deploy"
	"github.com/schemahead/schemahead/internal/errs"
	"github.com/schemahead/schemahead/internal/headstate"
	"github.com/schemahead/schemahead/internal/hook"
	"github.com/schemahead/schemahead/internal/metrics"
	"github.com/schemahead/schemahead/internal/planner"
	"github.com/schemahead/schemahead/internal/registry"
)

// Units is the migration registry.
type Units interface {
	ListUnits() ([]registry.Unit, error)
	Find(name string) (registry.Unit, error)
}

// Heads reads and commits the remote head.
type Heads interface {
	GetHead(ctx context.Context, tolerant bool) (headstate.Result, error)
	SetHead(ctx context.Context, name string) (headstate.Record, error)
	Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error)
}

// Config wires an Executor to its collaborators.
type Config struct {
	Units    Units
	Heads    Heads
	Hooks    hook.Runner
	Deployer deploy.Deployer

	// DeployParams are passed to every deploy unless a pre-deploy hook
	// returns its own.
	DeployParams string

	Logger  hclog.Logger
	Metrics *metrics.Recorder
}

// Executor runs migrations strictly one after another.
type Executor struct {
	units    Units
	heads    Heads
	planner  *planner.Planner
	hooks    hook.Runner
	deployer deploy.Deployer
	params   string
	logger   hclog.Logger
	metrics  *metrics.Recorder
}

func New(cfg Config) (*Executor, error) {
	if cfg.Units == nil || cfg.Heads == nil || cfg.Hooks == nil || cfg.Deployer == nil {
		return nil, errors.New("executor requires units, heads, hooks and deployer")
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	return &Executor{
		units:    cfg.Units,
		heads:    cfg.Heads,
		planner:  planner.New(cfg.Units, cfg.Heads),
		hooks:    cfg.Hooks,
		deployer: cfg.Deployer,
		params:   cfg.DeployParams,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// MigrateOptions selects the traversal.
type MigrateOptions struct {
	Direction planner.Direction
	Target    string

	// Force appends -f to the global deploy parameters.
	Force bool
}

// Report describes what a run did. Applied lists committed units in order;
// Failed is set when the run halted.
type Report struct {
	Plan    *planner.Plan
	Applied []string
	Failed  *errs.StepError
}

// Migrate plans a traversal from the current head and applies it. The first
// failing unit halts the run; units before it stay committed and nothing is
// rolled back.
func (e *Executor) Migrate(ctx context.Context, opts MigrateOptions) (*Report, error) {
	plan, err := e.planner.Plan(ctx, planner.Request{Direction: opts.Direction, Target: opts.Target})
	if err != nil {
		return nil, err
	}

	e.logger.Info(plan.Summary())
	for _, name := range plan.Names() {
		e.logger.Info(name)
	}

	report := &Report{Plan: plan, Applied: []string{}}
	params := globalParams(e.params, opts.Force)
	for _, unit := range plan.Units {
		if err := e.Step(ctx, unit, opts.Direction, params); err != nil {
			var stepErr *errs.StepError
			if errors.As(err, &stepErr) {
				report.Failed = stepErr
			}
			return report, err
		}
		report.Applied = append(report.Applied, unit.Name)
	}
	return report, nil
}

// DeployOptions selects the unit for a direct deploy.
type DeployOptions struct {
	Name  string
	Force bool

	// Migrate runs a forward migration to Name instead when a head already
	// exists.
	Migrate bool
}

// Deploy deploys one unit directly, without hooks, and makes it head. It is
// meant for new setups where there is no head to migrate from.
func (e *Executor) Deploy(ctx context.Context, opts DeployOptions) (*Report, error) {
	unit, err := e.units.Find(opts.Name)
	if err != nil {
		return nil, err
	}

	if opts.Migrate {
		head, err := e.heads.GetHead(ctx, true)
		if err != nil {
			return nil, err
		}
		switch head.State {
		case headstate.HeadSet:
			e.logger.Info("head already deployed, migrating instead", "head", head.Name, "target", unit.Name)
			return e.Migrate(ctx, MigrateOptions{Direction: planner.Forward, Target: unit.Name, Force: opts.Force})
		case headstate.MultipleHeads:
			return nil, fmt.Errorf("%w: found %d head records %v, exactly one is required", errs.ErrInconsistentHead, len(head.Records), head.Records)
		}
	}

	e.logger.Info("deploying", "migration", unit.Name)
	report := &Report{Applied: []string{}}
	direction := planner.Forward.String()
	params := globalParams(e.params, opts.Force)

	start := time.Now()
	out, err := e.deployer.Deploy(ctx, unit.Dir, params)
	e.metrics.ObservePhase(direction, "deploy", time.Since(start))
	if err != nil {
		e.logOutput(hclog.Error, unit.Name, out)
		report.Failed = &errs.StepError{Unit: unit.Name, Action: "deploy", Err: err}
		e.metrics.StepFinished(direction, "failed")
		return report, report.Failed
	}
	e.logOutput(hclog.Debug, unit.Name, out)

	if err := e.commit(ctx, unit, direction); err != nil {
		report.Failed = &errs.StepError{Unit: unit.Name, Action: "commit", Err: err}
		e.metrics.StepFinished(direction, "failed")
		return report, report.Failed
	}
	e.metrics.StepFinished(direction, "applied")
	report.Applied = append(report.Applied, unit.Name)
	return report, nil
}

// logOutput logs the deploy tool's stdout line by line. Output of a failed
// deploy is logged at error level so it is visible without --log-level.
func (e *Executor) logOutput(level hclog.Level, unit, out string) {
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if line != "" {
			e.logger.Log(level, line, "migration", unit)
		}
	}
}

func globalParams(params string, force bool) string {
	if !force {
		return params
	}
	return strings.TrimSpace(params + " -f")
}
