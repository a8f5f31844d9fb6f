package executor

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/errs"
	"github.com/schemahead/schemahead/internal/hook"
	"github.com/schemahead/schemahead/internal/planner"
	"github.com/schemahead/schemahead/internal/registry"
)

// State is a position in a unit's step sequence.
type State int

const (
	StatePreHook State = iota
	StateDeploy
	StatePostHook
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePreHook:
		return "preHook"
	case StateDeploy:
		return "deploy"
	case StatePostHook:
		return "postHook"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step runs one unit: pre-hook, deploy, post-hook, then head commit. The head
// moves only after the post-hook succeeds. globalParams are used for the
// deploy unless the pre-hook returns deployParams.
func (e *Executor) Step(ctx context.Context, unit registry.Unit, direction planner.Direction, globalParams string) error {
	before, after := hook.Actions(direction == planner.Backward)
	dir := direction.String()
	logger := e.logger.Named(unit.Name)

	var params string
	state := StatePreHook
	for {
		logger.Debug("entering state", "state", state)
		start := time.Now()

		switch state {
		case StatePreHook:
			result, err := e.runHook(ctx, unit, before)
			e.metrics.ObservePhase(dir, "preHook", time.Since(start))
			if err != nil {
				return e.fail(unit, string(before), dir, err)
			}
			params = globalParams
			if result.DeployParams != "" {
				params = result.DeployParams
			}
			state = StateDeploy

		case StateDeploy:
			out, err := e.deployer.Deploy(ctx, unit.Dir, params)
			e.metrics.ObservePhase(dir, "deploy", time.Since(start))
			if err != nil {
				e.logOutput(hclog.Error, unit.Name, out)
				return e.fail(unit, "deploy", dir, err)
			}
			e.logOutput(hclog.Debug, unit.Name, out)
			logger.Info("deployed successfully")
			state = StatePostHook

		case StatePostHook:
			_, err := e.runHook(ctx, unit, after)
			e.metrics.ObservePhase(dir, "postHook", time.Since(start))
			if err != nil {
				return e.fail(unit, string(after), dir, err)
			}
			if err := e.commit(ctx, unit, dir); err != nil {
				return e.fail(unit, "commit", dir, err)
			}
			state = StateCommitted

		case StateCommitted:
			e.metrics.StepFinished(dir, "applied")
			return nil
		}
	}
}

func (e *Executor) runHook(ctx context.Context, unit registry.Unit, action hook.Action) (*hook.Result, error) {
	caps := hook.Capabilities{
		Client: e.heads,
		Logger: e.logger.Named(unit.Name).With("action", string(action)),
	}
	return e.hooks.Run(ctx, unit.HookPath, action, caps)
}

func (e *Executor) commit(ctx context.Context, unit registry.Unit, direction string) error {
	start := time.Now()
	_, err := e.heads.SetHead(ctx, unit.Name)
	e.metrics.ObservePhase(direction, "commit", time.Since(start))
	if err != nil {
		return err
	}
	e.metrics.HeadCommitted()
	return nil
}

func (e *Executor) fail(unit registry.Unit, action, direction string, err error) error {
	e.logger.Error("migration failed", "migration", unit.Name, "state", StateFailed, "action", action, "error", err)
	e.metrics.StepFinished(direction, "failed")
	return &errs.StepError{Unit: unit.Name, Action: action, Err: err}
}
