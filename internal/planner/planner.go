package planner

import (
	"context"
	"fmt"
	"slices"

	"github.com/schemahead/schemahead/internal/errs"
	"github.com/schemahead/schemahead/internal/headstate"
	"github.com/schemahead/schemahead/internal/registry"
)

// UnitLister lists the registry in ascending order.
type UnitLister interface {
	ListUnits() ([]registry.Unit, error)
}

// HeadReader reads the current head.
type HeadReader interface {
	GetHead(ctx context.Context, tolerant bool) (headstate.Result, error)
}

// Planner computes traversal plans from the registry and the remote head.
type Planner struct {
	units UnitLister
	heads HeadReader
}

func New(units UnitLister, heads HeadReader) *Planner {
	return &Planner{units: units, heads: heads}
}

// Plan lists the registry, reads the head strictly and computes the plan.
// A missing or ambiguous head is ErrInconsistentHead.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	units, err := p.units.ListUnits()
	if err != nil {
		return nil, err
	}
	head, err := p.heads.GetHead(ctx, false)
	if err != nil {
		return nil, err
	}
	return Compute(units, head.Name, req)
}

// Compute returns the units strictly after head up to and including target,
// in traversal order. units must be in ascending order. A target at or behind
// head yields an empty plan.
func Compute(units []registry.Unit, head string, req Request) (*Plan, error) {
	ordered := slices.Clone(units)
	if req.Direction == Backward {
		slices.Reverse(ordered)
	}

	plan := &Plan{Direction: req.Direction, Head: head, Target: req.Target}

	targetIndex := len(ordered) - 1
	if req.Target != "" {
		targetIndex = indexOf(ordered, req.Target)
		if targetIndex < 0 {
			return nil, fmt.Errorf("%w: target %q is not a known migration", errs.ErrInvalidHead, req.Target)
		}
	}

	headIndex := indexOf(ordered, head)
	if headIndex < 0 {
		return nil, fmt.Errorf("%w: current head %q does not exist in the migrations directory", errs.ErrInvalidHead, head)
	}

	if targetIndex > headIndex {
		plan.Units = ordered[headIndex+1 : targetIndex+1]
	}
	return plan, nil
}

func indexOf(units []registry.Unit, name string) int {
	return slices.IndexFunc(units, func(u registry.Unit) bool { return u.Name == name })
}
