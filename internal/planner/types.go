package planner

import (
	"fmt"

	"github.com/schemahead/schemahead/internal/registry"
)

// Direction is the order in which a plan traverses the registry.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Request describes a traversal. An empty Target means the end of the
// registry in the requested direction.
type Request struct {
	Direction Direction
	Target    string
}

// Plan is the contiguous run of units between head (exclusive) and target
// (inclusive), in traversal order.
type Plan struct {
	Direction Direction
	Head      string
	Target    string
	Units     []registry.Unit
}

// Empty reports whether there is nothing to apply.
func (p *Plan) Empty() bool {
	return len(p.Units) == 0
}

// Names returns the unit names in execution order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Units))
	for i, u := range p.Units {
		names[i] = u.Name
	}
	return names
}

// Summary describes the plan in one line.
func (p *Plan) Summary() string {
	if p.Target != "" {
		return fmt.Sprintf("Found %d available migrations between current head at %s and %s", len(p.Units), p.Head, p.Target)
	}
	where := "after"
	if p.Direction == Backward {
		where = "before"
	}
	return fmt.Sprintf("Found %d available migrations %s current head at %s", len(p.Units), where, p.Head)
}
