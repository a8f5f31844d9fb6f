package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/schemahead/schemahead/internal/errs"
	"github.com/schemahead/schemahead/internal/headstate"
	"github.com/schemahead/schemahead/internal/registry"
)

func makeUnits(names ...string) []registry.Unit {
	units := make([]registry.Unit, len(names))
	for i, n := range names {
		units[i] = registry.Unit{Name: n, Index: i}
	}
	return units
}

func TestCompute(t *testing.T) {
	units := makeUnits("a", "b", "c", "d")

	tests := []struct {
		name string
		head string
		req  Request
		want []string
	}{
		{name: "forward to end", head: "a", req: Request{}, want: []string{"b", "c", "d"}},
		{name: "forward to target", head: "a", req: Request{Target: "c"}, want: []string{"b", "c"}},
		{name: "forward head at end", head: "d", req: Request{}, want: []string{}},
		{name: "forward target equals head", head: "b", req: Request{Target: "b"}, want: []string{}},
		{name: "forward target behind head", head: "c", req: Request{Target: "a"}, want: []string{}},
		{name: "backward to start", head: "d", req: Request{Direction: Backward}, want: []string{"c", "b", "a"}},
		{name: "backward to target", head: "d", req: Request{Direction: Backward, Target: "b"}, want: []string{"c", "b"}},
		{name: "backward head at start", head: "a", req: Request{Direction: Backward}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compute(units, tt.head, tt.req)
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, plan.Names()); diff != "" {
				t.Errorf("Plan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompute_UnknownNames(t *testing.T) {
	units := makeUnits("a", "b")

	if _, err := Compute(units, "a", Request{Target: "zzz"}); !errors.Is(err, errs.ErrInvalidHead) {
		t.Errorf("Expected ErrInvalidHead for unknown target, got %v", err)
	}
	if _, err := Compute(units, "gone", Request{}); !errors.Is(err, errs.ErrInvalidHead) {
		t.Errorf("Expected ErrInvalidHead for head missing from disk, got %v", err)
	}
}

func TestCompute_EmptyRegistry(t *testing.T) {
	tests := []struct {
		name string
		head string
		req  Request
	}{
		{"head gone", "2024-01-01-000000_gone", Request{}},
		{"head gone backward", "2024-01-01-000000_gone", Request{Direction: Backward}},
		{"unknown target", "x", Request{Target: "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compute(nil, tt.head, tt.req)
			if !errors.Is(err, errs.ErrInvalidHead) {
				t.Errorf("Expected ErrInvalidHead with no migrations on disk, got plan=%v err=%v", plan, err)
			}
		})
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	units := makeUnits("a", "b", "c")
	if _, err := Compute(units, "c", Request{Direction: Backward}); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, unitNames(units)); diff != "" {
		t.Errorf("Input reordered (-want +got):\n%s", diff)
	}
}

// For any registry and head/target pair the plan is the contiguous slice
// between them, and the backward plan is the forward order reversed.
func TestCompute_SliceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(12)
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("2024-01-01-%06d_m", i)
		}
		units := makeUnits(names...)
		h := rng.Intn(n)
		tIdx := rng.Intn(n)

		forward, err := Compute(units, names[h], Request{Target: names[tIdx]})
		if err != nil {
			t.Fatalf("Compute forward failed: %v", err)
		}
		var want []string
		if tIdx > h {
			want = names[h+1 : tIdx+1]
		}
		if len(want) == 0 {
			want = []string{}
		}
		if diff := cmp.Diff(want, forward.Names()); diff != "" {
			t.Fatalf("n=%d head=%d target=%d forward mismatch (-want +got):\n%s", n, h, tIdx, diff)
		}

		backward, err := Compute(units, names[h], Request{Direction: Backward, Target: names[tIdx]})
		if err != nil {
			t.Fatalf("Compute backward failed: %v", err)
		}
		var wantBack []string
		for i := h - 1; i >= tIdx; i-- {
			wantBack = append(wantBack, names[i])
		}
		if len(wantBack) == 0 {
			wantBack = []string{}
		}
		if diff := cmp.Diff(wantBack, backward.Names()); diff != "" {
			t.Fatalf("n=%d head=%d target=%d backward mismatch (-want +got):\n%s", n, h, tIdx, diff)
		}
	}
}

func TestPlan_Summary(t *testing.T) {
	units := makeUnits("a", "b", "c")

	plan, _ := Compute(units, "a", Request{})
	if got := plan.Summary(); got != "Found 2 available migrations after current head at a" {
		t.Errorf("Unexpected summary: %q", got)
	}

	plan, _ = Compute(units, "c", Request{Direction: Backward})
	if got := plan.Summary(); !strings.Contains(got, "before current head at c") {
		t.Errorf("Unexpected summary: %q", got)
	}

	plan, _ = Compute(units, "a", Request{Target: "b"})
	if got := plan.Summary(); got != "Found 1 available migrations between current head at a and b" {
		t.Errorf("Unexpected summary: %q", got)
	}
}

type fakeLister struct {
	units []registry.Unit
	err   error
}

func (f fakeLister) ListUnits() ([]registry.Unit, error) { return f.units, f.err }

func (f fakeLister) Names() ([]string, error) { return unitNames(f.units), f.err }

func TestPlanner_RequiresConsistentHead(t *testing.T) {
	lister := fakeLister{units: makeUnits("a", "b")}

	for _, records := range [][]string{nil, {"a", "b"}} {
		heads := headstate.NewClient(headstate.NewMemoryStore(records...), lister, nil)
		_, err := New(lister, heads).Plan(context.Background(), Request{})
		if !errors.Is(err, errs.ErrInconsistentHead) {
			t.Errorf("records %v: expected ErrInconsistentHead, got %v", records, err)
		}
	}
}

func TestPlanner_Plan(t *testing.T) {
	lister := fakeLister{units: makeUnits("a", "b", "c")}
	heads := headstate.NewClient(headstate.NewMemoryStore("a"), lister, nil)

	plan, err := New(lister, heads).Plan(context.Background(), Request{Target: "b"})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Head != "a" {
		t.Errorf("Expected head a, got %q", plan.Head)
	}
	if diff := cmp.Diff([]string{"b"}, plan.Names()); diff != "" {
		t.Errorf("Plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanner_RegistryError(t *testing.T) {
	lister := fakeLister{err: errs.ErrRegistryUnavailable}
	heads := headstate.NewClient(headstate.NewMemoryStore("a"), lister, nil)

	_, err := New(lister, heads).Plan(context.Background(), Request{})
	if !errors.Is(err, errs.ErrRegistryUnavailable) {
		t.Errorf("Expected ErrRegistryUnavailable, got %v", err)
	}
}

func unitNames(units []registry.Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}
