package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()
	r.StepFinished("forward", "applied")
	r.StepFinished("forward", "applied")
	r.StepFinished("backward", "failed")
	r.HeadCommitted()
	r.ObservePhase("forward", "deploy", 120*time.Millisecond)

	if got := testutil.ToFloat64(r.StepsTotal.WithLabelValues("forward", "applied")); got != 2 {
		t.Errorf("Expected 2 applied forward steps, got %v", got)
	}
	if got := testutil.ToFloat64(r.StepsTotal.WithLabelValues("backward", "failed")); got != 1 {
		t.Errorf("Expected 1 failed backward step, got %v", got)
	}
	if got := testutil.ToFloat64(r.HeadCommitsTotal); got != 1 {
		t.Errorf("Expected 1 head commit, got %v", got)
	}
	if got := testutil.CollectAndCount(r.StepDuration); got != 1 {
		t.Errorf("Expected 1 duration series, got %d", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.StepFinished("forward", "applied")
	r.HeadCommitted()
	r.ObservePhase("forward", "deploy", time.Second)
	if err := r.WriteFile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatalf("Expected nil recorder write to succeed, got %v", err)
	}
}

func TestRecorder_WriteFile(t *testing.T) {
	r := New()
	r.HeadCommitted()

	path := filepath.Join(t.TempDir(), "schemahead.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read metrics file: %v", err)
	}
	if !strings.Contains(string(data), "schemahead_head_commits_total 1") {
		t.Errorf("Expected head commit counter in output, got:\n%s", data)
	}
}
