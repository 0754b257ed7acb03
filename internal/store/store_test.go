package store

import (
	"context"
	"strings"
	"testing"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusCompileError, StatusRuntimeError, StatusTimeout, StatusInternalError}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusRunning, Status("")} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestCompleteJobRejectsNonTerminalStatus(t *testing.T) {
	q := New(nil) // the guard fires before any query
	for _, s := range []Status{StatusPending, StatusRunning, Status("bogus")} {
		if _, err := q.CompleteJob(context.Background(), CompleteJobParams{ID: "x", Status: s}); err == nil {
			t.Errorf("CompleteJob must reject status %q", s)
		}
	}
}

func TestClaimQueryShape(t *testing.T) {
	// The claim must serialize through row locking and favor FIFO order.
	for _, want := range []string{"FOR UPDATE SKIP LOCKED", "ORDER BY created_at", "status = 'pending'", "started_at = now()"} {
		if !strings.Contains(claimNextJob, want) {
			t.Errorf("claim query missing %q", want)
		}
	}
}

func TestCompleteQueryGuardsRunningState(t *testing.T) {
	if !strings.Contains(completeJob, "status = 'running'") {
		t.Error("terminal transition must be guarded on the running state")
	}
	if !strings.Contains(completeJob, "completed_at = now()") {
		t.Error("terminal transition must stamp completed_at")
	}
}
