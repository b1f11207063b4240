package workflow

import "testing"

func TestCanTransition_LegalEdges(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusDraft, StatusSubmitted},
		{StatusDraft, StatusCancelled},
		{StatusDraft, StatusForked},
		{StatusSubmitted, StatusPending},
		{StatusSubmitted, StatusPendingDirectorApproval},
		{StatusSubmitted, StatusRejected},
		{StatusPendingApproval, StatusPending},
		{StatusPendingDirectorApproval, StatusPending},
		{StatusPending, StatusApproved},
		{StatusPending, StatusPartiallyApproved},
		{StatusPending, StatusRejected},
		{StatusApproved, StatusComplete},
		{StatusPartiallyApproved, StatusPartiallyComplete},
		{StatusPartiallyApproved, StatusDraft},
		{StatusRejected, StatusDraft},
	}
	for _, e := range legal {
		if !CanTransition(e.from, e.to) {
			t.Errorf("expected %s -> %s to be legal", e.from, e.to)
		}
	}
}

func TestCanTransition_IllegalEdges(t *testing.T) {
	illegal := []struct{ from, to Status }{
		{StatusDraft, StatusApproved},
		{StatusDraft, StatusComplete},
		{StatusPending, StatusSubmitted},
		{StatusApproved, StatusDraft},
		{StatusCancelled, StatusDraft},
		{StatusComplete, StatusDraft},
		{StatusExpired, StatusSubmitted},
		{StatusForked, StatusPending},
		{StatusSubmitted, StatusApproved},
	}
	for _, e := range illegal {
		if CanTransition(e.from, e.to) {
			t.Errorf("expected %s -> %s to be illegal", e.from, e.to)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := []Status{StatusCancelled, StatusComplete, StatusPartiallyComplete, StatusForked, StatusExpired}
	for _, s := range terminal {
		if !Terminal(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	// rejected keeps its new-cycle edge back to draft.
	if Terminal(StatusRejected) {
		t.Error("rejected must admit the new-cycle transition")
	}
	for _, s := range []Status{StatusDraft, StatusSubmitted, StatusPending, StatusApproved, StatusPartiallyApproved} {
		if Terminal(s) {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestPendingApprovalAliasesSubmitted(t *testing.T) {
	for _, to := range NextStatuses(StatusSubmitted) {
		if !CanTransition(StatusPendingApproval, to) {
			t.Errorf("pending_approval should share submitted's edge to %s", to)
		}
	}
}
