package workflow

// transitions is the legality table for negotiation status changes. The
// legacy client only mirrored this table through button visibility; here it
// is authoritative and the service rejects anything not listed.
//
// pending_approval is a legacy alias for submitted: older rows carry it, so
// it shares submitted's outgoing edges, but the server only ever writes
// submitted.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted, StatusCancelled, StatusForked},
	StatusSubmitted: {StatusPending, StatusPendingDirectorApproval, StatusRejected, StatusCancelled, StatusExpired, StatusForked},
	StatusPendingApproval: {
		StatusPending, StatusPendingDirectorApproval, StatusRejected, StatusCancelled, StatusExpired, StatusForked,
	},
	StatusPendingDirectorApproval: {StatusPending, StatusRejected, StatusCancelled, StatusExpired},
	StatusPending:                 {StatusApproved, StatusPartiallyApproved, StatusRejected, StatusCancelled, StatusExpired, StatusForked},
	StatusApproved:                {StatusComplete, StatusCancelled},
	StatusPartiallyApproved:       {StatusPartiallyComplete, StatusComplete, StatusCancelled, StatusDraft},
	StatusRejected:                {StatusDraft},
	// complete, partially_complete, cancelled, forked, expired: no exits.
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses legally reachable from s. The returned
// slice must not be mutated.
func NextStatuses(s Status) []Status {
	return transitions[s]
}

// Terminal reports whether no transition leaves s. Note that rejected is not
// terminal: the new-cycle operation reopens it as a draft while renegotiation
// rounds remain.
func Terminal(s Status) bool {
	return len(transitions[s]) == 0
}
