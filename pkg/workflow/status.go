// Package workflow holds the pure negotiation workflow model: the status
// vocabulary, role-based approval predicates, the transition legality table
// and the fork partition builder. Everything here is a pure function of its
// arguments so it can be shared by the server and the API client and tested
// without any infrastructure.
package workflow

// Status is a negotiation lifecycle status as it appears on the wire.
type Status string

const (
	StatusDraft                   Status = "draft"
	StatusSubmitted               Status = "submitted"
	StatusPending                 Status = "pending"
	StatusApproved                Status = "approved"
	StatusComplete                Status = "complete"
	StatusPartiallyComplete       Status = "partially_complete"
	StatusPartiallyApproved       Status = "partially_approved"
	StatusRejected                Status = "rejected"
	StatusCancelled               Status = "cancelled"
	StatusForked                  Status = "forked"
	StatusExpired                 Status = "expired"
	StatusPendingApproval         Status = "pending_approval"
	StatusPendingDirectorApproval Status = "pending_director_approval"
)

// Badge is the display variant a status maps to.
type Badge string

const (
	BadgeDefault     Badge = "default"
	BadgeSecondary   Badge = "secondary"
	BadgeSuccess     Badge = "success"
	BadgeWarning     Badge = "warning"
	BadgeDestructive Badge = "destructive"
	BadgeOutline     Badge = "outline"
)

// StatusInfo is the display metadata for a status.
type StatusInfo struct {
	Label       string `json:"label"`
	Badge       Badge  `json:"badge"`
	Description string `json:"description"`
}

var statusInfo = map[Status]StatusInfo{
	StatusDraft:                   {Label: "Draft", Badge: BadgeSecondary, Description: "Being prepared, not yet submitted for review"},
	StatusSubmitted:               {Label: "Submitted", Badge: BadgeDefault, Description: "Awaiting internal commercial review"},
	StatusPending:                 {Label: "Pending", Badge: BadgeWarning, Description: "Internally approved, awaiting counterparty decision"},
	StatusApproved:                {Label: "Approved", Badge: BadgeSuccess, Description: "All items approved by the counterparty"},
	StatusComplete:                {Label: "Complete", Badge: BadgeSuccess, Description: "Fully approved and closed"},
	StatusPartiallyComplete:       {Label: "Partially Complete", Badge: BadgeSuccess, Description: "Closed with a subset of items approved"},
	StatusPartiallyApproved:       {Label: "Partially Approved", Badge: BadgeWarning, Description: "Counterparty approved a subset of the items"},
	StatusRejected:                {Label: "Rejected", Badge: BadgeDestructive, Description: "Rejected; a new cycle may be started if cycles remain"},
	StatusCancelled:               {Label: "Cancelled", Badge: BadgeDestructive, Description: "Cancelled before completion"},
	StatusForked:                  {Label: "Forked", Badge: BadgeOutline, Description: "Split into child negotiations"},
	StatusExpired:                 {Label: "Expired", Badge: BadgeDestructive, Description: "Validity period elapsed before a decision"},
	StatusPendingApproval:         {Label: "Pending Approval", Badge: BadgeDefault, Description: "Awaiting internal commercial review"},
	StatusPendingDirectorApproval: {Label: "Pending Director Approval", Badge: BadgeWarning, Description: "High value, awaiting director sign-off"},
}

// AllStatuses returns the closed set of known statuses.
func AllStatuses() []Status {
	return []Status{
		StatusDraft, StatusSubmitted, StatusPending, StatusApproved,
		StatusComplete, StatusPartiallyComplete, StatusPartiallyApproved,
		StatusRejected, StatusCancelled, StatusForked, StatusExpired,
		StatusPendingApproval, StatusPendingDirectorApproval,
	}
}

// Known reports whether s is one of the closed status set.
func (s Status) Known() bool {
	_, ok := statusInfo[s]
	return ok
}

// Vocabulary returns display metadata for a status. It is total: a status the
// server added after this client was built degrades to the raw code with a
// secondary badge instead of failing.
func Vocabulary(s Status) StatusInfo {
	if info, ok := statusInfo[s]; ok {
		return info
	}
	return StatusInfo{Label: string(s), Badge: BadgeSecondary, Description: string(s)}
}
