// Package negotiation implements the negotiation lifecycle: drafting,
// internal and counterparty approval, renegotiation cycles, forking and
// expiry. Status legality and approval permissions come from pkg/workflow;
// this package owns persistence and the operations exposed over HTTP.
package negotiation

import (
	"time"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/pkg/workflow"
)

// Item statuses. counter_offered marks an item the counterparty approved at
// a value different from the proposed one.
const (
	ItemStatusPending        = "pending"
	ItemStatusApproved       = "approved"
	ItemStatusRejected       = "rejected"
	ItemStatusCounterOffered = "counter_offered"
)

// Negotiation maps to the negotiations table.
type Negotiation struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	NegotiableType      string          `db:"negotiable_type" json:"negotiable_type"`
	NegotiableID        uuid.UUID       `db:"negotiable_id" json:"negotiable_id"`
	Status              workflow.Status `db:"status" json:"status"`
	Title               string          `db:"title" json:"title"`
	NegotiationCycle    int             `db:"negotiation_cycle" json:"negotiation_cycle"`
	MaxCyclesAllowed    int             `db:"max_cycles_allowed" json:"max_cycles_allowed"`
	IsFork              bool            `db:"is_fork" json:"is_fork"`
	ForkCount           int             `db:"fork_count" json:"fork_count"`
	ParentNegotiationID *uuid.UUID      `db:"parent_negotiation_id" json:"parent_negotiation_id,omitempty"`
	ValidUntil          *time.Time      `db:"valid_until" json:"valid_until,omitempty"`
	ApprovalNotes       *string         `db:"approval_notes" json:"approval_notes,omitempty"`
	ApprovedAt          *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy          *string         `db:"approved_by" json:"approved_by,omitempty"`
	CreatedBy           string          `db:"created_by" json:"created_by"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`

	Items []*Item `db:"-" json:"items,omitempty"`

	// Advisory flags for the caller, filled on read. Buttons, not guards:
	// the service re-checks everything on write.
	CanEdit              bool `db:"-" json:"can_edit"`
	CanSubmitForApproval bool `db:"-" json:"can_submit_for_approval"`
	CanApprove           bool `db:"-" json:"can_approve"`
}

// Item maps to the negotiation_items table.
type Item struct {
	ID              uuid.UUID `db:"id" json:"id"`
	NegotiationID   uuid.UUID `db:"negotiation_id" json:"negotiation_id"`
	TUSSCode        string    `db:"tuss_code" json:"tuss_code"`
	TUSSDescription string    `db:"tuss_description" json:"tuss_description"`
	ProposedValue   float64   `db:"proposed_value" json:"proposed_value"`
	ApprovedValue   *float64  `db:"approved_value" json:"approved_value,omitempty"`
	Status          string    `db:"status" json:"status"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Negotiable returns the tagged counterparty reference. Rows store the
// legacy fully qualified discriminator, so the kind goes through ParseKind.
func (n *Negotiation) Negotiable() workflow.Negotiable {
	kind, err := workflow.ParseKind(n.NegotiableType)
	if err != nil {
		return workflow.Negotiable{ID: n.NegotiableID}
	}
	return workflow.Negotiable{Kind: kind, ID: n.NegotiableID}
}

// TotalProposedValue sums the proposed values of all items. The director
// sign-off threshold is evaluated against this.
func (n *Negotiation) TotalProposedValue() float64 {
	var total float64
	for _, it := range n.Items {
		total += it.ProposedValue
	}
	return total
}

// ItemIDs returns the ids of all items in order.
func (n *Negotiation) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(n.Items))
	for i, it := range n.Items {
		ids[i] = it.ID
	}
	return ids
}

// Item returns the item with the given id, or nil.
func (n *Negotiation) Item(id uuid.UUID) *Item {
	for _, it := range n.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// awaitingInternal reports whether the negotiation sits at the internal
// review stage. pending_approval is the legacy spelling of submitted.
func (n *Negotiation) awaitingInternal() bool {
	return n.Status == workflow.StatusSubmitted || n.Status == workflow.StatusPendingApproval
}

// ApplyFlags fills the advisory flags for the given caller.
func (n *Negotiation) ApplyFlags(u *workflow.User) {
	n.CanEdit = n.Status == workflow.StatusDraft
	n.CanSubmitForApproval = n.Status == workflow.StatusDraft && len(n.Items) > 0

	switch {
	case n.awaitingInternal():
		n.CanApprove = workflow.CanApproveInternally(u)
	case n.Status == workflow.StatusPendingDirectorApproval:
		n.CanApprove = workflow.CanDirectorApprove(u)
	case n.Status == workflow.StatusPending:
		n.CanApprove = workflow.CanApproveExternally(u, n.Negotiable())
	default:
		n.CanApprove = false
	}
}
