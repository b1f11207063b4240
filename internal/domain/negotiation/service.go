package negotiation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/pkg/workflow"
)

var (
	ErrNotFound          = errors.New("negotiation not found")
	ErrForbidden         = errors.New("not allowed")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// TransitionError carries the offending edge so handlers can report it.
type TransitionError struct {
	From, To workflow.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// EntityChecker verifies the counterparty a negotiation points at.
type EntityChecker interface {
	ExistsActive(ctx context.Context, kind workflow.Kind, id uuid.UUID) (bool, error)
}

// Recorder appends one audit entry per workflow mutation. Implemented by the
// audit package; declared here so the dependency points outward.
type Recorder interface {
	Record(ctx context.Context, userID, action string, negotiationID uuid.UUID, from, to workflow.Status, notes string) error
}

// Policy holds the tunables the config layer feeds in.
type Policy struct {
	// DirectorThreshold is the total proposed value at or above which the
	// internal approval routes through director sign-off.
	DirectorThreshold float64
	// DefaultMaxCycles is assigned to negotiations created without an
	// explicit max_cycles_allowed.
	DefaultMaxCycles int
	// TTL is how long a submitted negotiation stays decidable.
	TTL time.Duration
}

// TxFunc runs fn transactionally; repository calls made inside fn share the
// transaction. Tests substitute a pass-through.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo     Repository
	entities EntityChecker
	audit    Recorder
	policy   Policy
	inTx     TxFunc
	now      func() time.Time
}

func NewService(repo Repository, entities EntityChecker, audit Recorder, policy Policy, inTx TxFunc) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		repo:     repo,
		entities: entities,
		audit:    audit,
		policy:   policy,
		inTx:     inTx,
		now:      time.Now,
	}
}

// CreateInput is the create-draft payload.
type CreateInput struct {
	NegotiableType   string      `json:"negotiable_type"`
	NegotiableID     uuid.UUID   `json:"negotiable_id"`
	Title            string      `json:"title"`
	MaxCyclesAllowed int         `json:"max_cycles_allowed"`
	Items            []ItemInput `json:"items"`
}

// ItemInput is a single procedure line on create or item add.
type ItemInput struct {
	TUSSCode        string  `json:"tuss_code"`
	TUSSDescription string  `json:"tuss_description"`
	ProposedValue   float64 `json:"proposed_value"`
	Notes           *string `json:"notes,omitempty"`
}

func (in *ItemInput) validate() error {
	if in.TUSSCode == "" {
		return fmt.Errorf("tuss_code is required")
	}
	if in.ProposedValue < 0 {
		return fmt.Errorf("proposed_value must not be negative")
	}
	return nil
}

// Create stores a new draft negotiation for an existing, active counterparty.
func (s *Service) Create(ctx context.Context, u *workflow.User, in CreateInput) (*Negotiation, error) {
	kind, err := workflow.ParseKind(in.NegotiableType)
	if err != nil {
		return nil, err
	}
	if in.NegotiableID == uuid.Nil {
		return nil, fmt.Errorf("negotiable_id is required")
	}
	if in.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	for i := range in.Items {
		if err := in.Items[i].validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	ok, err := s.entities.ExistsActive(ctx, kind, in.NegotiableID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s %s does not exist or is inactive", kind, in.NegotiableID)
	}

	maxCycles := in.MaxCyclesAllowed
	if maxCycles <= 0 {
		maxCycles = s.policy.DefaultMaxCycles
	}

	n := &Negotiation{
		NegotiableType:   kind.Wire(),
		NegotiableID:     in.NegotiableID,
		Status:           workflow.StatusDraft,
		Title:            in.Title,
		NegotiationCycle: 1,
		MaxCyclesAllowed: maxCycles,
		CreatedBy:        u.ID,
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, n); err != nil {
			return err
		}
		for _, item := range in.Items {
			it := &Item{
				NegotiationID:   n.ID,
				TUSSCode:        item.TUSSCode,
				TUSSDescription: item.TUSSDescription,
				ProposedValue:   item.ProposedValue,
				Status:          ItemStatusPending,
				Notes:           item.Notes,
			}
			if err := s.repo.AddItem(ctx, it); err != nil {
				return err
			}
			n.Items = append(n.Items, it)
		}
		return s.record(ctx, u, "create", n.ID, "", workflow.StatusDraft, "")
	})
	if err != nil {
		return nil, err
	}
	n.ApplyFlags(u)
	return n, nil
}

// Get loads a negotiation with its items and the caller's advisory flags.
func (s *Service) Get(ctx context.Context, u *workflow.User, id uuid.UUID) (*Negotiation, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	n.ApplyFlags(u)
	return n, nil
}

// UpdateInput carries the draft-editable fields.
type UpdateInput struct {
	Title            *string `json:"title,omitempty"`
	MaxCyclesAllowed *int    `json:"max_cycles_allowed,omitempty"`
}

// Update edits a draft negotiation's header fields.
func (s *Service) Update(ctx context.Context, u *workflow.User, id uuid.UUID, in UpdateInput) (*Negotiation, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != workflow.StatusDraft {
		return nil, fmt.Errorf("only draft negotiations can be edited: %w",
			&TransitionError{From: n.Status, To: n.Status})
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("title must not be empty")
		}
		n.Title = *in.Title
	}
	if in.MaxCyclesAllowed != nil {
		if *in.MaxCyclesAllowed < n.NegotiationCycle {
			return nil, fmt.Errorf("max_cycles_allowed must not be below the current cycle")
		}
		n.MaxCyclesAllowed = *in.MaxCyclesAllowed
	}
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	n.ApplyFlags(u)
	return n, nil
}

// List returns negotiations matching the filter plus the total count.
func (s *Service) List(ctx context.Context, u *workflow.User, f Filter, limit, offset int) ([]*Negotiation, int, error) {
	items, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, n := range items {
		n.ApplyFlags(u)
	}
	return items, total, nil
}

// AddItem appends a procedure line to a draft negotiation.
func (s *Service) AddItem(ctx context.Context, u *workflow.User, id uuid.UUID, in ItemInput) (*Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != workflow.StatusDraft {
		return nil, fmt.Errorf("items can only be added to drafts: %w",
			&TransitionError{From: n.Status, To: n.Status})
	}
	it := &Item{
		NegotiationID:   n.ID,
		TUSSCode:        in.TUSSCode,
		TUSSDescription: in.TUSSDescription,
		ProposedValue:   in.ProposedValue,
		Status:          ItemStatusPending,
		Notes:           in.Notes,
	}
	if err := s.repo.AddItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// UpdateItem edits a procedure line on a draft negotiation.
func (s *Service) UpdateItem(ctx context.Context, u *workflow.User, id, itemID uuid.UUID, in ItemInput) (*Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != workflow.StatusDraft {
		return nil, fmt.Errorf("items can only be edited on drafts: %w",
			&TransitionError{From: n.Status, To: n.Status})
	}
	it := n.Item(itemID)
	if it == nil {
		return nil, ErrNotFound
	}
	it.TUSSCode = in.TUSSCode
	it.TUSSDescription = in.TUSSDescription
	it.ProposedValue = in.ProposedValue
	it.Notes = in.Notes
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// RemoveItem deletes a procedure line from a draft negotiation.
func (s *Service) RemoveItem(ctx context.Context, u *workflow.User, id, itemID uuid.UUID) error {
	n, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if n.Status != workflow.StatusDraft {
		return fmt.Errorf("items can only be removed from drafts: %w",
			&TransitionError{From: n.Status, To: n.Status})
	}
	if n.Item(itemID) == nil {
		return ErrNotFound
	}
	return s.repo.DeleteItem(ctx, itemID)
}

// SubmitForApproval moves a draft with at least one item to submitted and
// starts its validity clock.
func (s *Service) SubmitForApproval(ctx context.Context, u *workflow.User, id uuid.UUID) (*Negotiation, error) {
	return s.transition(ctx, u, id, "submit_for_approval", func(n *Negotiation) (workflow.Status, error) {
		if len(n.Items) == 0 {
			return "", fmt.Errorf("a negotiation needs at least one item before submission")
		}
		validUntil := s.now().Add(s.policy.TTL)
		n.ValidUntil = &validUntil
		return workflow.StatusSubmitted, nil
	})
}

// Cancel moves the negotiation to cancelled from any status that allows it.
func (s *Service) Cancel(ctx context.Context, u *workflow.User, id uuid.UUID) (*Negotiation, error) {
	return s.transition(ctx, u, id, "cancel", func(n *Negotiation) (workflow.Status, error) {
		return workflow.StatusCancelled, nil
	})
}

// MarkComplete closes a fully approved negotiation.
func (s *Service) MarkComplete(ctx context.Context, u *workflow.User, id uuid.UUID) (*Negotiation, error) {
	return s.transition(ctx, u, id, "mark_complete", func(n *Negotiation) (workflow.Status, error) {
		return workflow.StatusComplete, nil
	})
}

// MarkPartiallyComplete closes a partially approved negotiation, accepting
// the subset the counterparty agreed to.
func (s *Service) MarkPartiallyComplete(ctx context.Context, u *workflow.User, id uuid.UUID) (*Negotiation, error) {
	return s.transition(ctx, u, id, "mark_partially_complete", func(n *Negotiation) (workflow.Status, error) {
		return workflow.StatusPartiallyComplete, nil
	})
}

// NewCycle reopens a rejected or partially approved negotiation as a draft
// for another round, while rounds remain.
func (s *Service) NewCycle(ctx context.Context, u *workflow.User, id uuid.UUID) (*Negotiation, error) {
	return s.transition(ctx, u, id, "new_cycle", func(n *Negotiation) (workflow.Status, error) {
		if n.NegotiationCycle >= n.MaxCyclesAllowed {
			return "", fmt.Errorf("negotiation cycle limit reached (%d of %d)",
				n.NegotiationCycle, n.MaxCyclesAllowed)
		}
		n.NegotiationCycle++
		n.ValidUntil = nil
		n.ApprovalNotes = nil
		n.ApprovedAt = nil
		n.ApprovedBy = nil
		for _, it := range n.Items {
			it.Status = ItemStatusPending
			it.ApprovedValue = nil
		}
		return workflow.StatusDraft, nil
	})
}

// ApprovalInput is the internal approval decision payload.
type ApprovalInput struct {
	Approved      bool   `json:"approved"`
	ApprovalNotes string `json:"approval_notes"`
}

// ProcessApproval records the internal (platform-side) decision. Totals at
// or above the director threshold route through director sign-off first,
// unless the approver can already clear that stage.
func (s *Service) ProcessApproval(ctx context.Context, u *workflow.User, id uuid.UUID, in ApprovalInput) (*Negotiation, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case n.awaitingInternal():
		if !workflow.CanApproveInternally(u) {
			return nil, fmt.Errorf("internal approval: %w", ErrForbidden)
		}
	case n.Status == workflow.StatusPendingDirectorApproval:
		if !workflow.CanDirectorApprove(u) {
			return nil, fmt.Errorf("director approval: %w", ErrForbidden)
		}
	default:
		return nil, &TransitionError{From: n.Status, To: workflow.StatusPending}
	}

	var to workflow.Status
	if !in.Approved {
		to = workflow.StatusRejected
	} else if n.awaitingInternal() &&
		n.TotalProposedValue() >= s.policy.DirectorThreshold &&
		!workflow.CanDirectorApprove(u) {
		to = workflow.StatusPendingDirectorApproval
	} else {
		to = workflow.StatusPending
	}

	return s.applyDecision(ctx, u, n, "process_approval", to, in.ApprovalNotes, nil)
}

// ExternalApprovedItem is one item decision inside an external approval.
type ExternalApprovedItem struct {
	ItemID        uuid.UUID `json:"item_id"`
	ApprovedValue float64   `json:"approved_value"`
}

// ExternalApprovalInput is the counterparty decision payload.
type ExternalApprovalInput struct {
	Approved      bool                   `json:"approved"`
	ApprovalNotes string                 `json:"approval_notes"`
	ApprovedItems []ExternalApprovedItem `json:"approved_items"`
}

// ProcessExternalApproval records the counterparty's decision. Approving
// every item at its proposed value yields approved; anything less, a strict
// subset or changed values, yields partially_approved. Items absent from the
// decision are rejected.
func (s *Service) ProcessExternalApproval(ctx context.Context, u *workflow.User, id uuid.UUID, in ExternalApprovalInput) (*Negotiation, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanApproveExternally(u, n.Negotiable()) {
		return nil, fmt.Errorf("external approval: %w", ErrForbidden)
	}
	if n.Status != workflow.StatusPending {
		return nil, &TransitionError{From: n.Status, To: workflow.StatusApproved}
	}

	if !in.Approved {
		for _, it := range n.Items {
			it.Status = ItemStatusRejected
			it.ApprovedValue = nil
		}
		return s.applyDecision(ctx, u, n, "process_external_approval",
			workflow.StatusRejected, in.ApprovalNotes, n.Items)
	}

	if len(in.ApprovedItems) == 0 {
		return nil, fmt.Errorf("an approval needs at least one approved item")
	}

	decisions := make(map[uuid.UUID]float64, len(in.ApprovedItems))
	for _, d := range in.ApprovedItems {
		if n.Item(d.ItemID) == nil {
			return nil, fmt.Errorf("item %s does not belong to this negotiation", d.ItemID)
		}
		if d.ApprovedValue < 0 {
			return nil, fmt.Errorf("approved_value must not be negative")
		}
		decisions[d.ItemID] = d.ApprovedValue
	}

	allAtProposed := true
	for _, it := range n.Items {
		value, ok := decisions[it.ID]
		switch {
		case !ok:
			it.Status = ItemStatusRejected
			it.ApprovedValue = nil
			allAtProposed = false
		case value == it.ProposedValue:
			it.Status = ItemStatusApproved
			v := value
			it.ApprovedValue = &v
		default:
			it.Status = ItemStatusCounterOffered
			v := value
			it.ApprovedValue = &v
			allAtProposed = false
		}
	}

	to := workflow.StatusPartiallyApproved
	if allAtProposed {
		to = workflow.StatusApproved
	}
	return s.applyDecision(ctx, u, n, "process_external_approval", to, in.ApprovalNotes, n.Items)
}

// Fork splits a negotiation's items into child negotiations per the plan.
// Items no group claims stay on the parent; the parent becomes forked.
func (s *Service) Fork(ctx context.Context, u *workflow.User, id uuid.UUID, plan workflow.Plan) (*Negotiation, []*Negotiation, error) {
	if err := plan.Validate(); err != nil {
		return nil, nil, err
	}
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !workflow.CanTransition(n.Status, workflow.StatusForked) {
		return nil, nil, &TransitionError{From: n.Status, To: workflow.StatusForked}
	}
	for _, g := range plan.Groups {
		for _, itemID := range g.Items {
			if n.Item(itemID) == nil {
				return nil, nil, fmt.Errorf("%w: item %s does not belong to this negotiation",
					workflow.ErrInvalidPlan, itemID)
			}
		}
	}

	from := n.Status
	var children []*Negotiation
	err = s.inTx(ctx, func(ctx context.Context) error {
		for _, g := range plan.Groups {
			child := &Negotiation{
				NegotiableType:      n.NegotiableType,
				NegotiableID:        n.NegotiableID,
				Status:              workflow.StatusDraft,
				Title:               fmt.Sprintf("%s - %s", n.Title, g.Name),
				NegotiationCycle:    1,
				MaxCyclesAllowed:    n.MaxCyclesAllowed,
				IsFork:              true,
				ParentNegotiationID: &n.ID,
				CreatedBy:           u.ID,
			}
			if err := s.repo.Create(ctx, child); err != nil {
				return err
			}
			for _, itemID := range g.Items {
				src := n.Item(itemID)
				it := &Item{
					NegotiationID:   child.ID,
					TUSSCode:        src.TUSSCode,
					TUSSDescription: src.TUSSDescription,
					ProposedValue:   src.ProposedValue,
					Status:          ItemStatusPending,
					Notes:           src.Notes,
				}
				if err := s.repo.AddItem(ctx, it); err != nil {
					return err
				}
				child.Items = append(child.Items, it)
			}
			children = append(children, child)
		}

		n.Status = workflow.StatusForked
		n.ForkCount = len(plan.Groups)
		if err := s.repo.Update(ctx, n); err != nil {
			return err
		}
		return s.record(ctx, u, "fork", n.ID, from, workflow.StatusForked,
			fmt.Sprintf("split into %d negotiations", len(plan.Groups)))
	})
	if err != nil {
		return nil, nil, err
	}

	n.ApplyFlags(u)
	for _, child := range children {
		child.ApplyFlags(u)
	}
	return n, children, nil
}

// ExpireOverdue sweeps negotiations whose validity lapsed into expired. Run
// from the serve ticker and the expire subcommand.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	var ids []uuid.UUID
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		ids, err = s.repo.ExpireOverdue(ctx, s.now())
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := s.record(ctx, nil, "expire", id, "", workflow.StatusExpired, "validity elapsed"); err != nil {
				return err
			}
		}
		return nil
	})
	return len(ids), err
}

// transition runs the common legality-checked single-status move. decide may
// mutate n before the move and names the target status.
func (s *Service) transition(ctx context.Context, u *workflow.User, id uuid.UUID, action string,
	decide func(n *Negotiation) (workflow.Status, error)) (*Negotiation, error) {

	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := n.Status
	to, err := decide(n)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(from, to) {
		return nil, &TransitionError{From: from, To: to}
	}
	n.Status = to

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, n); err != nil {
			return err
		}
		for _, it := range n.Items {
			if err := s.repo.UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		return s.record(ctx, u, action, n.ID, from, to, "")
	})
	if err != nil {
		return nil, err
	}
	n.ApplyFlags(u)
	return n, nil
}

// applyDecision persists an approval outcome: status, notes, approver stamp
// and any item decisions, in one transaction.
func (s *Service) applyDecision(ctx context.Context, u *workflow.User, n *Negotiation, action string,
	to workflow.Status, notes string, items []*Item) (*Negotiation, error) {

	from := n.Status
	if !workflow.CanTransition(from, to) {
		return nil, &TransitionError{From: from, To: to}
	}
	n.Status = to
	if notes != "" {
		n.ApprovalNotes = &notes
	}
	approvedAt := s.now()
	n.ApprovedAt = &approvedAt
	n.ApprovedBy = &u.ID

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, n); err != nil {
			return err
		}
		for _, it := range items {
			if err := s.repo.UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		return s.record(ctx, u, action, n.ID, from, to, notes)
	})
	if err != nil {
		return nil, err
	}
	n.ApplyFlags(u)
	return n, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound
	}
	items, err := s.repo.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Items = items
	return n, nil
}

func (s *Service) record(ctx context.Context, u *workflow.User, action string, id uuid.UUID, from, to workflow.Status, notes string) error {
	if s.audit == nil {
		return nil
	}
	userID := "system"
	if u != nil {
		userID = u.ID
	}
	return s.audit.Record(ctx, userID, action, id, from, to, notes)
}
