// Package audit keeps the append-only trail of workflow mutations: who did
// what to which negotiation, and which status edge was walked.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/internal/platform/middleware"
	"github.com/saluscare/negotiation-api/pkg/workflow"
)

// Entry maps to the audit_logs table.
type Entry struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	Action        string          `db:"action" json:"action"`
	NegotiationID uuid.UUID       `db:"negotiation_id" json:"negotiation_id"`
	FromStatus    workflow.Status `db:"from_status" json:"from_status,omitempty"`
	ToStatus      workflow.Status `db:"to_status" json:"to_status,omitempty"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
	RequestID     string          `db:"request_id" json:"request_id,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	NegotiationID uuid.UUID
	UserID        string
	Action        string
}

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one entry. Satisfies the negotiation service's Recorder, so
// entries written inside a workflow transaction share it through the context.
func (s *Service) Record(ctx context.Context, userID, action string, negotiationID uuid.UUID, from, to workflow.Status, notes string) error {
	return s.repo.Insert(ctx, &Entry{
		UserID:        userID,
		Action:        action,
		NegotiationID: negotiationID,
		FromStatus:    from,
		ToStatus:      to,
		Notes:         notes,
		RequestID:     middleware.RequestIDFromContext(ctx),
	})
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}
