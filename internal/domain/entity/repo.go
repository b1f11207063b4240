package entity

import (
	"context"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/pkg/workflow"
)

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	Kind   workflow.Kind
	Search string
	Active *bool
}

type Repository interface {
	Create(ctx context.Context, e *Entity) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entity, error)
	Update(ctx context.Context, e *Entity) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Entity, int, error)
	ExistsActive(ctx context.Context, kind workflow.Kind, id uuid.UUID) (bool, error)
}
