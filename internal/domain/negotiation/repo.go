package negotiation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	Status       string
	EntityType   string
	NegotiableID uuid.UUID
	Search       string
	ParentID     uuid.UUID
	IsFork       *bool
}

type Repository interface {
	Create(ctx context.Context, n *Negotiation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Negotiation, error)
	Update(ctx context.Context, n *Negotiation) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Negotiation, int, error)

	// Items
	AddItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	GetItems(ctx context.Context, negotiationID uuid.UUID) ([]*Item, error)

	// ExpireOverdue moves every negotiation still awaiting a decision whose
	// valid_until is before now to expired. Returns the ids it touched.
	ExpireOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
