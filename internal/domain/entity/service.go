package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/pkg/workflow"
)

var ErrNotFound = errors.New("entity not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput is the counterparty registration payload.
type CreateInput struct {
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Document string  `json:"document"`
	Email    *string `json:"email,omitempty"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Entity, error) {
	kind, err := workflow.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Document == "" {
		return nil, fmt.Errorf("document is required")
	}

	e := &Entity{
		Kind:     kind,
		Name:     in.Name,
		Document: in.Document,
		Email:    in.Email,
		Active:   true,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entity, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateInput carries the editable counterparty fields.
type UpdateInput struct {
	Name     *string `json:"name,omitempty"`
	Document *string `json:"document,omitempty"`
	Email    *string `json:"email,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Entity, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("name must not be empty")
		}
		e.Name = *in.Name
	}
	if in.Document != nil {
		e.Document = *in.Document
	}
	if in.Email != nil {
		e.Email = in.Email
	}
	if in.Active != nil {
		e.Active = *in.Active
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Entity, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// ExistsActive is the check the negotiation service runs before accepting a
// counterparty reference.
func (s *Service) ExistsActive(ctx context.Context, kind workflow.Kind, id uuid.UUID) (bool, error) {
	return s.repo.ExistsActive(ctx, kind, id)
}
