// Package tuss serves the TUSS procedure catalog (the Brazilian standard
// terminology for healthcare procedures) that negotiation items reference.
package tuss

import (
	"context"
	"strings"
)

// Procedure is one catalog row, keyed by its TUSS code.
type Procedure struct {
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
	Chapter     string `db:"chapter" json:"chapter"`
}

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Procedure, error)
	Search(ctx context.Context, term string, limit, offset int) ([]*Procedure, int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, code string) (*Procedure, error) {
	return s.repo.GetByCode(ctx, code)
}

// Search matches the term against codes and descriptions. The term is
// trimmed; an empty term lists the catalog.
func (s *Service) Search(ctx context.Context, term string, limit, offset int) ([]*Procedure, int, error) {
	return s.repo.Search(ctx, strings.TrimSpace(term), limit, offset)
}
