// Package entity manages the counterparties negotiations are held with:
// health plans, clinics and professionals, discriminated by workflow.Kind.
package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/pkg/workflow"
)

// Entity maps to the entities table.
type Entity struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	Kind      workflow.Kind `db:"kind" json:"kind"`
	Name      string        `db:"name" json:"name"`
	Document  string        `db:"document" json:"document"`
	Email     *string       `db:"email" json:"email,omitempty"`
	Active    bool          `db:"active" json:"active"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
