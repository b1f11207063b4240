package workflow

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies the type of counterparty a negotiation is with.
type Kind string

const (
	KindHealthPlan   Kind = "health_plan"
	KindClinic       Kind = "clinic"
	KindProfessional Kind = "professional"
)

// Legacy wire discriminators. Stored rows and older clients still use the
// fully qualified model names, so both forms are accepted on input.
const (
	WireHealthPlan   = `App\Models\HealthPlan`
	WireClinic       = `App\Models\Clinic`
	WireProfessional = `App\Models\Professional`
)

var kindByWire = map[string]Kind{
	WireHealthPlan:           KindHealthPlan,
	WireClinic:               KindClinic,
	WireProfessional:         KindProfessional,
	string(KindHealthPlan):   KindHealthPlan,
	string(KindClinic):       KindClinic,
	string(KindProfessional): KindProfessional,
}

// ParseKind converts a wire discriminator (either the short form or the
// legacy fully qualified form) to a Kind.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindByWire[s]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown negotiable type %q", s)
}

// Wire returns the legacy wire discriminator for the kind.
func (k Kind) Wire() string {
	switch k {
	case KindHealthPlan:
		return WireHealthPlan
	case KindClinic:
		return WireClinic
	case KindProfessional:
		return WireProfessional
	}
	return string(k)
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindHealthPlan, KindClinic, KindProfessional:
		return true
	}
	return false
}

// Negotiable is the tagged counterparty reference of a negotiation. The
// original data model carried a stringly-typed (type, id) pair; the tagged
// form rules out typo'd discriminators at the boundary.
type Negotiable struct {
	Kind Kind      `json:"kind"`
	ID   uuid.UUID `json:"id"`
}
