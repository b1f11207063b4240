package negotiation

import (
	"testing"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/pkg/workflow"
)

func TestNegotiable_LegacyDiscriminator(t *testing.T) {
	id := uuid.New()
	n := &Negotiation{NegotiableType: `App\Models\Clinic`, NegotiableID: id}

	got := n.Negotiable()
	if got.Kind != workflow.KindClinic {
		t.Errorf("expected clinic, got %s", got.Kind)
	}
	if got.ID != id {
		t.Errorf("expected id %s, got %s", id, got.ID)
	}
}

func TestTotalProposedValue(t *testing.T) {
	n := &Negotiation{Items: []*Item{
		{ProposedValue: 150.50},
		{ProposedValue: 249.50},
	}}
	if got := n.TotalProposedValue(); got != 400 {
		t.Errorf("expected 400, got %f", got)
	}
}

func TestApplyFlags(t *testing.T) {
	entityID := uuid.New()
	staff := &workflow.User{ID: "s", Roles: []workflow.Role{workflow.RoleCommercialManager}}
	admin := &workflow.User{
		ID:         "p",
		Roles:      []workflow.Role{workflow.RolePlanAdmin},
		EntityKind: workflow.KindHealthPlan,
		EntityID:   entityID,
	}

	cases := []struct {
		name       string
		status     workflow.Status
		user       *workflow.User
		canApprove bool
	}{
		{"staff on submitted", workflow.StatusSubmitted, staff, true},
		{"staff on legacy pending_approval", workflow.StatusPendingApproval, staff, true},
		{"plan admin on submitted", workflow.StatusSubmitted, admin, false},
		{"plan admin on pending", workflow.StatusPending, admin, true},
		{"staff on pending", workflow.StatusPending, staff, false},
		{"staff on director stage", workflow.StatusPendingDirectorApproval, staff, false},
		{"staff on complete", workflow.StatusComplete, staff, false},
	}
	for _, tc := range cases {
		n := &Negotiation{
			NegotiableType: workflow.WireHealthPlan,
			NegotiableID:   entityID,
			Status:         tc.status,
			Items:          []*Item{{ProposedValue: 100}},
		}
		n.ApplyFlags(tc.user)
		if n.CanApprove != tc.canApprove {
			t.Errorf("%s: expected can_approve=%v", tc.name, tc.canApprove)
		}
		if n.CanEdit != (tc.status == workflow.StatusDraft) {
			t.Errorf("%s: unexpected can_edit", tc.name)
		}
	}
}
