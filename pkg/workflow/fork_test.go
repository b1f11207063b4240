package workflow

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewPlan_TwoEmptyGroups(t *testing.T) {
	p := NewPlan()
	if len(p.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(p.Groups))
	}
	for i, g := range p.Groups {
		if g.Name != "" || len(g.Items) != 0 {
			t.Errorf("group %d should start empty", i)
		}
	}
}

func TestAssignItem_MovesBetweenGroups(t *testing.T) {
	p := NewPlan()
	item := uuid.New()

	if err := p.AssignItem(0, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.AssignItem(1, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.Groups[0].Items) != 0 {
		t.Errorf("item should have left group 0, still has %d items", len(p.Groups[0].Items))
	}
	if len(p.Groups[1].Items) != 1 || p.Groups[1].Items[0] != item {
		t.Error("item should be in group 1 exactly once")
	}
}

func TestAssignItem_BadIndex(t *testing.T) {
	p := NewPlan()
	if err := p.AssignItem(5, uuid.New()); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestValidate_SubmitGuard(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	// Unnamed group blocks submission.
	p := &Plan{Groups: []Group{
		{Name: "A", Items: []uuid.UUID{a}},
		{Name: "", Items: []uuid.UUID{b}},
	}}
	if err := p.Validate(); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("empty name should block submission, got %v", err)
	}

	// Empty group blocks submission.
	p = &Plan{Groups: []Group{
		{Name: "A", Items: []uuid.UUID{a}},
		{Name: "B"},
	}}
	if err := p.Validate(); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("empty group should block submission, got %v", err)
	}

	// Fewer than two groups blocks submission.
	p = &Plan{Groups: []Group{{Name: "A", Items: []uuid.UUID{a}}}}
	if err := p.Validate(); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("single group should block submission, got %v", err)
	}

	// An item claimed by two groups blocks submission.
	p = &Plan{Groups: []Group{
		{Name: "A", Items: []uuid.UUID{a}},
		{Name: "B", Items: []uuid.UUID{a}},
	}}
	if err := p.Validate(); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("duplicated item should block submission, got %v", err)
	}

	p = &Plan{Groups: []Group{
		{Name: "A", Items: []uuid.UUID{a}},
		{Name: "B", Items: []uuid.UUID{b}},
	}}
	if err := p.Validate(); err != nil {
		t.Errorf("well-formed plan should validate, got %v", err)
	}
}

// Partial coverage is accepted as-is: the legacy behavior leaves unassigned
// items on the parent rather than requiring the groups to cover everything.
func TestValidate_PartialCoverageAccepted(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	p := &Plan{Groups: []Group{
		{Name: "A", Items: []uuid.UUID{a}},
		{Name: "B", Items: []uuid.UUID{b}},
	}}
	if err := p.Validate(); err != nil {
		t.Fatalf("partial coverage must validate, got %v", err)
	}
	left := p.Uncovered([]uuid.UUID{a, b, c})
	if len(left) != 1 || left[0] != c {
		t.Errorf("expected only %s uncovered, got %v", c, left)
	}
}

func TestRenameGroup(t *testing.T) {
	p := NewPlan()
	if err := p.RenameGroup(0, "Imaging"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Groups[0].Name != "Imaging" {
		t.Errorf("expected rename to stick, got %q", p.Groups[0].Name)
	}
	if err := p.RenameGroup(-1, "x"); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("expected ErrInvalidPlan for bad index, got %v", err)
	}
}
