package workflow

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidPlan is wrapped by every Plan validation failure.
var ErrInvalidPlan = errors.New("invalid fork plan")

// Group is one named bucket of item ids inside a fork plan.
type Group struct {
	Name  string      `json:"name"`
	Items []uuid.UUID `json:"items"`
}

// Plan partitions a negotiation's items into named groups, each of which
// becomes a child negotiation. The plan maintains the invariant that an item
// belongs to at most one group. Coverage of the full item set is NOT
// required: items left out of every group stay behind on the parent.
type Plan struct {
	Groups []Group `json:"groups"`
}

// NewPlan returns a plan with two empty, unnamed groups, matching the state
// the fork dialog opens with.
func NewPlan() *Plan {
	return &Plan{Groups: []Group{{}, {}}}
}

// AddGroup appends an empty group with the given name.
func (p *Plan) AddGroup(name string) {
	p.Groups = append(p.Groups, Group{Name: name})
}

// RenameGroup replaces the name of the group at index i.
func (p *Plan) RenameGroup(i int, name string) error {
	if i < 0 || i >= len(p.Groups) {
		return fmt.Errorf("%w: no group at index %d", ErrInvalidPlan, i)
	}
	p.Groups[i].Name = name
	return nil
}

// AssignItem places an item in the group at index i, removing it from any
// group it was in first. Moving an item between groups silently reassigns
// rather than erroring.
func (p *Plan) AssignItem(i int, item uuid.UUID) error {
	if i < 0 || i >= len(p.Groups) {
		return fmt.Errorf("%w: no group at index %d", ErrInvalidPlan, i)
	}
	p.RemoveItem(item)
	p.Groups[i].Items = append(p.Groups[i].Items, item)
	return nil
}

// RemoveItem drops the item from every group it appears in.
func (p *Plan) RemoveItem(item uuid.UUID) {
	for gi := range p.Groups {
		items := p.Groups[gi].Items
		for ii, have := range items {
			if have == item {
				p.Groups[gi].Items = append(items[:ii], items[ii+1:]...)
				break
			}
		}
	}
}

// Validate is the submit guard: at least two groups, every group named,
// every group holding at least one item, and no item in two groups.
func (p *Plan) Validate() error {
	if len(p.Groups) < 2 {
		return fmt.Errorf("%w: at least two groups are required", ErrInvalidPlan)
	}
	seen := make(map[uuid.UUID]string)
	for _, g := range p.Groups {
		if g.Name == "" {
			return fmt.Errorf("%w: every group needs a name", ErrInvalidPlan)
		}
		if len(g.Items) == 0 {
			return fmt.Errorf("%w: group %q has no items", ErrInvalidPlan, g.Name)
		}
		for _, item := range g.Items {
			if prev, dup := seen[item]; dup {
				return fmt.Errorf("%w: item %s is in both %q and %q", ErrInvalidPlan, item, prev, g.Name)
			}
			seen[item] = g.Name
		}
	}
	return nil
}

// Uncovered returns, in order, the items from all that no group claims.
// Callers that care about full coverage can refuse to submit when this is
// non-empty; the server accepts partial coverage and leaves these on the
// parent.
func (p *Plan) Uncovered(all []uuid.UUID) []uuid.UUID {
	covered := make(map[uuid.UUID]bool)
	for _, g := range p.Groups {
		for _, item := range g.Items {
			covered[item] = true
		}
	}
	var out []uuid.UUID
	for _, item := range all {
		if !covered[item] {
			out = append(out, item)
		}
	}
	return out
}
