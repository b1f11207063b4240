package client

import "testing"

func TestSearchGuard_StaleGeneration(t *testing.T) {
	var g SearchGuard

	first := g.Next()
	second := g.Next()

	if g.Current(first) {
		t.Error("expected first generation to be stale")
	}
	if !g.Current(second) {
		t.Error("expected second generation to be current")
	}
}

func TestSearchGuard_Search(t *testing.T) {
	var g SearchGuard

	// A search with no overlap stays current.
	current, err := g.Search(func() error { return nil })
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !current {
		t.Error("expected result to be current")
	}

	// A search overtaken mid-flight reports stale.
	current, _ = g.Search(func() error {
		g.Next()
		return nil
	})
	if current {
		t.Error("expected overtaken search to report stale")
	}
}
