package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Page != 1 {
		t.Errorf("expected page 1, got %d", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Errorf("expected per_page %d, got %d", DefaultPerPage, p.PerPage)
	}
}

func TestFromContext_Clamping(t *testing.T) {
	p := paramsFor(t, "page=-3&per_page=5000")
	if p.Page != 1 {
		t.Errorf("negative page should clamp to 1, got %d", p.Page)
	}
	if p.PerPage != MaxPerPage {
		t.Errorf("oversized per_page should clamp to %d, got %d", MaxPerPage, p.PerPage)
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, PerPage: 10}
	if p.Offset() != 20 {
		t.Errorf("expected offset 20, got %d", p.Offset())
	}
}

func TestNewResponse_Meta(t *testing.T) {
	resp := NewResponse([]int{1, 2, 3}, 25, Params{Page: 1, PerPage: 10})
	if resp.Meta.CurrentPage != 1 {
		t.Errorf("expected current_page 1, got %d", resp.Meta.CurrentPage)
	}
	if resp.Meta.LastPage != 3 {
		t.Errorf("expected last_page 3, got %d", resp.Meta.LastPage)
	}
	if resp.Meta.Total != 25 {
		t.Errorf("expected total 25, got %d", resp.Meta.Total)
	}
	if resp.Meta.HasPrevious() {
		t.Error("first page should have no previous")
	}
	if !resp.Meta.HasNext() {
		t.Error("page 1 of 3 should have next")
	}
}

func TestNewResponse_EmptySet(t *testing.T) {
	resp := NewResponse(nil, 0, Params{Page: 1, PerPage: 10})
	if resp.Meta.LastPage != 1 {
		t.Errorf("empty set should report last_page 1, got %d", resp.Meta.LastPage)
	}
	if resp.Meta.HasNext() {
		t.Error("empty set should have no next page")
	}
}
