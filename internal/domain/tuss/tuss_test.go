package tuss

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type mockRepo struct {
	procedures []*Procedure
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*Procedure, error) {
	for _, p := range m.procedures {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Search(_ context.Context, term string, limit, offset int) ([]*Procedure, int, error) {
	var out []*Procedure
	for _, p := range m.procedures {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Code), strings.ToLower(term)) ||
			strings.Contains(strings.ToLower(p.Description), strings.ToLower(term)) {
			out = append(out, p)
		}
	}
	total := len(out)
	if offset > len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func catalog() *mockRepo {
	return &mockRepo{procedures: []*Procedure{
		{Code: "10101012", Description: "Consulta em consultorio", Chapter: "Consultas"},
		{Code: "40304361", Description: "Hemograma completo", Chapter: "Exames"},
		{Code: "40901123", Description: "Ressonancia magnetica", Chapter: "Exames"},
	}}
}

func TestSearch_TrimsTerm(t *testing.T) {
	svc := NewService(catalog())

	items, total, err := svc.Search(context.Background(), "  hemograma  ", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 match, got %d", total)
	}
	if items[0].Code != "40304361" {
		t.Errorf("unexpected match %s", items[0].Code)
	}
}

func TestSearch_ByCode(t *testing.T) {
	svc := NewService(catalog())

	items, _, err := svc.Search(context.Background(), "10101", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Code != "10101012" {
		t.Errorf("expected code match, got %v", items)
	}
}

func TestHandler_Search(t *testing.T) {
	h := NewHandler(NewService(catalog()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/tuss?search=consulta", nil)
	rec := httptest.NewRecorder()
	if err := h.Search(e.NewContext(req, rec)); err != nil {
		t.Fatalf("search: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data []Procedure `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Meta.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("expected 1 match, got total %d with %d rows", resp.Meta.Total, len(resp.Data))
	}
	if resp.Data[0].Code != "10101012" {
		t.Errorf("unexpected match %s", resp.Data[0].Code)
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	h := NewHandler(NewService(catalog()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/tuss/99999999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("code")
	c.SetParamValues("99999999")

	err := h.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}
