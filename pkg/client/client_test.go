package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/pkg/workflow"
)

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
}

func TestCancel_ReturnsServerResource(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/negotiations/"+id.String()+"/cancel" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Negotiation{ID: id, Status: workflow.StatusCancelled})
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetryPolicy(fastRetry()))
	n, err := c.Cancel(context.Background(), id)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if n.Status != workflow.StatusCancelled {
		t.Errorf("expected cancelled, got %s", n.Status)
	}
}

func TestRetry_OnGatewayErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Negotiation{Status: workflow.StatusDraft})
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetryPolicy(fastRetry()))
	if _, err := c.Get(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestNoRetry_OnConflict(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "illegal status transition"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetryPolicy(fastRetry()))
	_, err := c.Cancel(context.Background(), uuid.New())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", apiErr.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected a single attempt for 409, got %d", got)
	}
}

func TestRetry_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, WithRetryPolicy(RetryPolicy{
		MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second,
	}))
	_, err := c.Get(ctx, uuid.New())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestList_PassesPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("per_page") != "15" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(Page{
			Data: []Negotiation{{Status: workflow.StatusDraft}},
			Meta: Meta{CurrentPage: 2, LastPage: 3, PerPage: 15, Total: 45},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetryPolicy(fastRetry()))
	page, err := c.List(context.Background(), ListParams{Page: 2, PerPage: 15})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Meta.CurrentPage != 2 || page.Meta.LastPage != 3 || page.Meta.Total != 45 {
		t.Errorf("unexpected meta %+v", page.Meta)
	}
}

func TestFork_RefusesInvalidPlanLocally(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetryPolicy(fastRetry()))
	plan := workflow.NewPlan()
	_, err := c.Fork(context.Background(), uuid.New(), plan)
	if !errors.Is(err, workflow.ErrInvalidPlan) {
		t.Fatalf("expected invalid plan error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("expected no request for an invalid plan")
	}
}

func TestFork_SubmitsValidPlan(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var plan workflow.Plan
		if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
			t.Errorf("decode plan: %v", err)
		}
		if len(plan.Groups) != 2 {
			t.Errorf("expected 2 groups, got %d", len(plan.Groups))
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(ForkResult{
			Parent:   Negotiation{ID: id, Status: workflow.StatusForked},
			Children: []Negotiation{{Status: workflow.StatusDraft}, {Status: workflow.StatusDraft}},
		})
	}))
	defer srv.Close()

	plan := &workflow.Plan{Groups: []workflow.Group{
		{Name: "Consultas", Items: []uuid.UUID{uuid.New()}},
		{Name: "Exames", Items: []uuid.UUID{uuid.New()}},
	}}
	c := New(srv.URL, WithRetryPolicy(fastRetry()))
	result, err := c.Fork(context.Background(), id, plan)
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if result.Parent.Status != workflow.StatusForked {
		t.Errorf("expected forked parent, got %s", result.Parent.Status)
	}
	if len(result.Children) != 2 {
		t.Errorf("expected 2 children, got %d", len(result.Children))
	}
}

func TestApproveAllAtProposed(t *testing.T) {
	id := uuid.New()
	itemID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(Negotiation{
				ID:     id,
				Status: workflow.StatusPending,
				Items:  []Item{{ID: itemID, ProposedValue: 150}},
			})
		case r.Method == http.MethodPost:
			var in struct {
				Approved      bool           `json:"approved"`
				ApprovedItems []ApprovedItem `json:"approved_items"`
			}
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				t.Errorf("decode: %v", err)
			}
			if !in.Approved || len(in.ApprovedItems) != 1 ||
				in.ApprovedItems[0].ItemID != itemID || in.ApprovedItems[0].ApprovedValue != 150 {
				t.Errorf("unexpected payload %+v", in)
			}
			json.NewEncoder(w).Encode(Negotiation{ID: id, Status: workflow.StatusApproved})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetryPolicy(fastRetry()))
	n, err := c.ApproveAllAtProposed(context.Background(), id, "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if n.Status != workflow.StatusApproved {
		t.Errorf("expected approved, got %s", n.Status)
	}
}

func TestAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(Page{})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok-123"), WithRetryPolicy(fastRetry()))
	if _, err := c.List(context.Background(), ListParams{}); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestStatusInfo_UnknownStatusDegrades(t *testing.T) {
	n := &Negotiation{Status: "under_review"}
	info := n.StatusInfo()
	if info.Label != "under_review" {
		t.Errorf("expected raw label for unknown status, got %q", info.Label)
	}
}
