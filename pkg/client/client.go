// Package client is the Go client for the negotiation API. Every workflow
// action performs exactly one request and returns the decoded fresh resource;
// nothing is patched locally, so callers always see the server's view.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saluscare/negotiation-api/pkg/workflow"
)

const defaultTimeout = 15 * time.Second

// Client talks to one negotiation API instance.
type Client struct {
	baseURL   string
	token     string
	transport *transport
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRetryPolicy overrides the default retry behaviour.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.transport.policy = p }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.transport.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		transport: newTransport(defaultTimeout, DefaultRetryPolicy()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Negotiation mirrors the server resource.
type Negotiation struct {
	ID                   uuid.UUID       `json:"id"`
	NegotiableType       string          `json:"negotiable_type"`
	NegotiableID         uuid.UUID       `json:"negotiable_id"`
	Status               workflow.Status `json:"status"`
	Title                string          `json:"title"`
	NegotiationCycle     int             `json:"negotiation_cycle"`
	MaxCyclesAllowed     int             `json:"max_cycles_allowed"`
	IsFork               bool            `json:"is_fork"`
	ForkCount            int             `json:"fork_count"`
	ParentNegotiationID  *uuid.UUID      `json:"parent_negotiation_id,omitempty"`
	ValidUntil           *time.Time      `json:"valid_until,omitempty"`
	ApprovalNotes        *string         `json:"approval_notes,omitempty"`
	Items                []Item          `json:"items,omitempty"`
	CanEdit              bool            `json:"can_edit"`
	CanSubmitForApproval bool            `json:"can_submit_for_approval"`
	CanApprove           bool            `json:"can_approve"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// StatusInfo returns the display metadata for the negotiation's status,
// degrading gracefully for statuses this client predates.
func (n *Negotiation) StatusInfo() workflow.StatusInfo {
	return workflow.Vocabulary(n.Status)
}

// Item mirrors the server's negotiation item.
type Item struct {
	ID              uuid.UUID `json:"id"`
	NegotiationID   uuid.UUID `json:"negotiation_id"`
	TUSSCode        string    `json:"tuss_code"`
	TUSSDescription string    `json:"tuss_description"`
	ProposedValue   float64   `json:"proposed_value"`
	ApprovedValue   *float64  `json:"approved_value,omitempty"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
}

// Meta is the list envelope's pagination block.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Page is one page of negotiations.
type Page struct {
	Data []Negotiation `json:"data"`
	Meta Meta          `json:"meta"`
}

// ListParams narrow List.
type ListParams struct {
	Status     string
	EntityType string
	Search     string
	Page       int
	PerPage    int
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	headers := make(http.Header)
	headers.Set("Accept", "application/json")
	if c.token != "" {
		headers.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
		headers.Set("Content-Type", "application/json")
	}

	resp, err := c.transport.do(ctx, method, c.baseURL+path, payload, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readErrorMessage(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readErrorMessage(r io.Reader) string {
	var body struct {
		Message interface{} `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != nil {
		return fmt.Sprintf("%v", body.Message)
	}
	return string(raw)
}

// List fetches one page of negotiations.
func (c *Client) List(ctx context.Context, p ListParams) (*Page, error) {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.EntityType != "" {
		q.Set("entity_type", p.EntityType)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	path := "/negotiations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page Page
	if err := c.request(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches one negotiation with its items.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	var n Negotiation
	if err := c.request(ctx, http.MethodGet, "/negotiations/"+id.String(), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) action(ctx context.Context, id uuid.UUID, name string, body interface{}) (*Negotiation, error) {
	var n Negotiation
	if err := c.request(ctx, http.MethodPost, "/negotiations/"+id.String()+"/"+name, body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// SubmitForApproval moves a draft into internal review.
func (c *Client) SubmitForApproval(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	return c.action(ctx, id, "submit-for-approval", nil)
}

// Cancel cancels the negotiation.
func (c *Client) Cancel(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	return c.action(ctx, id, "cancel", nil)
}

// MarkComplete closes a fully approved negotiation.
func (c *Client) MarkComplete(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	return c.action(ctx, id, "mark-complete", nil)
}

// MarkPartiallyComplete closes a partially approved negotiation.
func (c *Client) MarkPartiallyComplete(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	return c.action(ctx, id, "mark-partially-complete", nil)
}

// NewCycle reopens the negotiation for another round.
func (c *Client) NewCycle(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	return c.action(ctx, id, "new-cycle", nil)
}

// ProcessApproval records the internal decision.
func (c *Client) ProcessApproval(ctx context.Context, id uuid.UUID, approved bool, notes string) (*Negotiation, error) {
	return c.action(ctx, id, "process-approval", map[string]interface{}{
		"approved":       approved,
		"approval_notes": notes,
	})
}

// ApprovedItem is one item decision in an external approval.
type ApprovedItem struct {
	ItemID        uuid.UUID `json:"item_id"`
	ApprovedValue float64   `json:"approved_value"`
}

// ProcessExternalApproval records the counterparty decision.
func (c *Client) ProcessExternalApproval(ctx context.Context, id uuid.UUID, approved bool, notes string, items []ApprovedItem) (*Negotiation, error) {
	return c.action(ctx, id, "process-external-approval", map[string]interface{}{
		"approved":       approved,
		"approval_notes": notes,
		"approved_items": items,
	})
}

// ApproveAllAtProposed is the common full-acceptance shortcut: it fetches the
// negotiation and approves every item at its proposed value.
func (c *Client) ApproveAllAtProposed(ctx context.Context, id uuid.UUID, notes string) (*Negotiation, error) {
	n, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	items := make([]ApprovedItem, len(n.Items))
	for i, it := range n.Items {
		items[i] = ApprovedItem{ItemID: it.ID, ApprovedValue: it.ProposedValue}
	}
	return c.ProcessExternalApproval(ctx, id, true, notes, items)
}

// ForkResult is the fork response: the forked parent and its children.
type ForkResult struct {
	Parent   Negotiation   `json:"parent"`
	Children []Negotiation `json:"children"`
}

// Fork submits a fork plan. An invalid plan is refused locally before any
// request is made.
func (c *Client) Fork(ctx context.Context, id uuid.UUID, plan *workflow.Plan) (*ForkResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	var result ForkResult
	if err := c.request(ctx, http.MethodPost, "/negotiations/"+id.String()+"/fork", plan, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
