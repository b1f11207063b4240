package negotiation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/saluscare/negotiation-api/internal/platform/auth"
	"github.com/saluscare/negotiation-api/pkg/pagination"
	"github.com/saluscare/negotiation-api/pkg/workflow"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/negotiations", h.List)
	api.GET("/negotiations/:id", h.Get)
	api.GET("/negotiation-statuses", h.ListStatuses)

	// Drafting and platform-side workflow moves are staff operations.
	staff := api.Group("", auth.RequireRole("super_admin", "commercial_manager", "director"))
	staff.POST("/negotiations", h.Create)
	staff.PUT("/negotiations/:id", h.Update)
	staff.POST("/negotiations/:id/items", h.AddItem)
	staff.PUT("/negotiations/:id/items/:item_id", h.UpdateItem)
	staff.DELETE("/negotiations/:id/items/:item_id", h.RemoveItem)
	staff.POST("/negotiations/:id/submit-for-approval", h.SubmitForApproval)
	staff.POST("/negotiations/:id/cancel", h.Cancel)
	staff.POST("/negotiations/:id/mark-complete", h.MarkComplete)
	staff.POST("/negotiations/:id/mark-partially-complete", h.MarkPartiallyComplete)
	staff.POST("/negotiations/:id/new-cycle", h.NewCycle)
	staff.POST("/negotiations/:id/fork", h.Fork)
	staff.POST("/negotiations/:id/process-approval", h.ProcessApproval)

	// The counterparty decision; fine-grained entity matching happens in the
	// service via the approval predicates.
	api.POST("/negotiations/:id/process-external-approval", h.ProcessExternalApproval)
}

// userFromContext builds the workflow actor from the auth claims.
func userFromContext(c echo.Context) *workflow.User {
	ctx := c.Request().Context()
	u := &workflow.User{ID: auth.UserIDFromContext(ctx)}
	for _, r := range auth.RolesFromContext(ctx) {
		u.Roles = append(u.Roles, workflow.Role(r))
	}
	kind, id := auth.EntityFromContext(ctx)
	if kind != "" {
		if k, err := workflow.ParseKind(kind); err == nil {
			u.EntityKind = k
		}
	}
	if id != "" {
		if parsed, err := uuid.Parse(id); err == nil {
			u.EntityID = parsed
		}
	}
	return u
}

// httpError maps domain errors to HTTP status codes.
func httpError(err error) error {
	var te *TransitionError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "negotiation not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.As(err, &te):
		return echo.NewHTTPError(http.StatusConflict, map[string]interface{}{
			"error": te.Error(),
			"from":  te.From,
			"to":    te.To,
		})
	case errors.Is(err, ErrIllegalTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrInvalidPlan):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		Status:     c.QueryParam("status"),
		EntityType: c.QueryParam("entity_type"),
		Search:     c.QueryParam("search"),
	}
	if s := c.QueryParam("negotiable_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid negotiable_id")
		}
		f.NegotiableID = id
	}
	if s := c.QueryParam("parent_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid parent_id")
		}
		f.ParentID = id
	}

	items, total, err := h.svc.List(c.Request().Context(), userFromContext(c), f, pg.Limit(), pg.Offset())
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Negotiation{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

// ListStatuses exposes the status vocabulary so clients can render badges
// for statuses they were not built with.
func (h *Handler) ListStatuses(c echo.Context) error {
	type entry struct {
		Status workflow.Status     `json:"status"`
		Info   workflow.StatusInfo `json:"info"`
	}
	all := workflow.AllStatuses()
	out := make([]entry, len(all))
	for i, s := range all {
		out[i] = entry{Status: s, Info: workflow.Vocabulary(s)}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.Create(c.Request().Context(), userFromContext(c), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.svc.Get(c.Request().Context(), userFromContext(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.Update(c.Request().Context(), userFromContext(c), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) AddItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in ItemInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.AddItem(c.Request().Context(), userFromContext(c), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "item_id")
	if err != nil {
		return err
	}
	var in ItemInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.UpdateItem(c.Request().Context(), userFromContext(c), id, itemID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) RemoveItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "item_id")
	if err != nil {
		return err
	}
	if err := h.svc.RemoveItem(c.Request().Context(), userFromContext(c), id, itemID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// action wraps the no-payload workflow moves.
func (h *Handler) action(c echo.Context, fn func(c echo.Context, id uuid.UUID) (*Negotiation, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	n, err := fn(c, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) SubmitForApproval(c echo.Context) error {
	return h.action(c, func(c echo.Context, id uuid.UUID) (*Negotiation, error) {
		return h.svc.SubmitForApproval(c.Request().Context(), userFromContext(c), id)
	})
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.action(c, func(c echo.Context, id uuid.UUID) (*Negotiation, error) {
		return h.svc.Cancel(c.Request().Context(), userFromContext(c), id)
	})
}

func (h *Handler) MarkComplete(c echo.Context) error {
	return h.action(c, func(c echo.Context, id uuid.UUID) (*Negotiation, error) {
		return h.svc.MarkComplete(c.Request().Context(), userFromContext(c), id)
	})
}

func (h *Handler) MarkPartiallyComplete(c echo.Context) error {
	return h.action(c, func(c echo.Context, id uuid.UUID) (*Negotiation, error) {
		return h.svc.MarkPartiallyComplete(c.Request().Context(), userFromContext(c), id)
	})
}

func (h *Handler) NewCycle(c echo.Context) error {
	return h.action(c, func(c echo.Context, id uuid.UUID) (*Negotiation, error) {
		return h.svc.NewCycle(c.Request().Context(), userFromContext(c), id)
	})
}

func (h *Handler) Fork(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var plan workflow.Plan
	if err := c.Bind(&plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	parent, children, err := h.svc.Fork(c.Request().Context(), userFromContext(c), id, plan)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"parent":   parent,
		"children": children,
	})
}

func (h *Handler) ProcessApproval(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in ApprovalInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.ProcessApproval(c.Request().Context(), userFromContext(c), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ProcessExternalApproval(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in ExternalApprovalInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.ProcessExternalApproval(c.Request().Context(), userFromContext(c), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}
