package audit

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/saluscare/negotiation-api/internal/platform/auth"
	"github.com/saluscare/negotiation-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/audit-logs", h.List,
		auth.RequireRole("super_admin", "commercial_manager", "director"))
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		UserID: c.QueryParam("user_id"),
		Action: c.QueryParam("action"),
	}
	if s := c.QueryParam("negotiation_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid negotiation_id")
		}
		f.NegotiationID = id
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit(), pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
