package feedback

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/auth"
	"github.com/rufusmd/ai-medical-note-writer/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/feedback", auth.RequireRole("admin", "clinician"))
	g.POST("", h.CreateFeedback)
	g.GET("", h.ListFeedback)
	g.GET("/analytics", h.FeedbackAnalytics)
}

func (h *Handler) CreateFeedback(c echo.Context) error {
	var f NoteFeedback
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		f.CreatedBy = &uid
	}
	if err := h.svc.CreateFeedback(c.Request().Context(), &f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) ListFeedback(c echo.Context) error {
	if nid := c.QueryParam("note_id"); nid != "" {
		noteID, err := uuid.Parse(nid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid note_id")
		}
		result, err := h.svc.ListFeedbackByNote(c.Request().Context(), noteID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, result)
	}

	pg := pagination.FromContext(c)
	result, total, err := h.svc.ListFeedback(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(result, total, pg.Limit, pg.Offset))
}

func (h *Handler) FeedbackAnalytics(c echo.Context) error {
	a, err := h.svc.FeedbackAnalytics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}
