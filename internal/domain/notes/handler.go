package notes

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/ai"
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
	g := api.Group("/notes", auth.RequireRole("admin", "clinician"))
	g.POST("/generate", h.GenerateNote)
	g.POST("/compare", h.CompareProviders)
	g.GET("", h.ListNotes)
	g.GET("/:id", h.GetNote)
	g.POST("/:id/finalize", h.FinalizeNote)
	g.POST("/:id/versions", h.SaveEdits)
	g.GET("/:id/versions", h.ListVersions)
	g.GET("/:id/sessions", h.ListEditSessions)
	g.POST("/transcripts", h.CreateTranscript)
	g.GET("/transcripts", h.ListTranscripts)
	g.GET("/transcripts/:id", h.GetTranscript)
}

func (h *Handler) GenerateNote(c echo.Context) error {
	var params GenerateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		params.CreatedBy = &uid
	}
	result, err := h.svc.GenerateNote(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(generateErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, result)
}

// generateErrorStatus maps provider failures to 502 and request problems
// to 400.
func generateErrorStatus(err error) int {
	var pe *ai.ProviderError
	if errors.As(err, &pe) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

func (h *Handler) CompareProviders(c echo.Context) error {
	var params GenerateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cmp, err := h.svc.CompareProviders(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(generateErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, cmp)
}

func (h *Handler) ListNotes(c echo.Context) error {
	pg := pagination.FromContext(c)

	if pid := c.QueryParam("patient_id"); pid != "" {
		patientID, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		result, total, err := h.svc.ListNotesByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(result, total, pg.Limit, pg.Offset))
	}

	result, total, err := h.svc.ListNotes(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(result, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.GetNote(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) FinalizeNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.FinalizeNote(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SaveEdits(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var params SaveEditsParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		params.CreatedBy = &uid
	}
	v, err := h.svc.SaveEdits(c.Request().Context(), id, params)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListVersions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	versions, err := h.svc.ListVersions(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, versions)
}

func (h *Handler) ListEditSessions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sessions, err := h.svc.ListEditSessions(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sessions)
}

func (h *Handler) CreateTranscript(c echo.Context) error {
	var t Transcript
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		t.CreatedBy = &uid
	}
	if err := h.svc.CreateTranscript(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTranscripts(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	result, total, err := h.svc.ListTranscriptsByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(result, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetTranscript(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.GetTranscript(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "transcript not found")
	}
	return c.JSON(http.StatusOK, t)
}
