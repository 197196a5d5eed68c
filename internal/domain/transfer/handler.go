package transfer

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/auth"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/sections"
)

type Handler struct {
	orch     *Orchestrator
	detector *sections.Detector
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{orch: orch, detector: sections.NewDetector()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/transfer", auth.RequireRole("admin", "clinician"))
	g.POST("/parse", h.ParseNote)
	g.POST("/configs", h.BuildConfigs)
	g.POST("/generate", h.GenerateUpdate)
	g.GET("/presets", h.ListPresets)
}

type parseRequest struct {
	NoteText string `json:"note_text"`
}

// ParseNote segments a previous note into typed sections for the section
// picker UI.
func (h *Handler) ParseNote(c echo.Context) error {
	var req parseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	parsed := h.detector.Detect(req.NoteText)
	if len(parsed.ParseMetadata.Errors) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, parsed.ParseMetadata.Errors[0])
	}
	return c.JSON(http.StatusOK, parsed)
}

type configsRequest struct {
	NoteText      string `json:"note_text"`
	Preset        string `json:"preset,omitempty"`
	EncounterType string `json:"encounter_type,omitempty"`
}

// BuildConfigs returns per-section update configs from a preset, or from
// the encounter-type defaults when no preset is named. Pure data transform.
func (h *Handler) BuildConfigs(c echo.Context) error {
	var req configsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	parsed := h.detector.Detect(req.NoteText)
	if len(parsed.ParseMetadata.Errors) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, parsed.ParseMetadata.Errors[0])
	}

	if req.Preset == "" {
		return c.JSON(http.StatusOK, DefaultConfigs(parsed, req.EncounterType))
	}
	configs, err := ApplyPreset(parsed, req.Preset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, configs)
}

type generateRequest struct {
	PreviousNote  string                `json:"previous_note"`
	NewTranscript string                `json:"new_transcript"`
	Configs       []SectionUpdateConfig `json:"configs"`
	Context       ClinicalContext       `json:"context"`
}

// GenerateUpdate runs the selective update pipeline.
func (h *Handler) GenerateUpdate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	parsed := h.detector.Detect(req.PreviousNote)
	res, err := h.orch.GenerateUpdate(c.Request().Context(), parsed, req.NewTranscript, req.Configs, req.Context)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"presets": Presets()})
}
