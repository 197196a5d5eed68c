package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rufusmd/ai-medical-note-writer/internal/domain/patient"
	"github.com/rufusmd/ai-medical-note-writer/internal/domain/template"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/ai"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/delta"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/epic"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/telemetry"
)

var validEncounterTypes = map[string]bool{
	"office-visit": true,
	"telehealth":   true,
	"emergency":    true,
	"consultation": true,
	"follow-up":    true,
}

// Generator is the slice of the AI manager the generation service uses.
type Generator interface {
	GenerateNote(ctx context.Context, req *ai.GenerationRequest) (*ai.ManagedResponse, error)
	CompareProviders(ctx context.Context, req *ai.GenerationRequest) (*ai.Comparison, error)
}

// PatientDirectory resolves patient records for prompt context.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// TemplateStore resolves note templates for prompt context.
type TemplateStore interface {
	GetTemplate(ctx context.Context, id uuid.UUID) (*template.NoteTemplate, error)
}

type Service struct {
	repo      Repository
	gen       Generator
	patients  PatientDirectory
	templates TemplateStore
	tp        *telemetry.TelemetryProvider
	logger    zerolog.Logger
}

// NewService wires the generation service. tp may be nil when telemetry is
// disabled.
func NewService(repo Repository, gen Generator, patients PatientDirectory, templates TemplateStore,
	tp *telemetry.TelemetryProvider, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		gen:       gen,
		patients:  patients,
		templates: templates,
		tp:        tp,
		logger:    logger.With().Str("component", "notes").Logger(),
	}
}

// -- Transcripts --

func (s *Service) CreateTranscript(ctx context.Context, t *Transcript) error {
	if t.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if t.Content == "" {
		return fmt.Errorf("content is required")
	}
	if t.EncounterType != nil && !validEncounterTypes[*t.EncounterType] {
		return fmt.Errorf("invalid encounter_type: %s", *t.EncounterType)
	}
	if _, err := s.patients.GetPatient(ctx, t.PatientID); err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	return s.repo.CreateTranscript(ctx, t)
}

func (s *Service) GetTranscript(ctx context.Context, id uuid.UUID) (*Transcript, error) {
	return s.repo.GetTranscript(ctx, id)
}

func (s *Service) ListTranscriptsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transcript, int, error) {
	return s.repo.ListTranscriptsByPatient(ctx, patientID, limit, offset)
}

// -- Generation --

// GenerateParams describes one note generation request.
type GenerateParams struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	TranscriptID  *uuid.UUID `json:"transcript_id,omitempty"`
	Transcript    string     `json:"transcript,omitempty"`
	TemplateID    *uuid.UUID `json:"template_id,omitempty"`
	EncounterType string     `json:"encounter_type,omitempty"`
	EMRType       string     `json:"emr_type,omitempty"`
	CreatedBy     *string    `json:"-"`
}

// GenerateResult is the persisted note plus the transient generation detail
// that is not stored on the row.
type GenerateResult struct {
	Note       *GeneratedNote  `json:"note"`
	Validation epic.Validation `json:"validation"`
	Usage      ai.TokenUsage   `json:"usage"`
	Steps      []string        `json:"steps,omitempty"`
}

// GenerateNote resolves the transcript, patient and template context, runs
// the provider manager, and persists the resulting draft with its first
// version.
func (s *Service) GenerateNote(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	transcriptText := params.Transcript
	if params.TranscriptID != nil {
		t, err := s.repo.GetTranscript(ctx, *params.TranscriptID)
		if err != nil {
			return nil, fmt.Errorf("transcript not found: %w", err)
		}
		transcriptText = t.Content
		if params.PatientID == uuid.Nil {
			params.PatientID = t.PatientID
		}
	}
	if transcriptText == "" {
		return nil, fmt.Errorf("transcript is required")
	}
	if params.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if params.EncounterType != "" && !validEncounterTypes[params.EncounterType] {
		return nil, fmt.Errorf("invalid encounter_type: %s", params.EncounterType)
	}

	req := &ai.GenerationRequest{
		Transcript: transcriptText,
		EMRType:    params.EMRType,
	}
	if req.EMRType == "" {
		req.EMRType = "epic"
	}

	p, err := s.patients.GetPatient(ctx, params.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}
	pc := &ai.PatientContext{
		Name:          p.Name,
		EncounterType: params.EncounterType,
	}
	if age := p.Age(time.Now()); age >= 0 {
		pc.Age = age
	}
	if p.Gender != nil {
		pc.Gender = *p.Gender
	}
	req.Patient = pc

	if params.TemplateID != nil {
		tpl, err := s.templates.GetTemplate(ctx, *params.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("template not found: %w", err)
		}
		req.Template = &ai.TemplateContext{Name: tpl.Name, Content: tpl.Content}
	}

	start := time.Now()
	resp, err := s.gen.GenerateNote(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		s.countGeneration("none", "error")
		s.logger.Error().Err(err).Str("code", string(ai.CodeOf(err))).Msg("note generation failed")
		return nil, err
	}

	outcome := "success"
	if resp.FallbackUsed {
		outcome = "fallback"
	}
	s.countGeneration(resp.Provider, outcome)
	if s.tp != nil {
		s.tp.ObserveGenerationDuration(resp.Provider, elapsed.Seconds())
	}

	ms := elapsed.Milliseconds()
	note := &GeneratedNote{
		PatientID:         params.PatientID,
		TranscriptID:      params.TranscriptID,
		TemplateID:        params.TemplateID,
		Content:           resp.Content,
		Provider:          resp.Provider,
		QualityScore:      &resp.QualityScore,
		PreservationScore: &resp.Validation.PreservationScore,
		FallbackUsed:      resp.FallbackUsed,
		Status:            StatusDraft,
		GenerationMs:      &ms,
		CreatedBy:         params.CreatedBy,
	}
	if resp.Model != "" {
		note.Model = &resp.Model
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("persist note: %w", err)
	}
	if err := s.repo.CreateVersion(ctx, &NoteVersion{
		NoteID:    note.ID,
		Version:   1,
		Content:   resp.Content,
		CreatedBy: params.CreatedBy,
	}); err != nil {
		return nil, fmt.Errorf("persist initial version: %w", err)
	}
	s.refreshNotesGauge(ctx)

	s.logger.Info().
		Str("note_id", note.ID.String()).
		Str("provider", resp.Provider).
		Float64("quality", resp.QualityScore).
		Bool("fallback", resp.FallbackUsed).
		Dur("elapsed", elapsed).
		Msg("note generated")

	return &GenerateResult{
		Note:       note,
		Validation: resp.Validation,
		Usage:      resp.Usage,
		Steps:      resp.Steps,
	}, nil
}

// CompareProviders runs both providers against the same request and returns
// the side-by-side result.
func (s *Service) CompareProviders(ctx context.Context, params GenerateParams) (*ai.Comparison, error) {
	transcriptText := params.Transcript
	if params.TranscriptID != nil {
		t, err := s.repo.GetTranscript(ctx, *params.TranscriptID)
		if err != nil {
			return nil, fmt.Errorf("transcript not found: %w", err)
		}
		transcriptText = t.Content
	}
	if transcriptText == "" {
		return nil, fmt.Errorf("transcript is required")
	}
	req := &ai.GenerationRequest{Transcript: transcriptText, EMRType: params.EMRType}
	if req.EMRType == "" {
		req.EMRType = "epic"
	}
	return s.gen.CompareProviders(ctx, req)
}

// -- Notes --

func (s *Service) GetNote(ctx context.Context, id uuid.UUID) (*GeneratedNote, error) {
	return s.repo.GetNote(ctx, id)
}

// NoteExists reports whether a generated note exists. Satisfies the
// feedback service's note checker.
func (s *Service) NoteExists(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.GetNote(ctx, id)
	return err
}

func (s *Service) ListNotes(ctx context.Context, limit, offset int) ([]*GeneratedNote, int, error) {
	return s.repo.ListNotes(ctx, limit, offset)
}

func (s *Service) ListNotesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*GeneratedNote, int, error) {
	return s.repo.ListNotesByPatient(ctx, patientID, limit, offset)
}

func (s *Service) FinalizeNote(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.GetNote(ctx, id)
	if err != nil {
		return fmt.Errorf("note not found: %w", err)
	}
	if !n.IsDraft() {
		return fmt.Errorf("only draft notes can be finalized")
	}
	return s.repo.SetNoteStatus(ctx, id, StatusFinal)
}

// -- Edits and versions --

// SaveEditsParams carries one flushed edit session plus the resulting text.
type SaveEditsParams struct {
	Content       string           `json:"content"`
	ChangeSummary *string          `json:"change_summary,omitempty"`
	Session       *delta.Session   `json:"session,omitempty"`
	Analytics     *delta.Analytics `json:"analytics,omitempty"`
	CreatedBy     *string          `json:"-"`
}

// SaveEdits writes a new note version and records the edit session that
// produced it. The note content is updated to the new version's text.
func (s *Service) SaveEdits(ctx context.Context, noteID uuid.UUID, params SaveEditsParams) (*NoteVersion, error) {
	if params.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	n, err := s.repo.GetNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("note not found: %w", err)
	}
	if !n.IsDraft() {
		return nil, fmt.Errorf("note %s is %s and cannot be edited", noteID, n.Status)
	}

	latest, err := s.repo.LatestVersion(ctx, noteID)
	if err != nil {
		return nil, err
	}
	v := &NoteVersion{
		NoteID:        noteID,
		Version:       latest + 1,
		Content:       params.Content,
		ChangeSummary: params.ChangeSummary,
		CreatedBy:     params.CreatedBy,
	}
	if err := s.repo.CreateVersion(ctx, v); err != nil {
		return nil, fmt.Errorf("persist version: %w", err)
	}
	if err := s.repo.UpdateNoteContent(ctx, noteID, params.Content); err != nil {
		return nil, fmt.Errorf("update note content: %w", err)
	}

	if params.Session != nil && len(params.Session.Changes) > 0 {
		sess := &EditSession{
			NoteID:    noteID,
			StartedAt: params.Session.StartTime,
			Changes:   params.Session.Changes,
			Analytics: params.Analytics,
			CreatedBy: params.CreatedBy,
		}
		if !params.Session.EndTime.IsZero() {
			end := params.Session.EndTime
			sess.EndedAt = &end
		}
		if err := s.repo.CreateEditSession(ctx, sess); err != nil {
			return nil, fmt.Errorf("persist edit session: %w", err)
		}
	}
	return v, nil
}

func (s *Service) ListVersions(ctx context.Context, noteID uuid.UUID) ([]*NoteVersion, error) {
	return s.repo.ListVersions(ctx, noteID)
}

func (s *Service) ListEditSessions(ctx context.Context, noteID uuid.UUID) ([]*EditSession, error) {
	return s.repo.ListEditSessions(ctx, noteID)
}

func (s *Service) countGeneration(provider, outcome string) {
	if s.tp != nil {
		s.tp.GenerationCounter(provider, outcome)
	}
}

func (s *Service) refreshNotesGauge(ctx context.Context) {
	if s.tp == nil {
		return
	}
	if n, err := s.repo.CountNotes(ctx); err == nil {
		s.tp.HealthMetrics().SetNotesTotal(n)
	}
}
