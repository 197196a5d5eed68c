package notes

import (
	"time"

	"github.com/google/uuid"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/delta"
)

// Transcript maps to the transcripts table. Transcripts are immutable once
// recorded; corrections happen by recording a new transcript.
type Transcript struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	Content       string     `db:"content" json:"content"`
	EncounterType *string    `db:"encounter_type" json:"encounter_type,omitempty"`
	RecordedAt    *time.Time `db:"recorded_at" json:"recorded_at,omitempty"`
	CreatedBy     *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Note statuses.
const (
	StatusDraft    = "draft"
	StatusFinal    = "final"
	StatusArchived = "archived"
)

// GeneratedNote maps to the generated_notes table.
type GeneratedNote struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	TranscriptID      *uuid.UUID `db:"transcript_id" json:"transcript_id,omitempty"`
	TemplateID        *uuid.UUID `db:"template_id" json:"template_id,omitempty"`
	Content           string     `db:"content" json:"content"`
	Provider          string     `db:"provider" json:"provider"`
	Model             *string    `db:"model" json:"model,omitempty"`
	QualityScore      *float64   `db:"quality_score" json:"quality_score,omitempty"`
	PreservationScore *float64   `db:"preservation_score" json:"preservation_score,omitempty"`
	FallbackUsed      bool       `db:"fallback_used" json:"fallback_used"`
	Status            string     `db:"status" json:"status"`
	GenerationMs      *int64     `db:"generation_ms" json:"generation_ms,omitempty"`
	CreatedBy         *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// IsDraft reports whether the note can still be edited.
func (n *GeneratedNote) IsDraft() bool {
	return n.Status == StatusDraft
}

// NoteVersion maps to the note_versions table. Version 1 is the generated
// text as the provider returned it; later versions capture clinician edits.
type NoteVersion struct {
	ID            uuid.UUID `db:"id" json:"id"`
	NoteID        uuid.UUID `db:"note_id" json:"note_id"`
	Version       int       `db:"version" json:"version"`
	Content       string    `db:"content" json:"content"`
	ChangeSummary *string   `db:"change_summary" json:"change_summary,omitempty"`
	CreatedBy     *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// EditSession maps to the edit_sessions table. Changes and analytics are
// stored as JSONB snapshots of the delta tracker's session output.
type EditSession struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	NoteID    uuid.UUID        `db:"note_id" json:"note_id"`
	StartedAt time.Time        `db:"started_at" json:"started_at"`
	EndedAt   *time.Time       `db:"ended_at" json:"ended_at,omitempty"`
	Changes   []delta.Change   `db:"changes" json:"changes"`
	Analytics *delta.Analytics `db:"analytics" json:"analytics,omitempty"`
	CreatedBy *string          `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
