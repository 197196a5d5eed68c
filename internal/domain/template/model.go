package template

import (
	"time"

	"github.com/google/uuid"
)

// NoteTemplate maps to the note_templates table. The smart_phrases,
// dot_phrases and smart_lists columns cache the Epic tokens referenced by
// the template content so generation prompts can list them without
// re-scanning the text.
type NoteTemplate struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   *string   `db:"description" json:"description,omitempty"`
	EMRType       string    `db:"emr_type" json:"emr_type"`
	EncounterType *string   `db:"encounter_type" json:"encounter_type,omitempty"`
	Content       string    `db:"content" json:"content"`
	SmartPhrases  []string  `db:"smart_phrases" json:"smart_phrases"`
	DotPhrases    []string  `db:"dot_phrases" json:"dot_phrases"`
	SmartLists    []string  `db:"smart_lists" json:"smart_lists"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedBy     *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// EpicCompatible reports whether the template targets the Epic EMR.
func (t *NoteTemplate) EpicCompatible() bool {
	return t.EMRType == "epic"
}

// TokenCount returns the number of distinct Epic tokens the template
// references.
func (t *NoteTemplate) TokenCount() int {
	return len(t.SmartPhrases) + len(t.DotPhrases) + len(t.SmartLists)
}
