package feedback

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Quality issue categories a reviewer can tag on a note.
var validCategories = []interface{}{
	"missing_detail",
	"hallucinated_detail",
	"wrong_section",
	"broken_epic_syntax",
	"tone",
	"formatting",
	"other",
}

// NoteFeedback maps to the note_feedback table. One row per review of a
// generated note; the aggregate feeds provider prompt tuning.
type NoteFeedback struct {
	ID         uuid.UUID `db:"id" json:"id"`
	NoteID     uuid.UUID `db:"note_id" json:"note_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	Categories []string  `db:"categories" json:"categories"`
	CreatedBy  *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Validate enforces the review shape: rating 1..5 and known categories.
func (f *NoteFeedback) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.NoteID, validation.Required, validation.By(notNilUUID)),
		validation.Field(&f.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&f.Categories, validation.Each(validation.In(validCategories...))),
	)
}

func notNilUUID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}

// ProviderStats is one row of the per-provider feedback aggregate.
type ProviderStats struct {
	Provider    string  `json:"provider"`
	ReviewCount int     `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// CategoryCount is one row of the issue-frequency aggregate.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Analytics is the feedback summary used for prompt tuning.
type Analytics struct {
	ByProvider []ProviderStats `json:"by_provider"`
	ByCategory []CategoryCount `json:"by_category"`
}
