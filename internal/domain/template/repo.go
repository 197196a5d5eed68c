package template

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *NoteTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*NoteTemplate, error)
	Update(ctx context.Context, t *NoteTemplate) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, includeInactive bool, limit, offset int) ([]*NoteTemplate, int, error)
	ListByEMRType(ctx context.Context, emrType string, limit, offset int) ([]*NoteTemplate, int, error)
}
