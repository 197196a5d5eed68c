package feedback

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, f *NoteFeedback) error
	ListByNote(ctx context.Context, noteID uuid.UUID) ([]*NoteFeedback, error)
	List(ctx context.Context, limit, offset int) ([]*NoteFeedback, int, error)
	Analytics(ctx context.Context) (*Analytics, error)
}
