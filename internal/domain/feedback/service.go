package feedback

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// NoteChecker verifies that the reviewed note exists.
type NoteChecker interface {
	NoteExists(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo  Repository
	notes NoteChecker
}

func NewService(repo Repository, notes NoteChecker) *Service {
	return &Service{repo: repo, notes: notes}
}

func (s *Service) CreateFeedback(ctx context.Context, f *NoteFeedback) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if s.notes != nil {
		if err := s.notes.NoteExists(ctx, f.NoteID); err != nil {
			return fmt.Errorf("note not found: %w", err)
		}
	}
	if f.Categories == nil {
		f.Categories = []string{}
	}
	return s.repo.Create(ctx, f)
}

func (s *Service) ListFeedbackByNote(ctx context.Context, noteID uuid.UUID) ([]*NoteFeedback, error) {
	return s.repo.ListByNote(ctx, noteID)
}

func (s *Service) ListFeedback(ctx context.Context, limit, offset int) ([]*NoteFeedback, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) FeedbackAnalytics(ctx context.Context) (*Analytics, error) {
	return s.repo.Analytics(ctx)
}
