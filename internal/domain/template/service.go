package template

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/epic"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validEMRTypes = map[string]bool{
	"epic":     true,
	"credible": true,
}

func (s *Service) CreateTemplate(ctx context.Context, t *NoteTemplate) error {
	if err := s.validate(t); err != nil {
		return err
	}
	t.IsActive = true
	s.extractTokens(t)
	return s.repo.Create(ctx, t)
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*NoteTemplate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateTemplate(ctx context.Context, t *NoteTemplate) error {
	if err := s.validate(t); err != nil {
		return err
	}
	s.extractTokens(t)
	return s.repo.Update(ctx, t)
}

func (s *Service) DeactivateTemplate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("template not found: %w", err)
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) ListTemplates(ctx context.Context, includeInactive bool, limit, offset int) ([]*NoteTemplate, int, error) {
	return s.repo.List(ctx, includeInactive, limit, offset)
}

func (s *Service) ListTemplatesByEMRType(ctx context.Context, emrType string, limit, offset int) ([]*NoteTemplate, int, error) {
	if !validEMRTypes[emrType] {
		return nil, 0, fmt.Errorf("invalid emr_type: %s", emrType)
	}
	return s.repo.ListByEMRType(ctx, emrType, limit, offset)
}

func (s *Service) validate(t *NoteTemplate) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.Content == "" {
		return fmt.Errorf("content is required")
	}
	if t.EMRType == "" {
		t.EMRType = "epic"
	}
	if !validEMRTypes[t.EMRType] {
		return fmt.Errorf("invalid emr_type: %s", t.EMRType)
	}
	return nil
}

// extractTokens records which Epic tokens the template content references.
// The cached lists feed generation prompts and preservation checks.
func (s *Service) extractTokens(t *NoteTemplate) {
	t.SmartPhrases, t.DotPhrases = epic.ExtractTokens(t.Content)
	t.SmartLists = epic.Validate(t.Content).SmartLists.Found
	if t.SmartPhrases == nil {
		t.SmartPhrases = []string{}
	}
	if t.DotPhrases == nil {
		t.DotPhrases = []string{}
	}
	if t.SmartLists == nil {
		t.SmartLists = []string{}
	}
}
