package template

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	templates map[uuid.UUID]*NoteTemplate
}

func newMockRepo() *mockRepo {
	return &mockRepo{templates: make(map[uuid.UUID]*NoteTemplate)}
}

func (m *mockRepo) Create(_ context.Context, t *NoteTemplate) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	m.templates[t.ID] = t
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*NoteTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return t, nil
}

func (m *mockRepo) Update(_ context.Context, t *NoteTemplate) error {
	m.templates[t.ID] = t
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	t, ok := m.templates[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	t.IsActive = active
	return nil
}

func (m *mockRepo) List(_ context.Context, includeInactive bool, limit, offset int) ([]*NoteTemplate, int, error) {
	var result []*NoteTemplate
	for _, t := range m.templates {
		if !includeInactive && !t.IsActive {
			continue
		}
		result = append(result, t)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByEMRType(_ context.Context, emrType string, limit, offset int) ([]*NoteTemplate, int, error) {
	var result []*NoteTemplate
	for _, t := range m.templates {
		if t.IsActive && t.EMRType == emrType {
			result = append(result, t)
		}
	}
	return result, len(result), nil
}

// -- Tests --

func newTestService() *Service {
	return NewService(newMockRepo())
}

func TestCreateTemplate(t *testing.T) {
	svc := newTestService()

	tpl := &NoteTemplate{
		Name:    "Psych Intake",
		Content: "CC: @CHIEFCOMPLAINT@\nHPI: ***\nPlan: {Plan Options:12345}\n.psychexam",
	}
	err := svc.CreateTemplate(context.Background(), tpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if !tpl.IsActive {
		t.Error("expected new template to be active")
	}
	if tpl.EMRType != "epic" {
		t.Errorf("expected default emr_type 'epic', got %s", tpl.EMRType)
	}
}

func TestCreateTemplate_ExtractsTokens(t *testing.T) {
	svc := newTestService()

	tpl := &NoteTemplate{
		Name:    "Psych Intake",
		Content: "CC: @CHIEFCOMPLAINT@\nExam: .psychexam\nPlan: {Plan Options:12345}",
	}
	if err := svc.CreateTemplate(context.Background(), tpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tpl.SmartPhrases) != 1 || tpl.SmartPhrases[0] != "@CHIEFCOMPLAINT@" {
		t.Errorf("expected @CHIEFCOMPLAINT@, got %v", tpl.SmartPhrases)
	}
	if len(tpl.DotPhrases) != 1 || tpl.DotPhrases[0] != ".psychexam" {
		t.Errorf("expected .psychexam, got %v", tpl.DotPhrases)
	}
	if len(tpl.SmartLists) != 1 || tpl.SmartLists[0] != "{Plan Options:12345}" {
		t.Errorf("expected {Plan Options:12345}, got %v", tpl.SmartLists)
	}
}

func TestCreateTemplate_NoTokens(t *testing.T) {
	svc := newTestService()

	tpl := &NoteTemplate{Name: "Plain", Content: "Subjective:\nObjective:\nAssessment:\nPlan:"}
	if err := svc.CreateTemplate(context.Background(), tpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Empty slices, not nil: the JSONB columns default to [].
	if tpl.SmartPhrases == nil || tpl.DotPhrases == nil || tpl.SmartLists == nil {
		t.Error("expected empty token slices, got nil")
	}
	if tpl.TokenCount() != 0 {
		t.Errorf("expected 0 tokens, got %d", tpl.TokenCount())
	}
}

func TestCreateTemplate_Validation(t *testing.T) {
	svc := newTestService()

	if err := svc.CreateTemplate(context.Background(), &NoteTemplate{Content: "x"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreateTemplate(context.Background(), &NoteTemplate{Name: "x"}); err == nil {
		t.Error("expected error for missing content")
	}
	if err := svc.CreateTemplate(context.Background(), &NoteTemplate{Name: "x", Content: "y", EMRType: "cerner"}); err == nil {
		t.Error("expected error for unsupported emr_type")
	}
}

func TestUpdateTemplate_ReextractsTokens(t *testing.T) {
	svc := newTestService()

	tpl := &NoteTemplate{Name: "Intake", Content: "CC: @CHIEFCOMPLAINT@"}
	svc.CreateTemplate(context.Background(), tpl)

	tpl.Content = "CC: @CC@\nExam: .exam"
	if err := svc.UpdateTemplate(context.Background(), tpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tpl.SmartPhrases) != 1 || tpl.SmartPhrases[0] != "@CC@" {
		t.Errorf("expected tokens re-extracted, got %v", tpl.SmartPhrases)
	}
	if len(tpl.DotPhrases) != 1 || tpl.DotPhrases[0] != ".exam" {
		t.Errorf("expected .exam, got %v", tpl.DotPhrases)
	}
}

func TestDeactivateTemplate(t *testing.T) {
	svc := newTestService()

	tpl := &NoteTemplate{Name: "Intake", Content: "x"}
	svc.CreateTemplate(context.Background(), tpl)

	if err := svc.DeactivateTemplate(context.Background(), tpl.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, _ := svc.GetTemplate(context.Background(), tpl.ID)
	if fetched.IsActive {
		t.Error("expected template to be inactive")
	}
}

func TestDeactivateTemplate_NotFound(t *testing.T) {
	svc := newTestService()

	if err := svc.DeactivateTemplate(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestListTemplates_ExcludesInactive(t *testing.T) {
	svc := newTestService()

	a := &NoteTemplate{Name: "A", Content: "x"}
	b := &NoteTemplate{Name: "B", Content: "y"}
	svc.CreateTemplate(context.Background(), a)
	svc.CreateTemplate(context.Background(), b)
	svc.DeactivateTemplate(context.Background(), b.ID)

	_, total, err := svc.ListTemplates(context.Background(), false, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 active template, got %d", total)
	}
}

func TestListTemplatesByEMRType(t *testing.T) {
	svc := newTestService()

	svc.CreateTemplate(context.Background(), &NoteTemplate{Name: "A", Content: "x", EMRType: "epic"})
	svc.CreateTemplate(context.Background(), &NoteTemplate{Name: "B", Content: "y", EMRType: "credible"})

	_, total, err := svc.ListTemplatesByEMRType(context.Background(), "credible", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 credible template, got %d", total)
	}

	if _, _, err := svc.ListTemplatesByEMRType(context.Background(), "cerner", 10, 0); err == nil {
		t.Error("expected error for unsupported emr_type")
	}
}

func TestEpicCompatible(t *testing.T) {
	epicTpl := &NoteTemplate{EMRType: "epic"}
	if !epicTpl.EpicCompatible() {
		t.Error("expected epic template to be Epic compatible")
	}
	credTpl := &NoteTemplate{EMRType: "credible"}
	if credTpl.EpicCompatible() {
		t.Error("expected credible template to not be Epic compatible")
	}
}
