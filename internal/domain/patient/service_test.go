package patient

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) GetByMRN(_ context.Context, mrn string) (*Patient, error) {
	for _, p := range m.patients {
		if p.MRN != nil && *p.MRN == mrn {
			return p, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := m.patients[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	p.Status = status
	return nil
}

func (m *mockRepo) List(_ context.Context, includeInactive bool, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		if !includeInactive && !p.IsActive() {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockRepo) SearchByName(_ context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		if p.IsActive() && strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

// -- Tests --

func newTestService() *Service {
	return NewService(newMockRepo())
}

func TestCreatePatient(t *testing.T) {
	svc := newTestService()

	p := &Patient{Name: "Jane Doe"}
	err := svc.CreatePatient(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if p.Status != "active" {
		t.Errorf("expected default status 'active', got %s", p.Status)
	}
}

func TestCreatePatient_NameRequired(t *testing.T) {
	svc := newTestService()

	err := svc.CreatePatient(context.Background(), &Patient{})
	if err == nil {
		t.Error("expected error for missing name")
	}
}

func TestCreatePatient_InvalidGender(t *testing.T) {
	svc := newTestService()

	gender := "bogus"
	err := svc.CreatePatient(context.Background(), &Patient{Name: "Jane Doe", Gender: &gender})
	if err == nil {
		t.Error("expected error for invalid gender")
	}
}

func TestCreatePatient_FutureDateOfBirth(t *testing.T) {
	svc := newTestService()

	dob := time.Now().Add(24 * time.Hour)
	err := svc.CreatePatient(context.Background(), &Patient{Name: "Jane Doe", DateOfBirth: &dob})
	if err == nil {
		t.Error("expected error for future date of birth")
	}
}

func TestCreatePatient_DuplicateMRN(t *testing.T) {
	svc := newTestService()

	mrn := "MRN-001"
	err := svc.CreatePatient(context.Background(), &Patient{Name: "Jane Doe", MRN: &mrn})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = svc.CreatePatient(context.Background(), &Patient{Name: "John Doe", MRN: &mrn})
	if err == nil {
		t.Error("expected error for duplicate MRN")
	}
}

func TestGetPatientByMRN(t *testing.T) {
	svc := newTestService()

	mrn := "MRN-002"
	p := &Patient{Name: "Jane Doe", MRN: &mrn}
	svc.CreatePatient(context.Background(), p)

	fetched, err := svc.GetPatientByMRN(context.Background(), mrn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched.ID != p.ID {
		t.Error("expected same patient")
	}
}

func TestUpdatePatient_Validation(t *testing.T) {
	svc := newTestService()

	p := &Patient{Name: "Jane Doe"}
	svc.CreatePatient(context.Background(), p)

	p.Name = ""
	if err := svc.UpdatePatient(context.Background(), p); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestDeactivatePatient(t *testing.T) {
	svc := newTestService()

	p := &Patient{Name: "Jane Doe"}
	svc.CreatePatient(context.Background(), p)

	err := svc.DeactivatePatient(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, _ := svc.GetPatient(context.Background(), p.ID)
	if fetched.IsActive() {
		t.Error("expected patient to be inactive")
	}

	// Deactivating twice is an error.
	err = svc.DeactivatePatient(context.Background(), p.ID)
	if err == nil {
		t.Error("expected error for already inactive patient")
	}
}

func TestDeactivatePatient_NotFound(t *testing.T) {
	svc := newTestService()

	err := svc.DeactivatePatient(context.Background(), uuid.New())
	if err == nil {
		t.Error("expected error for unknown patient")
	}
}

func TestReactivatePatient(t *testing.T) {
	svc := newTestService()

	p := &Patient{Name: "Jane Doe"}
	svc.CreatePatient(context.Background(), p)
	svc.DeactivatePatient(context.Background(), p.ID)

	err := svc.ReactivatePatient(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, _ := svc.GetPatient(context.Background(), p.ID)
	if !fetched.IsActive() {
		t.Error("expected patient to be active again")
	}
}

func TestListPatients_ExcludesInactive(t *testing.T) {
	svc := newTestService()

	a := &Patient{Name: "Active Patient"}
	b := &Patient{Name: "Inactive Patient"}
	svc.CreatePatient(context.Background(), a)
	svc.CreatePatient(context.Background(), b)
	svc.DeactivatePatient(context.Background(), b.ID)

	_, total, err := svc.ListPatients(context.Background(), false, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 active patient, got %d", total)
	}

	_, total, err = svc.ListPatients(context.Background(), true, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 patients including inactive, got %d", total)
	}
}

func TestSearchPatients(t *testing.T) {
	svc := newTestService()

	svc.CreatePatient(context.Background(), &Patient{Name: "Jane Doe"})
	svc.CreatePatient(context.Background(), &Patient{Name: "John Smith"})

	result, total, err := svc.SearchPatients(context.Background(), "doe", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 match, got %d", total)
	}
	if len(result) != 1 || result[0].Name != "Jane Doe" {
		t.Error("expected Jane Doe")
	}
}

func TestSearchPatients_NameRequired(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.SearchPatients(context.Background(), "", 10, 0)
	if err == nil {
		t.Error("expected error for empty search name")
	}
}

func TestPatientAge(t *testing.T) {
	dob := time.Date(1980, 6, 15, 0, 0, 0, 0, time.UTC)
	p := &Patient{DateOfBirth: &dob}

	if got := p.Age(time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)); got != 43 {
		t.Errorf("expected 43 before birthday, got %d", got)
	}
	if got := p.Age(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)); got != 44 {
		t.Errorf("expected 44 on birthday, got %d", got)
	}

	unknown := &Patient{}
	if got := unknown.Age(time.Now()); got != -1 {
		t.Errorf("expected -1 for unknown date of birth, got %d", got)
	}
}

func TestValidGenders(t *testing.T) {
	for _, g := range []string{"male", "female", "other", "unknown"} {
		if !validGenders[g] {
			t.Errorf("expected %s to be a valid gender", g)
		}
	}
}
