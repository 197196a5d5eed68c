package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validGenders = map[string]bool{
	"male":    true,
	"female":  true,
	"other":   true,
	"unknown": true,
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Gender != nil && !validGenders[*p.Gender] {
		return fmt.Errorf("invalid gender: %s", *p.Gender)
	}
	if p.DateOfBirth != nil && p.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date_of_birth cannot be in the future")
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if p.MRN != nil {
		if existing, err := s.repo.GetByMRN(ctx, *p.MRN); err == nil && existing != nil {
			return fmt.Errorf("patient with MRN %s already exists", *p.MRN)
		}
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetPatientByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, mrn)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Gender != nil && !validGenders[*p.Gender] {
		return fmt.Errorf("invalid gender: %s", *p.Gender)
	}
	if p.DateOfBirth != nil && p.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date_of_birth cannot be in the future")
	}
	return s.repo.Update(ctx, p)
}

// DeactivatePatient soft-deletes a patient. The record stays in place so
// generated notes keep a valid reference.
func (s *Service) DeactivatePatient(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	if !p.IsActive() {
		return fmt.Errorf("patient is already inactive")
	}
	return s.repo.SetStatus(ctx, id, "inactive")
}

func (s *Service) ReactivatePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetStatus(ctx, id, "active")
}

func (s *Service) ListPatients(ctx context.Context, includeInactive bool, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, includeInactive, limit, offset)
}

func (s *Service) SearchPatients(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	if name == "" {
		return nil, 0, fmt.Errorf("search name is required")
	}
	return s.repo.SearchByName(ctx, name, limit, offset)
}
