package equipment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/AngelG-buaa/DB/internal/laboratory"
	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
)

type CreateRequest struct {
	LaboratoryID string
	Name         string
	Model        string
	SerialNumber *string
	Status       Status
}

type UpdateRequest struct {
	Name         *string
	Model        *string
	SerialNumber *string
	Status       *Status
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Equipment, error)
	GetByID(ctx context.Context, id string) (*Equipment, error)
	List(ctx context.Context, filter Filter) ([]*Equipment, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Equipment, error)
	Delete(ctx context.Context, id string) error

	// CountAvailableInLab counts how many of ids name available equipment of the laboratory.
	// Malformed ids never match.
	CountAvailableInLab(ctx context.Context, labID string, ids []string) (int, error)
}

type service struct {
	repo       Repository
	labService laboratory.Service
}

func NewService(repo Repository, labService laboratory.Service) Service {
	return &service{
		repo:       repo,
		labService: labService,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Equipment, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if req.Status == "" {
		req.Status = StatusAvailable
	}
	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	lab, err := s.labService.GetByID(ctx, req.LaboratoryID)
	if err != nil {
		if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.KindNotFound {
			return nil, ErrInvalidLaboratory
		}
		return nil, err
	}

	eq := &Equipment{
		LaboratoryID:   lab.ID,
		LaboratoryName: lab.Name,
		Name:           strings.TrimSpace(req.Name),
		Model:          strings.TrimSpace(req.Model),
		SerialNumber:   normalizeSerial(req.SerialNumber),
		Status:         req.Status,
	}

	if err := s.repo.Create(ctx, eq); err != nil {
		return nil, apperror.Persistence(err, "failed to create equipment")
	}
	return eq, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Equipment, error) {
	eq, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err, "failed to get equipment")
	}
	return eq, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Equipment, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Persistence(err, "failed to list equipment")
	}
	return items, total, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Equipment, error) {
	eq, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err, "failed to get equipment")
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		eq.Name = strings.TrimSpace(*req.Name)
	}
	if req.Model != nil {
		eq.Model = strings.TrimSpace(*req.Model)
	}
	if req.SerialNumber != nil {
		eq.SerialNumber = normalizeSerial(req.SerialNumber)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		eq.Status = *req.Status
	}

	if err := s.repo.Update(ctx, eq); err != nil {
		return nil, apperror.Persistence(err, "failed to update equipment")
	}
	return eq, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.Persistence(err, "failed to delete equipment")
	}
	return nil
}

func (s *service) CountAvailableInLab(ctx context.Context, labID string, ids []string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}
	if _, err := uuid.Parse(labID); err != nil {
		return 0, nil
	}

	n, err := s.repo.CountAvailableInLab(ctx, labID, valid)
	if err != nil {
		return 0, apperror.Persistence(err, "failed to check equipment")
	}
	return n, nil
}

// normalizeSerial maps blank serial numbers to NULL so the unique index ignores them.
func normalizeSerial(serial *string) *string {
	if serial == nil {
		return nil
	}
	s := strings.TrimSpace(*serial)
	if s == "" {
		return nil
	}
	return &s
}
