package laboratory

import (
	"context"
	"strings"

	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
)

// CreateRequest carries data to create a laboratory.
type CreateRequest struct {
	Name        string
	Location    string
	Capacity    int
	Description string
	Status      Status
}

// UpdateRequest carries data for partial updates.
type UpdateRequest struct {
	Name        *string
	Location    *string
	Capacity    *int
	Description *string
	Status      *Status
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Laboratory, error)
	GetByID(ctx context.Context, id string) (*Laboratory, error)
	List(ctx context.Context, filter Filter) ([]*Laboratory, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Laboratory, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validate(lab *Laboratory) error {
	if strings.TrimSpace(lab.Name) == "" {
		return ErrNameRequired
	}
	if lab.Capacity < 0 {
		return ErrCapacityInvalid
	}
	if !lab.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Laboratory, error) {
	lab := &Laboratory{
		Name:        strings.TrimSpace(req.Name),
		Location:    strings.TrimSpace(req.Location),
		Capacity:    req.Capacity,
		Description: req.Description,
		Status:      req.Status,
	}
	if lab.Status == "" {
		lab.Status = StatusAvailable
	}

	if err := validate(lab); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, lab); err != nil {
		return nil, apperror.Persistence(err, "failed to create laboratory")
	}
	return lab, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Laboratory, error) {
	lab, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err, "failed to get laboratory")
	}
	return lab, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Laboratory, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	labs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Persistence(err, "failed to list laboratories")
	}
	return labs, total, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Laboratory, error) {
	lab, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err, "failed to get laboratory")
	}

	// Apply non-nil fields
	if req.Name != nil {
		lab.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		lab.Location = strings.TrimSpace(*req.Location)
	}
	if req.Capacity != nil {
		lab.Capacity = *req.Capacity
	}
	if req.Description != nil {
		lab.Description = *req.Description
	}
	if req.Status != nil {
		lab.Status = *req.Status
	}

	if err := validate(lab); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, lab); err != nil {
		return nil, apperror.Persistence(err, "failed to update laboratory")
	}
	return lab, nil
}

// Delete removes the laboratory together with its equipment and bookings.
func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.Persistence(err, "failed to delete laboratory")
	}
	return nil
}
