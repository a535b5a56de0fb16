package http

import (
	"time"

	"github.com/AngelG-buaa/DB/internal/laboratory"
	"github.com/AngelG-buaa/DB/internal/pkg/request"
)

type ListLaboratoriesRequest struct {
	request.ListParams
	Q      string `form:"q"`
	Status string `form:"status" binding:"omitempty,oneof=available unavailable maintenance"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=name capacity created_at"`
}

type CreateLaboratoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Location    string `json:"location" binding:"max=200"`
	Capacity    int    `json:"capacity" binding:"min=0"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=available unavailable maintenance"`
}

type UpdateLaboratoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Location    *string `json:"location" binding:"omitempty,max=200"`
	Capacity    *int    `json:"capacity" binding:"omitempty,min=0"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=available unavailable maintenance"`
}

type LaboratoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewLaboratoryResponse(l *laboratory.Laboratory) LaboratoryResponse {
	return LaboratoryResponse{
		ID:          l.ID,
		Name:        l.Name,
		Location:    l.Location,
		Capacity:    l.Capacity,
		Description: l.Description,
		Status:      string(l.Status),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
