package http

import (
	"time"

	"github.com/AngelG-buaa/DB/internal/equipment"
	"github.com/AngelG-buaa/DB/internal/pkg/request"
)

type ListEquipmentRequest struct {
	request.ListParams
	LaboratoryID string `form:"laboratory_id" binding:"omitempty,uuid"`
	Status       string `form:"status" binding:"omitempty,oneof=available in_use maintenance damaged retired"`
	Q            string `form:"q"`
	SortBy       string `form:"sort_by" binding:"omitempty,oneof=name model status created_at"`
}

type CreateEquipmentRequest struct {
	LaboratoryID string  `json:"laboratory_id" binding:"required,uuid"`
	Name         string  `json:"name" binding:"required,max=100"`
	Model        string  `json:"model" binding:"max=100"`
	SerialNumber *string `json:"serial_number" binding:"omitempty,max=100"`
	Status       string  `json:"status" binding:"omitempty,oneof=available in_use maintenance damaged retired"`
}

type UpdateEquipmentRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=100"`
	Model        *string `json:"model" binding:"omitempty,max=100"`
	SerialNumber *string `json:"serial_number" binding:"omitempty,max=100"`
	Status       *string `json:"status" binding:"omitempty,oneof=available in_use maintenance damaged retired"`
}

type EquipmentResponse struct {
	ID             string    `json:"id"`
	LaboratoryID   string    `json:"laboratory_id"`
	LaboratoryName string    `json:"laboratory_name"`
	Name           string    `json:"name"`
	Model          string    `json:"model"`
	SerialNumber   *string   `json:"serial_number"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewEquipmentResponse(e *equipment.Equipment) EquipmentResponse {
	return EquipmentResponse{
		ID:             e.ID,
		LaboratoryID:   e.LaboratoryID,
		LaboratoryName: e.LaboratoryName,
		Name:           e.Name,
		Model:          e.Model,
		SerialNumber:   e.SerialNumber,
		Status:         string(e.Status),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}
