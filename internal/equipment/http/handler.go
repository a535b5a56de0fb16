package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AngelG-buaa/DB/internal/equipment"
	"github.com/AngelG-buaa/DB/internal/pkg/request"
	"github.com/AngelG-buaa/DB/internal/pkg/response"
)

type EquipmentHandler struct {
	service equipment.Service
}

func NewHandler(service equipment.Service) *EquipmentHandler {
	return &EquipmentHandler{service: service}
}

func (h *EquipmentHandler) List(c *gin.Context) {
	var req ListEquipmentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	h.list(c, req)
}

// ListByLaboratory serves GET /laboratories/:id/equipment.
func (h *EquipmentHandler) ListByLaboratory(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	var req ListEquipmentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.LaboratoryID = uri.ID
	h.list(c, req)
}

func (h *EquipmentHandler) list(c *gin.Context, req ListEquipmentRequest) {
	filter := equipment.Filter{
		LaboratoryID: req.LaboratoryID,
		Status:       equipment.Status(req.Status),
		Keyword:      strings.TrimSpace(req.Q),
		Page:         req.Page,
		PageSize:     req.PageSize,
		SortBy:       req.SortBy,
		SortOrder:    strings.ToUpper(req.SortOrder),
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]EquipmentResponse, len(items))
	for i, e := range items {
		out[i] = NewEquipmentResponse(e)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(out, req.Page, req.PageSize, total))
}

func (h *EquipmentHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	eq, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEquipmentResponse(eq))
}

func (h *EquipmentHandler) Create(c *gin.Context) {
	var body CreateEquipmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	eq, err := h.service.Create(c.Request.Context(), equipment.CreateRequest{
		LaboratoryID: body.LaboratoryID,
		Name:         body.Name,
		Model:        body.Model,
		SerialNumber: body.SerialNumber,
		Status:       equipment.Status(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewEquipmentResponse(eq))
}

func (h *EquipmentHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	var body UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := equipment.UpdateRequest{
		Name:         body.Name,
		Model:        body.Model,
		SerialNumber: body.SerialNumber,
	}
	if body.Status != nil {
		st := equipment.Status(*body.Status)
		req.Status = &st
	}

	eq, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEquipmentResponse(eq))
}

func (h *EquipmentHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
