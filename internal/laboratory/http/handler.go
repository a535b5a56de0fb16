package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AngelG-buaa/DB/internal/laboratory"
	"github.com/AngelG-buaa/DB/internal/pkg/request"
	"github.com/AngelG-buaa/DB/internal/pkg/response"
)

type LaboratoryHandler struct {
	service laboratory.Service
}

func NewHandler(service laboratory.Service) *LaboratoryHandler {
	return &LaboratoryHandler{service: service}
}

// List retrieves a paginated list of laboratories.
func (h *LaboratoryHandler) List(c *gin.Context) {
	var req ListLaboratoriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	filter := laboratory.Filter{
		Keyword:   strings.TrimSpace(req.Q),
		Status:    laboratory.Status(req.Status),
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: strings.ToUpper(req.SortOrder),
	}

	labs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]LaboratoryResponse, len(labs))
	for i, l := range labs {
		items[i] = NewLaboratoryResponse(l)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *LaboratoryHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	lab, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewLaboratoryResponse(lab))
}

// Create adds a laboratory. Staff only.
func (h *LaboratoryHandler) Create(c *gin.Context) {
	var body CreateLaboratoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	lab, err := h.service.Create(c.Request.Context(), laboratory.CreateRequest{
		Name:        body.Name,
		Location:    body.Location,
		Capacity:    body.Capacity,
		Description: body.Description,
		Status:      laboratory.Status(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewLaboratoryResponse(lab))
}

// Update applies a partial update. Staff only.
func (h *LaboratoryHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	var body UpdateLaboratoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := laboratory.UpdateRequest{
		Name:        body.Name,
		Location:    body.Location,
		Capacity:    body.Capacity,
		Description: body.Description,
	}
	if body.Status != nil {
		st := laboratory.Status(*body.Status)
		req.Status = &st
	}

	lab, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewLaboratoryResponse(lab))
}

// Delete removes a laboratory. Staff only.
func (h *LaboratoryHandler) Delete(c *gin.Context) {
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
