package handler

import (
	"github.com/gin-gonic/gin"

	"shiftboard/internal/dto"
	"shiftboard/internal/service"
	"shiftboard/pkg/response"
)

// TemplateHandler notification template administration (admin only)
type TemplateHandler struct {
	templateSvc service.TemplateService
}

// NewTemplateHandler creates a TemplateHandler
func NewTemplateHandler(templateSvc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

// List GET /api/v1/notification-templates
func (h *TemplateHandler) List(c *gin.Context) {
	list, err := h.templateSvc.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Get GET /api/v1/notification-templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	t, err := h.templateSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, t)
}

// Create POST /api/v1/notification-templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	t, err := h.templateSvc.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, t)
}

// Update PUT /api/v1/notification-templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	t, err := h.templateSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, t)
}

// Delete DELETE /api/v1/notification-templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templateSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}
