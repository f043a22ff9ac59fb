package handler

import (
	"github.com/gin-gonic/gin"

	"shiftboard/internal/dto"
	"shiftboard/internal/service"
	"shiftboard/pkg/response"
)

// SettingsHandler registration window and event mapping settings
type SettingsHandler struct {
	settingsSvc service.SettingsService
}

// NewSettingsHandler creates a SettingsHandler
func NewSettingsHandler(settingsSvc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// GetSettings effective settings of a store, or global
// GET /api/v1/settings?store_id=
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	var q dto.SettingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	resp, err := h.settingsSvc.Get(c.Request.Context(), q.StoreID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// UpdateSettings edits one scope
// PUT /api/v1/settings?store_id=
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var q dto.SettingsQuery
	var req dto.UpdateSettingsRequest
	if c.ShouldBindQuery(&q) != nil || c.ShouldBindJSON(&req) != nil {
		badRequest(c)
		return
	}

	resp, err := h.settingsSvc.Update(c.Request.Context(), q.StoreID, &req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// UpdateEventMappings replaces the event → template table
// PUT /api/v1/settings/event-mappings
func (h *SettingsHandler) UpdateEventMappings(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.UpdateEventMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	mappings, err := h.settingsSvc.UpdateEventMappings(c.Request.Context(), &req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"mappings": mappings})
}
