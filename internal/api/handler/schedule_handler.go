package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"shiftboard/internal/dto"
	"shiftboard/internal/service"
	"shiftboard/pkg/response"
)

// ScheduleHandler publishing and force assignment
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler creates a ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// Publish replaces the listed units and notifies affected employees
// POST /api/v1/schedules/publish
func (h *ScheduleHandler) Publish(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.PublishScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	resp, err := h.scheduleSvc.Publish(c.Request.Context(), &req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListUnits published units of a store
// GET /api/v1/schedules/units?store_id=&from=&to=
func (h *ScheduleHandler) ListUnits(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.ListUnitsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	units, err := h.scheduleSvc.ListUnits(c.Request.Context(), &req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": units})
}

// ForceAssign adds one shift to an employee's registration
// POST /api/v1/schedules/force-assign
func (h *ScheduleHandler) ForceAssign(c *gin.Context) {
	h.force(c, h.scheduleSvc.ForceAssign)
}

// ForceRemove drops one shift from an employee's registration
// POST /api/v1/schedules/force-remove
func (h *ScheduleHandler) ForceRemove(c *gin.Context) {
	h.force(c, h.scheduleSvc.ForceRemove)
}

type forceFunc func(ctx context.Context, req *dto.ForceAssignmentRequest, caller service.Caller) (*dto.ForceAssignmentResponse, error)

func (h *ScheduleHandler) force(c *gin.Context, fn forceFunc) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.ForceAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	resp, err := fn(c.Request.Context(), &req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}
