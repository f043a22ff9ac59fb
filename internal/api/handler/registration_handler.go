package handler

import (
	"github.com/gin-gonic/gin"

	"shiftboard/internal/dto"
	"shiftboard/internal/service"
	"shiftboard/pkg/response"
)

// RegistrationHandler weekly availability
type RegistrationHandler struct {
	registrationSvc service.RegistrationService
}

// NewRegistrationHandler creates a RegistrationHandler
func NewRegistrationHandler(registrationSvc service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationSvc: registrationSvc}
}

// Submit replaces the caller's availability for one week
// POST /api/v1/registrations
func (h *RegistrationHandler) Submit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.SubmitRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	resp, err := h.registrationSvc.Submit(c.Request.Context(), &req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if resp == nil {
		response.OK(c, gin.H{"withdrawn": true})
		return
	}
	response.OK(c, resp)
}

// GetMine the caller's registration for one week
// GET /api/v1/registrations/me?week_start=
func (h *RegistrationHandler) GetMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var q dto.RegistrationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	resp, err := h.registrationSvc.GetMine(c.Request.Context(), userID, q.WeekStart)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListWeek all registrations of a store for one week
// GET /api/v1/registrations?week_start=&store_id=
func (h *RegistrationHandler) ListWeek(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var q dto.RegistrationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	list, err := h.registrationSvc.ListWeek(c.Request.Context(), &q, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}
