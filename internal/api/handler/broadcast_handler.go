package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"shiftboard/internal/dto"
	"shiftboard/internal/service"
	"shiftboard/pkg/response"
)

// BroadcastHandler scheduled one-shot broadcasts (admin only)
type BroadcastHandler struct {
	broadcastSvc service.BroadcastService
}

// NewBroadcastHandler creates a BroadcastHandler
func NewBroadcastHandler(broadcastSvc service.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{broadcastSvc: broadcastSvc}
}

// List GET /api/v1/broadcast-tasks?status=
func (h *BroadcastHandler) List(c *gin.Context) {
	var req dto.BroadcastTaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	list, total, err := h.broadcastSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Create POST /api/v1/broadcast-tasks
func (h *BroadcastHandler) Create(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.CreateBroadcastTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	task, err := h.broadcastSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, task)
}

// RunDue triggers one runner pass immediately
// POST /api/v1/broadcast-tasks/run
func (h *BroadcastHandler) RunDue(c *gin.Context) {
	summary, err := h.broadcastSvc.RunDue(c.Request.Context(), time.Now())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, summary)
}
