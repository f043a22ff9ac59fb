package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"shiftboard/internal/dto"
	"shiftboard/internal/service"
	"shiftboard/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler file downloads
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRoster one store-week as a spreadsheet
// GET /api/v1/export/roster?store_id=&week_start=
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.ExportRosterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), &req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportMyShifts the caller's shifts as an iCalendar feed
// GET /api/v1/export/my-shifts.ics?from=&to=
func (h *ExportHandler) ExportMyShifts(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.MyShiftsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	data, filename, err := h.exportSvc.ExportMyShifts(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	attachment(c, filename, contentTypeICS, data)
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}
