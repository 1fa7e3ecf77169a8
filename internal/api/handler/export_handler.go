package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/internal/service"
	"school-portal/pkg/response"
)

const (
	contentTypeICS  = "text/calendar; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportICS 导出课表日历
// GET /api/v1/export/timetables/:id/ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	id, ok := requirePathID(c, "课表")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportICS(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	response.Attachment(c, filename, contentTypeICS, buf.Bytes())
}

// ExportXLSX 导出周视图表格
// GET /api/v1/export/timetables/:id/xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	id, ok := requirePathID(c, "课表")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportGrid(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	response.Attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSessions):
		response.NotFound(c, codeExportNoSessions, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
