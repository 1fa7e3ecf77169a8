package handler

import (
	"github.com/gin-gonic/gin"

	"school-portal/internal/dto"
	"school-portal/internal/service"
	"school-portal/pkg/response"
)

// PlanningHandler 课次解析 / 冲突检测 / 周视图
type PlanningHandler struct {
	svc service.PlanningService
}

// NewPlanningHandler 创建 PlanningHandler
func NewPlanningHandler(svc service.PlanningService) *PlanningHandler {
	return &PlanningHandler{svc: svc}
}

// Occurrences 课表内课次的具体日期（解析失败的课次在 errors 中列出）
// GET /api/v1/timetables/:id/occurrences
func (h *PlanningHandler) Occurrences(c *gin.Context) {
	id, ok := requirePathID(c, "课表")
	if !ok {
		return
	}

	resp, err := h.svc.Occurrences(c.Request.Context(), id)
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}
	response.OK(c, resp)
}

// Conflicts 课表内冲突
// GET /api/v1/timetables/:id/conflicts
func (h *PlanningHandler) Conflicts(c *gin.Context) {
	id, ok := requirePathID(c, "课表")
	if !ok {
		return
	}

	resp, err := h.svc.Conflicts(c.Request.Context(), id)
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}
	response.OK(c, resp)
}

// GlobalConflicts 跨课表冲突
// GET /api/v1/conflicts?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *PlanningHandler) GlobalConflicts(c *gin.Context) {
	var req dto.GlobalConflictRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.svc.GlobalConflicts(c.Request.Context(), &req)
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}
	response.OK(c, resp)
}

// Grid 周视图
// GET /api/v1/timetables/:id/grid?days=Lundi,Mardi&slots=08:00,09:00
func (h *PlanningHandler) Grid(c *gin.Context) {
	id, ok := requirePathID(c, "课表")
	if !ok {
		return
	}
	var req dto.GridRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.svc.Grid(c.Request.Context(), id, &req)
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *PlanningHandler) handlePlanningError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	response.InternalError(c)
}
