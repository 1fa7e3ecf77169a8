package handler

import (
	"github.com/gin-gonic/gin"

	"school-portal/internal/dto"
	"school-portal/internal/service"
	"school-portal/pkg/response"
)

// TimetableHandler 课表模块 Handler
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// List 课表列表（q 标题搜索，class_id 过滤）
// GET /api/v1/timetables
func (h *TimetableHandler) List(c *gin.Context) {
	var req dto.TimetableListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, total, err := h.svc.List(c.Request.Context(), &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 课表详情
// GET /api/v1/timetables/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	id, ok := requirePathID(c, "课表")
	if !ok {
		return
	}

	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Create 创建课表
// POST /api/v1/timetables
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// Update 更新课表（需携带 version）
// PUT /api/v1/timetables/:id
func (h *TimetableHandler) Update(c *gin.Context) {
	id, ok := requirePathID(c, "课表")
	if !ok {
		return
	}
	var req dto.UpdateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Delete 删除课表，同时删除其全部课次
// DELETE /api/v1/timetables/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	id, ok := requirePathID(c, "课表")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleTimetableError 统一课表模块错误映射
func handleTimetableError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	response.InternalError(c)
}
