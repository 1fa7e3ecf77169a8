package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"school-portal/internal/dto"
	"school-portal/internal/service"
	"school-portal/pkg/response"
)

// SessionHandler 课次模块 Handler（含 ICS 导入）
type SessionHandler struct {
	svc       service.SessionService
	importSvc service.ImportService
}

// NewSessionHandler 创建 SessionHandler 实例
func NewSessionHandler(svc service.SessionService, importSvc service.ImportService) *SessionHandler {
	return &SessionHandler{svc: svc, importSvc: importSvc}
}

// ListByTimetable 课表下的课次
// GET /api/v1/timetables/:id/sessions
func (h *SessionHandler) ListByTimetable(c *gin.Context) {
	timetableID, ok := requirePathID(c, "课表")
	if !ok {
		return
	}

	list, err := h.svc.ListByTimetable(c.Request.Context(), timetableID)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Create 在课表下创建课次
// POST /api/v1/timetables/:id/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	timetableID, ok := requirePathID(c, "课表")
	if !ok {
		return
	}
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), timetableID, &req, callerID)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.Created(c, resp)
}

// Get 课次详情
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := requirePathID(c, "课次")
	if !ok {
		return
	}

	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, resp)
}

// Update 更新课次（需携带 version）
// PUT /api/v1/sessions/:id
func (h *SessionHandler) Update(c *gin.Context) {
	id, ok := requirePathID(c, "课次")
	if !ok {
		return
	}
	var req dto.UpdateSessionRequest
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
		handleSessionError(c, err)
		return
	}
	response.OK(c, resp)
}

// Delete 删除课次
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := requirePathID(c, "课次")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, nil)
}

// ImportICS 导入 ICS 课次到课表
// POST /api/v1/timetables/:id/sessions/import
//
// 支持两种方式：
//   - 文件上传: multipart/form-data, field="file"
//   - URL 导入: application/json, body={"url": "..."}（也接受 form 字段 url）
func (h *SessionHandler) ImportICS(c *gin.Context) {
	timetableID, ok := requirePathID(c, "课表")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 尝试文件上传方式
	file, _, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		resp, err := h.importSvc.ImportICS(c.Request.Context(), timetableID, file, callerID)
		if err != nil {
			handleSessionError(c, err)
			return
		}
		response.Created(c, resp)
		return
	}

	// 尝试 URL 方式
	var req dto.ImportICSRequest
	if strings.HasPrefix(c.ContentType(), "application/json") {
		_ = c.ShouldBindJSON(&req)
	} else {
		req.URL = c.PostForm("url")
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		response.BadRequest(c, codeICSMissingSource, "请上传 ICS 文件或提供 ICS URL")
		return
	}

	resp, err := h.importSvc.ImportICSFromURL(c.Request.Context(), timetableID, req.URL, callerID)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.Created(c, resp)
}

// handleSessionError 统一课次模块错误映射
func handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrICSParseFailed):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeICSParseFailed, "ICS 文件解析失败", err.Error())
	case errors.Is(err, service.ErrICSEmpty):
		response.BadRequest(c, codeICSEmpty, err.Error())
	case errors.Is(err, service.ErrICSFetchFailed):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeICSFetchFailed, "ICS URL 获取失败", err.Error())
	default:
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
