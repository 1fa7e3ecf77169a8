package handler

import (
	"github.com/gin-gonic/gin"

	"school-portal/internal/dto"
	"school-portal/internal/service"
	"school-portal/pkg/response"
)

// CatalogHandler 班级 / 课程 HTTP 处理器
type CatalogHandler struct {
	svc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ── 班级 ──

// ListClasses 班级列表
// GET /api/v1/classes
func (h *CatalogHandler) ListClasses(c *gin.Context) {
	list, err := h.svc.ListClasses(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetClass 班级详情
// GET /api/v1/classes/:id
func (h *CatalogHandler) GetClass(c *gin.Context) {
	id, ok := requirePathID(c, "班级")
	if !ok {
		return
	}
	resp, err := h.svc.GetClass(c.Request.Context(), id)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// CreateClass 创建班级
// POST /api/v1/classes
func (h *CatalogHandler) CreateClass(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.svc.CreateClass(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, resp)
}

// UpdateClass 更新班级
// PUT /api/v1/classes/:id
func (h *CatalogHandler) UpdateClass(c *gin.Context) {
	id, ok := requirePathID(c, "班级")
	if !ok {
		return
	}
	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.svc.UpdateClass(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// DeleteClass 删除班级
// DELETE /api/v1/classes/:id
func (h *CatalogHandler) DeleteClass(c *gin.Context) {
	id, ok := requirePathID(c, "班级")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteClass(c.Request.Context(), id, callerID); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 课程 ──

// ListCourses 课程列表
// GET /api/v1/courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	list, err := h.svc.ListCourses(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetCourse 课程详情
// GET /api/v1/courses/:id
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	id, ok := requirePathID(c, "课程")
	if !ok {
		return
	}
	resp, err := h.svc.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// CreateCourse 创建课程
// POST /api/v1/courses
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.svc.CreateCourse(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, resp)
}

// UpdateCourse 更新课程
// PUT /api/v1/courses/:id
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	id, ok := requirePathID(c, "课程")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.svc.UpdateCourse(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// DeleteCourse 删除课程
// DELETE /api/v1/courses/:id
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	id, ok := requirePathID(c, "课程")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteCourse(c.Request.Context(), id, callerID); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	response.InternalError(c)
}
