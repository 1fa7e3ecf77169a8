package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"school-portal/internal/scheduling"
	"school-portal/internal/service"
	pkgerrors "school-portal/pkg/errors"
	"school-portal/pkg/response"
	"school-portal/pkg/validate"
)

// 业务错误码
//
//	10xxx 通用     14xxx 班级 / 课程
//	15xxx 课表     151xx 课次     152xx 周视图     153xx ICS 导入
//	16xxx 导出
const (
	codeInvalidParam = 10001

	codeClassNotFound  = 14001
	codeCourseNotFound = 14002

	codeTimetableNotFound    = 15001
	codeTimetableDateInvalid = 15002
	codeVersionConflict      = 15003

	codeSessionNotFound    = 15101
	codeWeekdayOutOfRange  = 15102
	codeInvalidWeekday     = 15103
	codeInvalidTimeFormat  = 15104
	codeInvalidInterval    = 15105
	codeInvalidSessionType = 15106
	codeMissingRangeBounds = 15107

	codeInvalidGridLayout = 15201

	codeICSMissingSource = 15300
	codeICSParseFailed   = 15301
	codeICSEmpty         = 15302
	codeICSFetchFailed   = 15303

	codeExportNoSessions = 16101
)

// bindError 请求绑定 / 校验失败
func bindError(c *gin.Context, err error) {
	response.BadRequest(c, codeInvalidParam, validate.Message(err))
}

// handleCommonError 处理跨模块共享的业务错误，已写入响应时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeVersionConflict, err.Error())
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, codeTimetableNotFound, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, codeSessionNotFound, err.Error())
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, codeClassNotFound, err.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, codeCourseNotFound, err.Error())
	case errors.Is(err, service.ErrTimetableDateInvalid):
		response.BadRequest(c, codeTimetableDateInvalid, err.Error())
	default:
		return handleSchedulingError(c, err)
	}
	return true
}

// handleSchedulingError 课次计算的校验错误统一返回 422，便于前端提示
func handleSchedulingError(c *gin.Context, err error) bool {
	code := 0
	switch {
	case errors.Is(err, service.ErrWeekdayOutOfRange):
		code = codeWeekdayOutOfRange
	case errors.Is(err, scheduling.ErrInvalidWeekday):
		code = codeInvalidWeekday
	case errors.Is(err, scheduling.ErrInvalidTimeFormat):
		code = codeInvalidTimeFormat
	case errors.Is(err, scheduling.ErrInvalidInterval):
		code = codeInvalidInterval
	case errors.Is(err, scheduling.ErrInvalidSessionType):
		code = codeInvalidSessionType
	case errors.Is(err, scheduling.ErrMissingRangeBounds):
		code = codeMissingRangeBounds
	case errors.Is(err, scheduling.ErrInvalidGridLayout):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeInvalidGridLayout, "周视图布局无效", err.Error())
		return true
	default:
		return false
	}
	response.UnprocessableEntity(c, code, err.Error())
	return true
}
