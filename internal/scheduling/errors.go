package scheduling

import (
	"errors"
	"fmt"
	"strings"
)

// ── 课表计算错误 ──
//
// 均为输入校验错误：在规范化 / 解析边界抛出，内部不做恢复，
// 由调用方（Service / Handler）决定如何提示用户。

var (
	ErrInvalidWeekday     = errors.New("无效的星期名称")
	ErrInvalidTimeFormat  = errors.New("时间格式无效，应为 HH:MM")
	ErrInvalidInterval    = errors.New("结束时间必须晚于开始时间")
	ErrMissingRangeBounds = errors.New("课表缺少起止日期")
	ErrInvalidSessionType = errors.New("无效的课程类型")
	ErrInvalidGridLayout  = errors.New("周视图布局无效")
)

// SessionError 单个课次解析失败
type SessionError struct {
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("课次 %s: %v", e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// BatchError 批量解析时收集的全部课次错误（fail-soft：其余课次照常解析）
type BatchError struct {
	Errors []*SessionError
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		parts = append(parts, se.Error())
	}
	return fmt.Sprintf("%d 个课次解析失败: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap 支持 errors.Is / errors.As 穿透到任一课次错误
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, se := range e.Errors {
		errs = append(errs, se)
	}
	return errs
}

// SessionErrors 从 err 中提取课次错误列表；err 不是 BatchError 时返回 nil
func SessionErrors(err error) []*SessionError {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Errors
	}
	return nil
}
