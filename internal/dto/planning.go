package dto

import "time"

// ── 课次解析 / 冲突 / 周视图 ──

// OccurrenceResponse 课次在日历上的一次具体出现
type OccurrenceResponse struct {
	SessionID     string    `json:"session_id"`
	TimetableID   string    `json:"timetable_id"`
	Weekday       string    `json:"weekday"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
	Room          string    `json:"room"`
	SessionType   string    `json:"session_type"`
	Course        *LabelRef `json:"course"`
	Class         *LabelRef `json:"class"`
	OutOfRange    bool      `json:"out_of_range"`
}

// OccurrenceListResponse 课表解析结果（含解析失败的课次）
type OccurrenceListResponse struct {
	TimetableID string               `json:"timetable_id"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
	Errors      []SessionErrorItem   `json:"errors"`
}

// ConflictResponse 冲突对
type ConflictResponse struct {
	First        OccurrenceResponse `json:"first"`
	Second       OccurrenceResponse `json:"second"`
	Date         string             `json:"date"`
	Reasons      []string           `json:"reasons"` // room | class
	Room         string             `json:"room,omitempty"`
	Class        *LabelRef          `json:"class,omitempty"`
	OverlapStart time.Time          `json:"overlap_start"`
	OverlapEnd   time.Time          `json:"overlap_end"`
}

// ConflictListResponse 冲突检测结果
type ConflictListResponse struct {
	Total     int                `json:"total"`
	Conflicts []ConflictResponse `json:"conflicts"`
	Errors    []SessionErrorItem `json:"errors"`
}

// GlobalConflictRequest 全局冲突检测查询参数（日期窗口可选，YYYY-MM-DD）
type GlobalConflictRequest struct {
	From string `form:"from" binding:"omitempty,isodate"`
	To   string `form:"to"   binding:"omitempty,isodate"`
}

// GridRequest 周视图查询参数（逗号分隔，缺省取配置）
type GridRequest struct {
	Days  string `form:"days"`
	Slots string `form:"slots"`
}

// GridEntryResponse 单元格中的课次
type GridEntryResponse struct {
	OccurrenceResponse
	RowSpan int `json:"row_span"`
}

// GridCellResponse 周视图单元格
type GridCellResponse struct {
	Entries []GridEntryResponse `json:"entries"`
	Covered bool                `json:"covered"`
}

// GridResponse 周视图
type GridResponse struct {
	TimetableID string               `json:"timetable_id"`
	Days        []string             `json:"days"`
	Slots       []string             `json:"slots"`
	Cells       [][]GridCellResponse `json:"cells"` // [day][slot]
	TodayIndex  int                  `json:"today_index"`
	Unplaced    []OccurrenceResponse `json:"unplaced"`
	Errors      []SessionErrorItem   `json:"errors"`
}

// [自证通过] internal/dto/planning.go
