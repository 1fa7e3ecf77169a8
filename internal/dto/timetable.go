package dto

// ── 课表 ──

// CreateTimetableRequest 创建课表请求（日期格式 YYYY-MM-DD）
type CreateTimetableRequest struct {
	Title       string `json:"title"       binding:"required,min=1,max=150"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	ClassID     string `json:"class_id"    binding:"required,max=64"`
	StartDate   string `json:"start_date"  binding:"required,isodate"`
	EndDate     string `json:"end_date"    binding:"required,isodate"`
}

// UpdateTimetableRequest 更新课表请求（乐观锁）
type UpdateTimetableRequest struct {
	Title       *string `json:"title"       binding:"omitempty,min=1,max=150"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	ClassID     *string `json:"class_id"    binding:"omitempty,max=64"`
	StartDate   *string `json:"start_date"  binding:"omitempty,isodate"`
	EndDate     *string `json:"end_date"    binding:"omitempty,isodate"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// TimetableListRequest 课表列表查询参数
type TimetableListRequest struct {
	PaginationRequest
	Q       string `form:"q"        binding:"omitempty,max=100"`
	ClassID string `form:"class_id" binding:"omitempty,max=64"`
}

// TimetableResponse 课表响应
type TimetableResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Class        *LabelRef `json:"class"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	SessionCount int64     `json:"session_count"`
	Version      int       `json:"version"`
}

// ── 课次 ──

// CreateSessionRequest 创建课次请求
type CreateSessionRequest struct {
	Weekday     string `json:"weekday"      binding:"required,weekday"`
	StartTime   string `json:"start_time"   binding:"required,hhmm"`
	EndTime     string `json:"end_time"     binding:"required,hhmm"`
	Room        string `json:"room"         binding:"omitempty,max=50"`
	SessionType string `json:"session_type" binding:"required,session_type"`
	CourseID    string `json:"course_id"    binding:"required,max=64"`
	ClassID     string `json:"class_id"     binding:"omitempty,max=64"` // 为空时取课表班级
	Notes       string `json:"notes"        binding:"omitempty,max=1000"`
}

// UpdateSessionRequest 更新课次请求（乐观锁）
type UpdateSessionRequest struct {
	Weekday     *string `json:"weekday"      binding:"omitempty,weekday"`
	StartTime   *string `json:"start_time"   binding:"omitempty,hhmm"`
	EndTime     *string `json:"end_time"     binding:"omitempty,hhmm"`
	Room        *string `json:"room"         binding:"omitempty,max=50"`
	SessionType *string `json:"session_type" binding:"omitempty,session_type"`
	CourseID    *string `json:"course_id"    binding:"omitempty,max=64"`
	ClassID     *string `json:"class_id"     binding:"omitempty,max=64"`
	Notes       *string `json:"notes"        binding:"omitempty,max=1000"`
	Version     int     `json:"version"      binding:"required,min=1"`
}

// SessionResponse 课次响应
type SessionResponse struct {
	ID          string    `json:"id"`
	TimetableID string    `json:"timetable_id"`
	Weekday     string    `json:"weekday"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Room        string    `json:"room"`
	SessionType string    `json:"session_type"`
	Course      *LabelRef `json:"course"`
	Class       *LabelRef `json:"class"`
	Notes       string    `json:"notes,omitempty"`
	Version     int       `json:"version"`
}

// ── ICS 导入 ──

// ImportICSRequest ICS 导入请求（用于 URL 方式）
type ImportICSRequest struct {
	URL string `json:"url" binding:"required"`
}

// ImportICSResponse ICS 导入响应
type ImportICSResponse struct {
	ImportedCount int                `json:"imported_count"`
	Sessions      []SessionResponse  `json:"sessions"`
	Errors        []SessionErrorItem `json:"errors"`
}

// [自证通过] internal/dto/timetable.go
