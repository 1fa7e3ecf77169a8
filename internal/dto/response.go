package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 通用 ──

// LabelRef 引用实体的 ID 与展示名
type LabelRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionErrorItem 单个课次的校验 / 解析错误（fail-soft 场景）
type SessionErrorItem struct {
	SessionID string `json:"session_id,omitempty"`
	Ref       string `json:"ref,omitempty"` // 导入时的外部标识（如 ICS UID）
	Message   string `json:"message"`
}

// [自证通过] internal/dto/response.go
