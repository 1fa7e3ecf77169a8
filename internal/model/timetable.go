package model

import (
	"time"

	"gorm.io/gorm"
)

// Timetable 课表表，对应 timetables
//
// 日期区间 [StartDate, EndDate] 两端包含
type Timetable struct {
	TimetableID string     `gorm:"type:varchar(64);primaryKey" json:"timetable_id"`
	Title       string     `gorm:"type:varchar(150);not null"  json:"title"`
	Description string     `gorm:"type:text"                   json:"description,omitempty"`
	ClassID     string     `gorm:"type:varchar(64);not null"   json:"class_id"`
	StartDate   *time.Time `gorm:"type:date"                   json:"start_date"`
	EndDate     *time.Time `gorm:"type:date"                   json:"end_date"`
	VersionedModel

	// 关联
	Class    *Class    `gorm:"foreignKey:ClassID;references:ClassID"         json:"class,omitempty"`
	Sessions []Session `gorm:"foreignKey:TimetableID;references:TimetableID" json:"sessions,omitempty"`
}

// TableName 指定表名
func (Timetable) TableName() string { return "timetables" }

// BeforeCreate 生成主键
func (t *Timetable) BeforeCreate(*gorm.DB) error {
	ensureID(&t.TimetableID)
	return nil
}

// Key 实现 Keyed
func (t Timetable) Key() string { return t.TimetableID }

// TimetableWithCount 列表查询结果：课表 + 课次数
type TimetableWithCount struct {
	Timetable
	SessionCount int64 `gorm:"column:session_count" json:"session_count"`
}

// [自证通过] internal/model/timetable.go
