package scheduling

import (
	"fmt"
	"strconv"
	"time"
)

// Weekday 星期索引，0=Dimanche … 6=Samedi，与 time.Weekday 一致
type Weekday int

const (
	Dimanche Weekday = iota
	Lundi
	Mardi
	Mercredi
	Jeudi
	Vendredi
	Samedi
)

// weekdayLabels 星期名称闭集（法语，区分大小写）
var weekdayLabels = [...]string{
	"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi",
}

// ParseWeekday 将星期名称解析为索引，不在闭集内返回 ErrInvalidWeekday
func ParseWeekday(label string) (Weekday, error) {
	for i, l := range weekdayLabels {
		if l == label {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, label)
}

// IsWeekday 判断名称是否属于星期闭集
func IsWeekday(label string) bool {
	_, err := ParseWeekday(label)
	return err == nil
}

// WeekdayOf 取日期对应的星期
func WeekdayOf(t time.Time) Weekday { return Weekday(t.Weekday()) }

// Valid 是否为 0..6
func (d Weekday) Valid() bool { return d >= Dimanche && d <= Samedi }

func (d Weekday) String() string {
	if d.Valid() {
		return weekdayLabels[d]
	}
	return "Weekday(" + strconv.Itoa(int(d)) + ")"
}

// ── 时刻 ──

// Clock 当日分钟数（0..1439）
type Clock int

// ParseClock 解析严格的 "HH:MM"（24 小时制，两位数字）
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return Clock(h*60 + m), nil
}

// IsClock 判断字符串是否为合法 "HH:MM"
func IsClock(s string) bool {
	_, err := ParseClock(s)
	return err == nil
}

// ClockOf 取时间点在其所在时区的当日分钟数
func ClockOf(t time.Time) Clock { return Clock(t.Hour()*60 + t.Minute()) }

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// ── 课程类型 ──

// SessionType 课程类型闭集
type SessionType string

const (
	Lecture  SessionType = "CM" // 大课
	Tutorial SessionType = "TD" // 习题课
	Lab      SessionType = "TP" // 实验课
)

// ParseSessionType 解析课程类型，不在闭集内返回 ErrInvalidSessionType
func ParseSessionType(s string) (SessionType, error) {
	switch t := SessionType(s); t {
	case Lecture, Tutorial, Lab:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSessionType, s)
}

// IsSessionType 判断字符串是否为合法课程类型
func IsSessionType(s string) bool {
	_, err := ParseSessionType(s)
	return err == nil
}
