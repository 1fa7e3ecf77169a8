package scheduling

import (
	"time"
)

// ── 周重复时间段规范化 ──

// Slot 规范化后的周重复时间段（同日，不支持跨午夜）
type Slot struct {
	Day   Weekday
	Start Clock
	End   Clock
}

// Normalize 将星期名称与 "HH:MM" 起止时间规范化为 Slot
//
// 校验顺序：星期 → 开始时间 → 结束时间 → 区间（end > start）
func Normalize(day, start, end string) (Slot, error) {
	d, err := ParseWeekday(day)
	if err != nil {
		return Slot{}, err
	}
	s, err := ParseClock(start)
	if err != nil {
		return Slot{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Slot{}, err
	}
	if e <= s {
		return Slot{}, ErrInvalidInterval
	}
	return Slot{Day: d, Start: s, End: e}, nil
}

// Minutes 时长（分钟）
func (s Slot) Minutes() int { return int(s.End - s.Start) }

// Hours 时长（小时，浮点，用于周视图跨行）
func (s Slot) Hours() float64 { return float64(s.Minutes()) / 60 }

// ── 课次解析 ──

// Timetable 解析所需的课表快照；起止日期只取日历字段
type Timetable struct {
	ID        string
	ClassID   string
	StartDate *time.Time
	EndDate   *time.Time
}

// Session 解析所需的课次快照（字段保持原始字符串，由解析器负责校验）
type Session struct {
	ID          string
	TimetableID string
	Weekday     string
	StartTime   string
	EndTime     string
	Room        string
	Type        string
	CourseID    string
	ClassID     string
}

// Occurrence 课次落到具体日期后的结果（派生数据，不落库）
type Occurrence struct {
	SessionID     string
	TimetableID   string
	Day           Weekday
	Date          time.Time // 所在时区零点
	Start         time.Time
	End           time.Time
	DurationHours float64
	Room          string
	Type          SessionType
	CourseID      string
	ClassID       string
	// OutOfRange 首次匹配日期晚于课表结束日期（仍返回，由调用方决定如何展示）
	OutOfRange bool
}

// Resolver 课次日期解析器；纯计算，无共享可变状态，可并发使用
type Resolver struct {
	loc *time.Location
}

// NewResolver 创建解析器，loc 为 nil 时使用 UTC
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

// Location 解析使用的时区
func (r *Resolver) Location() *time.Location { return r.loc }

// FirstDate 返回 start 当天或之后第一个落在 day 的日期（所在时区零点）
//
// offset = (day - start.weekday + 7) mod 7
func (r *Resolver) FirstDate(start time.Time, day Weekday) time.Time {
	base := r.midnight(start)
	offset := (int(day) - int(base.Weekday()) + 7) % 7
	return base.AddDate(0, 0, offset)
}

// Reachable 判断 [start, end] 内是否至少有一天落在 day
func (r *Resolver) Reachable(start, end time.Time, day Weekday) bool {
	return !r.FirstDate(start, day).After(r.midnight(end))
}

// Resolve 解析单个课次：仅解析课表起始日之后的第一次出现
func (r *Resolver) Resolve(tt Timetable, s Session) (Occurrence, error) {
	if tt.StartDate == nil || tt.EndDate == nil {
		return Occurrence{}, ErrMissingRangeBounds
	}
	slot, err := Normalize(s.Weekday, s.StartTime, s.EndTime)
	if err != nil {
		return Occurrence{}, err
	}
	typ, err := ParseSessionType(s.Type)
	if err != nil {
		return Occurrence{}, err
	}

	date := r.FirstDate(*tt.StartDate, slot.Day)
	classID := s.ClassID
	if classID == "" {
		classID = tt.ClassID
	}
	timetableID := s.TimetableID
	if timetableID == "" {
		timetableID = tt.ID
	}

	return Occurrence{
		SessionID:     s.ID,
		TimetableID:   timetableID,
		Day:           slot.Day,
		Date:          date,
		Start:         at(date, slot.Start),
		End:           at(date, slot.End),
		DurationHours: slot.Hours(),
		Room:          s.Room,
		Type:          typ,
		CourseID:      s.CourseID,
		ClassID:       classID,
		OutOfRange:    date.After(r.midnight(*tt.EndDate)),
	}, nil
}

// ResolveOccurrences 批量解析课次
//
// fail-soft：失败的课次被跳过，错误以 *BatchError 汇总返回；
// 成功结果保持输入顺序。全部成功时 error 为 nil。
func (r *Resolver) ResolveOccurrences(tt Timetable, sessions []Session) ([]Occurrence, error) {
	occurrences := make([]Occurrence, 0, len(sessions))
	var failed []*SessionError
	for _, s := range sessions {
		occ, err := r.Resolve(tt, s)
		if err != nil {
			failed = append(failed, &SessionError{SessionID: s.ID, Err: err})
			continue
		}
		occurrences = append(occurrences, occ)
	}
	if len(failed) > 0 {
		return occurrences, &BatchError{Errors: failed}
	}
	return occurrences, nil
}

// midnight 取 t 的日历字段，构造解析时区的零点
func (r *Resolver) midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc)
}

func at(date time.Time, c Clock) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}
