package scheduling

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ── 周视图 ──

// Layout 周视图布局：列为星期（有序、不重复），行为时间段起点（严格递增）
type Layout struct {
	Days  []Weekday
	Slots []Clock
}

// NewLayout 校验并构造布局
func NewLayout(days []Weekday, slots []Clock) (Layout, error) {
	if len(days) == 0 || len(slots) == 0 {
		return Layout{}, fmt.Errorf("%w: 星期与时间段均不能为空", ErrInvalidGridLayout)
	}
	seen := make(map[Weekday]bool, len(days))
	for _, d := range days {
		if !d.Valid() {
			return Layout{}, fmt.Errorf("%w: %v", ErrInvalidGridLayout, d)
		}
		if seen[d] {
			return Layout{}, fmt.Errorf("%w: 星期 %s 重复", ErrInvalidGridLayout, d)
		}
		seen[d] = true
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			return Layout{}, fmt.Errorf("%w: 时间段必须严格递增（%s 之后为 %s）", ErrInvalidGridLayout, slots[i-1], slots[i])
		}
	}
	return Layout{
		Days:  append([]Weekday(nil), days...),
		Slots: append([]Clock(nil), slots...),
	}, nil
}

// DefaultLayout 周一至周五、08:00 至 17:00 整点
func DefaultLayout() Layout {
	slots := make([]Clock, 0, 10)
	for h := 8; h <= 17; h++ {
		slots = append(slots, Clock(h*60))
	}
	return Layout{
		Days:  []Weekday{Lundi, Mardi, Mercredi, Jeudi, Vendredi},
		Slots: slots,
	}
}

// ParseLayout 从星期名称与 "HH:MM" 标签构造布局
func ParseLayout(dayLabels, slotLabels []string) (Layout, error) {
	days := make([]Weekday, 0, len(dayLabels))
	for _, l := range dayLabels {
		d, err := ParseWeekday(l)
		if err != nil {
			return Layout{}, err
		}
		days = append(days, d)
	}
	slots := make([]Clock, 0, len(slotLabels))
	for _, l := range slotLabels {
		c, err := ParseClock(l)
		if err != nil {
			return Layout{}, err
		}
		slots = append(slots, c)
	}
	return NewLayout(days, slots)
}

// DayIndex 星期在布局中的列号，不存在返回 -1
func (l Layout) DayIndex(d Weekday) int {
	for i, day := range l.Days {
		if day == d {
			return i
		}
	}
	return -1
}

// SlotIndex 返回包含时刻 c 的时间段行号：第 i 行覆盖 [slot_i, slot_{i+1})，
// 最后一行覆盖 60 分钟；不在任何时间段内返回 -1
func (l Layout) SlotIndex(c Clock) int {
	for i := range l.Slots {
		if c >= l.Slots[i] && c < l.slotEnd(i) {
			return i
		}
	}
	return -1
}

func (l Layout) slotEnd(i int) Clock {
	if i+1 < len(l.Slots) {
		return l.Slots[i+1]
	}
	end := l.Slots[i] + 60
	if end > 24*60 {
		end = 24 * 60
	}
	return end
}

// Entry 单元格中的一个课次
type Entry struct {
	Occurrence
	RowSpan int // ceil(时长小时数)，至少 1，不超过剩余行数
}

// Cell 周视图单元格
//
// 同一起始单元格可能有多个课次（冲突或并列展示不同教室/班级），
// 全部保留在 Entries 中，不做后写覆盖。
type Cell struct {
	Entries []Entry
	Covered bool // 被上方课次的跨行覆盖
}

// Grid 可直接渲染的周视图
type Grid struct {
	Layout
	Cells      [][]Cell // [星期列][时间段行]
	TodayIndex int      // 今天在 Days 中的列号，不在布局内为 -1
	Unplaced   []Occurrence
}

// BuildWeekGrid 将课次投影到周视图
//
// 星期不在布局内、或开始时刻不落在任何时间段内的课次放入 Unplaced，
// 单元格永远不会引用布局之外的星期。now 仅用于计算 TodayIndex。
func BuildWeekGrid(occurrences []Occurrence, layout Layout, now time.Time) *Grid {
	g := &Grid{
		Layout:     layout,
		Cells:      make([][]Cell, len(layout.Days)),
		TodayIndex: layout.DayIndex(WeekdayOf(now)),
	}
	for i := range g.Cells {
		g.Cells[i] = make([]Cell, len(layout.Slots))
	}

	sorted := append([]Occurrence(nil), occurrences...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].SessionID < sorted[j].SessionID
	})

	for _, o := range sorted {
		col := layout.DayIndex(o.Day)
		row := layout.SlotIndex(ClockOf(o.Start))
		if col < 0 || row < 0 {
			g.Unplaced = append(g.Unplaced, o)
			continue
		}

		span := int(math.Ceil(o.DurationHours))
		if span < 1 {
			span = 1
		}
		if remaining := len(layout.Slots) - row; span > remaining {
			span = remaining
		}

		g.Cells[col][row].Entries = append(g.Cells[col][row].Entries, Entry{Occurrence: o, RowSpan: span})
		for k := 1; k < span; k++ {
			g.Cells[col][row+k].Covered = true
		}
	}

	return g
}
