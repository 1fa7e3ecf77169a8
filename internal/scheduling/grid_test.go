package scheduling

import (
	"errors"
	"testing"
	"time"
)

func defaultLayout(t *testing.T) Layout {
	t.Helper()
	l, err := ParseLayout(
		[]string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi"},
		[]string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"},
	)
	if err != nil {
		t.Fatalf("默认布局应合法: %v", err)
	}
	return l
}

func TestParseLayout_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		days  []string
		slots []string
		want  error
	}{
		{"空星期", nil, []string{"08:00"}, ErrInvalidGridLayout},
		{"空时间段", []string{"Lundi"}, nil, ErrInvalidGridLayout},
		{"重复星期", []string{"Lundi", "Lundi"}, []string{"08:00"}, ErrInvalidGridLayout},
		{"时间段未排序", []string{"Lundi"}, []string{"09:00", "08:00"}, ErrInvalidGridLayout},
		{"时间段重复", []string{"Lundi"}, []string{"08:00", "08:00"}, ErrInvalidGridLayout},
		{"未知星期", []string{"Monday"}, []string{"08:00"}, ErrInvalidWeekday},
		{"时间格式错误", []string{"Lundi"}, []string{"8h"}, ErrInvalidTimeFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLayout(tt.days, tt.slots); !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestLayout_SlotIndex(t *testing.T) {
	l := defaultLayout(t)
	cases := map[string]int{
		"07:59": -1,
		"08:00": 0,
		"08:30": 0,
		"09:00": 1,
		"17:00": 9,
		"17:59": 9,
		"18:00": -1,
	}
	for label, want := range cases {
		c, _ := ParseClock(label)
		if got := l.SlotIndex(c); got != want {
			t.Errorf("%s: 期望行号 %d，实际=%d", label, want, got)
		}
	}
}

func TestBuildWeekGrid_SpanAndCovered(t *testing.T) {
	l := defaultLayout(t)
	// 2025-01-08 为周三
	occs := []Occurrence{
		occAt("m", "B204", "L1", 8, "10:00", "11:30"),
	}
	now := time.Date(2025, time.January, 8, 9, 0, 0, 0, time.UTC)
	g := BuildWeekGrid(occs, l, now)

	if g.TodayIndex != 2 {
		t.Errorf("期望今天列号 2，实际=%d", g.TodayIndex)
	}
	cell := g.Cells[2][2]
	if len(cell.Entries) != 1 {
		t.Fatalf("期望 (周三,10:00) 有 1 个课次，实际=%d", len(cell.Entries))
	}
	if cell.Entries[0].RowSpan != 2 {
		t.Errorf("1.5 小时应跨 2 行，实际=%d", cell.Entries[0].RowSpan)
	}
	if !g.Cells[2][3].Covered {
		t.Error("11:00 单元格应被覆盖")
	}
	if g.Cells[2][4].Covered {
		t.Error("12:00 单元格不应被覆盖")
	}
	if len(g.Unplaced) != 0 {
		t.Errorf("不应有未放置课次，实际=%d", len(g.Unplaced))
	}
}

func TestBuildWeekGrid_Unplaced(t *testing.T) {
	l := defaultLayout(t)
	occs := []Occurrence{
		occAt("sat", "A1", "L1", 11, "10:00", "11:00"),  // 周六，不在布局
		occAt("early", "A1", "L1", 6, "07:00", "08:00"), // 早于首个时间段
		occAt("ok", "A1", "L1", 6, "08:00", "09:00"),
	}
	g := BuildWeekGrid(occs, l, time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC))

	if len(g.Unplaced) != 2 {
		t.Fatalf("期望 2 个未放置课次，实际=%d", len(g.Unplaced))
	}
	if g.TodayIndex != -1 {
		t.Errorf("周日不在布局内，期望 -1，实际=%d", g.TodayIndex)
	}
	if len(g.Cells) != len(l.Days) {
		t.Errorf("列数应等于布局星期数，实际=%d", len(g.Cells))
	}
	if len(g.Cells[0][0].Entries) != 1 || g.Cells[0][0].Entries[0].SessionID != "ok" {
		t.Errorf("周一 08:00 应放置 ok，实际=%+v", g.Cells[0][0].Entries)
	}
}

func TestBuildWeekGrid_CollisionKeepsAll(t *testing.T) {
	l := defaultLayout(t)
	occs := []Occurrence{
		occAt("b", "A2", "L2", 6, "09:00", "10:00"),
		occAt("a", "A1", "L1", 6, "09:00", "10:00"),
	}
	g := BuildWeekGrid(occs, l, time.Time{})
	entries := g.Cells[0][1].Entries
	if len(entries) != 2 {
		t.Fatalf("同一单元格应保留 2 个课次，实际=%d", len(entries))
	}
	if entries[0].SessionID != "a" || entries[1].SessionID != "b" {
		t.Errorf("同时开始时应按 id 排序，实际 %s,%s", entries[0].SessionID, entries[1].SessionID)
	}
}

func TestBuildWeekGrid_SpanCappedAtLastRow(t *testing.T) {
	l := defaultLayout(t)
	occs := []Occurrence{occAt("late", "A1", "L1", 10, "16:00", "19:00")}
	g := BuildWeekGrid(occs, l, time.Time{})
	// 周五 16:00 = 第 8 行，剩余 2 行
	e := g.Cells[4][8].Entries
	if len(e) != 1 || e[0].RowSpan != 2 {
		t.Fatalf("跨行数应截断为 2，实际=%+v", e)
	}
	if !g.Cells[4][9].Covered {
		t.Error("17:00 应被覆盖")
	}
}

func TestDefaultLayout_MatchesParsed(t *testing.T) {
	parsed := defaultLayout(t)
	def := DefaultLayout()
	if len(def.Days) != len(parsed.Days) || len(def.Slots) != len(parsed.Slots) {
		t.Fatalf("默认布局尺寸不一致: %d×%d", len(def.Days), len(def.Slots))
	}
	for i := range def.Slots {
		if def.Slots[i] != parsed.Slots[i] {
			t.Errorf("第 %d 个时间段不一致: %s vs %s", i, def.Slots[i], parsed.Slots[i])
		}
	}
}
