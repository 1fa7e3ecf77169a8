package scheduling

import (
	"testing"
	"time"
)

func occAt(id, room, class string, day int, start, end string) Occurrence {
	s, _ := ParseClock(start)
	e, _ := ParseClock(end)
	d := time.Date(2025, time.January, day, 0, 0, 0, 0, time.UTC)
	return Occurrence{
		SessionID:     id,
		Day:           WeekdayOf(d),
		Date:          d,
		Start:         at(d, s),
		End:           at(d, e),
		DurationHours: float64(e-s) / 60,
		Room:          room,
		ClassID:       class,
		Type:          Lecture,
	}
}

func TestDetectConflicts_TouchingIsNotConflict(t *testing.T) {
	occs := []Occurrence{
		occAt("a", "B204", "", 8, "10:00", "11:00"),
		occAt("b", "B204", "", 8, "10:30", "11:30"),
		occAt("c", "B204", "", 8, "11:00", "12:00"),
	}
	// a-b 重叠；b-c 重叠（11:00 < 11:30）；a-c 首尾相接不算
	got := DetectConflicts(occs)
	if len(got) != 2 {
		t.Fatalf("期望 2 个冲突，实际=%d: %+v", len(got), got)
	}
	for _, c := range got {
		if c.First == "a" && c.Second == "c" {
			t.Error("首尾相接的课次不应报告冲突")
		}
	}
}

func TestDetectConflicts_SingleOverlap(t *testing.T) {
	occs := []Occurrence{
		occAt("a", "B204", "", 8, "10:00", "11:00"),
		occAt("b", "B204", "", 8, "10:30", "11:30"),
		occAt("c", "B204", "", 8, "11:30", "12:00"),
	}
	got := DetectConflicts(occs)
	if len(got) != 1 {
		t.Fatalf("期望 1 个冲突，实际=%d", len(got))
	}
	c := got[0]
	if c.First != "a" || c.Second != "b" {
		t.Errorf("期望 (a,b)，实际 (%s,%s)", c.First, c.Second)
	}
	if !c.Has(ReasonRoom) || c.Has(ReasonClass) {
		t.Errorf("期望仅 room 冲突，实际=%v", c.Reasons)
	}
	wantStart := time.Date(2025, time.January, 8, 10, 30, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.January, 8, 11, 0, 0, 0, time.UTC)
	if !c.OverlapStart.Equal(wantStart) || !c.OverlapEnd.Equal(wantEnd) {
		t.Errorf("重叠区间错误: %v - %v", c.OverlapStart, c.OverlapEnd)
	}
}

func TestDetectConflicts_Symmetric(t *testing.T) {
	a := occAt("a", "B204", "L3", 8, "10:00", "11:00")
	b := occAt("b", "b204 ", "L3", 8, "10:30", "11:30")

	forward := DetectConflicts([]Occurrence{a, b})
	backward := DetectConflicts([]Occurrence{b, a})
	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("期望各 1 个冲突，实际 %d / %d", len(forward), len(backward))
	}
	if forward[0].First != backward[0].First || forward[0].Second != backward[0].Second {
		t.Error("冲突结果应与输入顺序无关")
	}
	// 教室名忽略大小写与空白，同时班级也冲突：只报告一次，两个原因
	reasons := forward[0].Reasons
	if len(reasons) != 2 || reasons[0] != ReasonRoom || reasons[1] != ReasonClass {
		t.Errorf("期望 [room class]，实际=%v", reasons)
	}
}

func TestDetectConflicts_PartitionsByDateAndKey(t *testing.T) {
	occs := []Occurrence{
		occAt("a", "B204", "L1", 8, "10:00", "11:00"),
		occAt("b", "B204", "L2", 9, "10:00", "11:00"), // 不同日期
		occAt("c", "A101", "L3", 8, "10:00", "11:00"), // 不同教室、不同班级
		occAt("d", "", "", 8, "10:00", "11:00"),       // 空键不参与分组
	}
	if got := DetectConflicts(occs); len(got) != 0 {
		t.Errorf("期望无冲突，实际=%+v", got)
	}
}

func TestDetectConflicts_ClassOnly(t *testing.T) {
	occs := []Occurrence{
		occAt("x", "A101", "L1", 8, "08:00", "10:00"),
		occAt("y", "A102", "L1", 8, "09:00", "09:30"),
	}
	got := DetectConflicts(occs)
	if len(got) != 1 || !got[0].Has(ReasonClass) || got[0].Has(ReasonRoom) {
		t.Fatalf("期望 1 个 class 冲突，实际=%+v", got)
	}
	if got[0].ClassID != "L1" || got[0].Room != "" {
		t.Errorf("冲突维度字段错误: %+v", got[0])
	}
}

func TestDetectConflicts_Empty(t *testing.T) {
	if got := DetectConflicts(nil); len(got) != 0 {
		t.Errorf("空输入应返回空结果，实际=%d", len(got))
	}
}
