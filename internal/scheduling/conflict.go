package scheduling

import (
	"sort"
	"strings"
	"time"
)

// ConflictReason 冲突维度
type ConflictReason string

const (
	ReasonRoom  ConflictReason = "room"  // 同日同教室时间重叠
	ReasonClass ConflictReason = "class" // 同日同班级时间重叠
)

// Conflict 两个课次的时间重叠（无序对，First < Second）
type Conflict struct {
	First        string
	Second       string
	Date         time.Time
	Reasons      []ConflictReason
	Room         string // 仅 room 冲突时填写
	ClassID      string // 仅 class 冲突时填写
	OverlapStart time.Time
	OverlapEnd   time.Time
}

// Has 是否包含指定冲突维度
func (c Conflict) Has(reason ConflictReason) bool {
	for _, r := range c.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// DetectConflicts 检测同日同教室、同日同班级的时间重叠
//
// 按 (日期, 教室) 与 (日期, 班级) 分别分组，组内按开始时间排序后扫描，
// 重叠判定为严格不等式 a.start < b.end && b.start < a.end，首尾相接不算冲突。
// 同一对课次在两个维度都冲突时只报告一次，Reasons 同时列出。
// 教室名比较忽略首尾空白与大小写；教室或班级为空的课次不参与对应维度。
func DetectConflicts(occurrences []Occurrence) []Conflict {
	d := &detector{found: make(map[[2]string]*Conflict)}
	d.sweep(occurrences, ReasonRoom, func(o Occurrence) string {
		return strings.ToUpper(strings.TrimSpace(o.Room))
	})
	d.sweep(occurrences, ReasonClass, func(o Occurrence) string {
		return o.ClassID
	})

	result := make([]Conflict, 0, len(d.found))
	for _, c := range d.found {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if result[i].First != result[j].First {
			return result[i].First < result[j].First
		}
		return result[i].Second < result[j].Second
	})
	return result
}

type detector struct {
	found map[[2]string]*Conflict
}

type partitionKey struct {
	date string
	key  string
}

func (d *detector) sweep(occurrences []Occurrence, reason ConflictReason, keyOf func(Occurrence) string) {
	groups := make(map[partitionKey][]Occurrence)
	for _, o := range occurrences {
		k := keyOf(o)
		if k == "" {
			continue
		}
		pk := partitionKey{date: o.Date.Format("2006-01-02"), key: k}
		groups[pk] = append(groups[pk], o)
	}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if !group[i].Start.Equal(group[j].Start) {
				return group[i].Start.Before(group[j].Start)
			}
			return group[i].SessionID < group[j].SessionID
		})
		for i := range group {
			// 组内开始时间单调不减：一旦 b.start >= a.end，后续都不会与 a 重叠
			for j := i + 1; j < len(group) && group[j].Start.Before(group[i].End); j++ {
				if group[i].SessionID == group[j].SessionID {
					continue
				}
				d.record(group[i], group[j], reason)
			}
		}
	}
}

func (d *detector) record(a, b Occurrence, reason ConflictReason) {
	if b.SessionID < a.SessionID {
		a, b = b, a
	}
	key := [2]string{a.SessionID, b.SessionID}
	c, ok := d.found[key]
	if !ok {
		c = &Conflict{
			First:        a.SessionID,
			Second:       b.SessionID,
			Date:         a.Date,
			OverlapStart: latest(a.Start, b.Start),
			OverlapEnd:   earliest(a.End, b.End),
		}
		d.found[key] = c
	}
	if c.Has(reason) {
		return
	}
	switch reason {
	case ReasonRoom:
		c.Room = a.Room
		// room 维度固定排在 class 之前
		c.Reasons = append([]ConflictReason{ReasonRoom}, c.Reasons...)
	case ReasonClass:
		c.ClassID = a.ClassID
		c.Reasons = append(c.Reasons, ReasonClass)
	}
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
