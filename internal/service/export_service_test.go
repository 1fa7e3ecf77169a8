package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"school-portal/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (*exportService, *mockRepos) {
	repo, mocks := newMockRepos()
	mocks.seed()
	svc := NewExportService(testScheduleConfig(), repo, zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC) }
	return svc, mocks
}

// ── ExportICS ──

func TestExportService_ExportICS(t *testing.T) {
	svc, mocks := setupTestExportService()
	mocks.addSession("s1", "tt-1", "Mercredi", "10:00", "11:30", "B204", "k1", "c1")

	buf, filename, err := svc.ExportICS(context.Background(), "tt-1")
	if err != nil {
		t.Fatalf("导出 ICS 失败: %v", err)
	}
	if filename != "S2 L3 Informatique.ics" {
		t.Errorf("文件名不正确: %s", filename)
	}

	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:s1@school-portal",
		"SUMMARY:Algorithmique",
		"LOCATION:B204",
		"CATEGORIES:CM",
		"RRULE:FREQ=WEEKLY",
		"UNTIL=20250131T235959Z",
		"DTSTART:20250108T100000Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ICS 中缺少 %q", want)
		}
	}
}

func TestExportService_ExportICS_RoundTrip(t *testing.T) {
	svc, mocks := setupTestExportService()
	mocks.addSession("s1", "tt-1", "Mercredi", "10:00", "11:30", "B204", "k1", "c1")

	buf, _, err := svc.ExportICS(context.Background(), "tt-1")
	if err != nil {
		t.Fatalf("导出 ICS 失败: %v", err)
	}
	events, failed, err := ParseICS(buf, time.UTC)
	if err != nil || len(failed) != 0 {
		t.Fatalf("导出结果应可被重新解析: %v / %+v", err, failed)
	}
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件，实际 %d", len(events))
	}
	e := events[0]
	if e.Weekday != "Mercredi" || e.StartTime != "10:00" || e.EndTime != "11:30" || e.Room != "B204" || e.Type != "CM" {
		t.Errorf("往返结果不一致: %+v", e)
	}
}

func TestExportService_ExportICS_LocalTimeAcrossDST(t *testing.T) {
	repo, mocks := newMockRepos()
	mocks.seed()
	mocks.timetable.timetables["tt-1"].EndDate = date(2025, 6, 30)
	mocks.addSession("s1", "tt-1", "Mercredi", "10:00", "11:30", "B204", "k1", "c1")

	cfg := testScheduleConfig()
	cfg.Timezone = "Europe/Paris"
	svc := NewExportService(cfg, repo, zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC) }

	buf, _, err := svc.ExportICS(context.Background(), "tt-1")
	if err != nil {
		t.Fatalf("导出 ICS 失败: %v", err)
	}
	out := buf.String()

	// 墙上时间 + TZID，每周重复在 3 月 30 日切换后仍是 10:00
	for _, want := range []string{
		"DTSTART;TZID=Europe/Paris:20250108T100000",
		"DTEND;TZID=Europe/Paris:20250108T113000",
		"UNTIL=20250630T215959Z",
		"BEGIN:VTIMEZONE",
		"TZID:Europe/Paris",
		"BEGIN:STANDARD",
		"BEGIN:DAYLIGHT",
		"DTSTART:20250330T020000",
		"TZOFFSETFROM:+0100",
		"TZOFFSETTO:+0200",
		"TZNAME:CEST",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ICS 中缺少 %q", want)
		}
	}
	if strings.Contains(out, "DTSTART:20250108T090000Z") {
		t.Error("事件起始时间不应写成 UTC")
	}
	if strings.Index(out, "BEGIN:VTIMEZONE") > strings.Index(out, "BEGIN:VEVENT") {
		t.Error("VTIMEZONE 应位于 VEVENT 之前")
	}

	paris, _ := time.LoadLocation("Europe/Paris")
	events, failed, err := ParseICS(strings.NewReader(out), paris)
	if err != nil || len(failed) != 0 || len(events) != 1 {
		t.Fatalf("导出结果应可被重新解析: %v / %+v / %d", err, failed, len(events))
	}
	if e := events[0]; e.Weekday != "Mercredi" || e.StartTime != "10:00" || e.EndTime != "11:30" {
		t.Errorf("往返结果不一致: %+v", e)
	}
}

func TestFormatUTCOffset(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{3600, "+0100"},
		{7200, "+0200"},
		{0, "+0000"},
		{-5 * 3600, "-0500"},
		{5*3600 + 1800, "+0530"},
	}
	for _, tt := range tests {
		if got := formatUTCOffset(tt.in); got != tt.want {
			t.Errorf("formatUTCOffset(%d) = %s，期望 %s", tt.in, got, tt.want)
		}
	}
}

func TestExportService_ExportICS_SkipsOutOfRange(t *testing.T) {
	svc, mocks := setupTestExportService()
	// 周一、周二两天的课表，周四课次的首次出现在区间之外
	short := &model.Timetable{
		TimetableID: "tt-short", Title: "Court", ClassID: "c1",
		StartDate: date(2025, 1, 6), EndDate: date(2025, 1, 7),
	}
	mocks.timetable.timetables["tt-short"] = short
	mocks.addSession("s1", "tt-short", "Jeudi", "10:00", "11:00", "B204", "k1", "c1")

	_, _, err := svc.ExportICS(context.Background(), "tt-short")
	if !errors.Is(err, ErrExportNoSessions) {
		t.Errorf("期望 ErrExportNoSessions，实际: %v", err)
	}
}

func TestExportService_NoSessions(t *testing.T) {
	svc, _ := setupTestExportService()

	if _, _, err := svc.ExportICS(context.Background(), "tt-1"); !errors.Is(err, ErrExportNoSessions) {
		t.Errorf("ICS 期望 ErrExportNoSessions，实际: %v", err)
	}
	if _, _, err := svc.ExportGrid(context.Background(), "tt-1"); !errors.Is(err, ErrExportNoSessions) {
		t.Errorf("Excel 期望 ErrExportNoSessions，实际: %v", err)
	}
	if _, _, err := svc.ExportICS(context.Background(), "missing"); !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("期望 ErrTimetableNotFound，实际: %v", err)
	}
}

// ── ExportGrid ──

func TestExportService_ExportGrid(t *testing.T) {
	svc, mocks := setupTestExportService()
	mocks.addSession("s1", "tt-1", "Mercredi", "10:00", "11:30", "B204", "k1", "c1")
	mocks.addSession("s2", "tt-1", "Samedi", "09:00", "10:00", "A101", "k2", "c1")

	buf, filename, err := svc.ExportGrid(context.Background(), "tt-1")
	if err != nil {
		t.Fatalf("导出 Excel 失败: %v", err)
	}
	if filename != "S2 L3 Informatique.xlsx" {
		t.Errorf("文件名不正确: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法打开生成的 Excel: %v", err)
	}
	defer f.Close()

	const sheet = "Emploi du temps"
	header, _ := f.GetCellValue(sheet, "D2")
	if header != "Mercredi" {
		t.Errorf("D2 期望 Mercredi，实际 %q", header)
	}
	slot, _ := f.GetCellValue(sheet, "A5")
	if slot != "10:00" {
		t.Errorf("A5 期望 10:00，实际 %q", slot)
	}
	entry, _ := f.GetCellValue(sheet, "D5")
	if entry != "Algorithmique (CM)\nB204" {
		t.Errorf("D5 内容不正确: %q", entry)
	}

	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		t.Fatalf("读取合并单元格失败: %v", err)
	}
	found := false
	for _, m := range merged {
		if m.GetStartAxis() == "D5" && m.GetEndAxis() == "D6" {
			found = true
		}
	}
	if !found {
		t.Error("跨 2 行的课次应合并 D5:D6")
	}

	if idx, err := f.GetSheetIndex("Hors grille"); err != nil || idx < 0 {
		t.Error("Samedi 课次应写入 Hors grille 工作表")
	}
	course, _ := f.GetCellValue("Hors grille", "E2")
	if course != "Bases de données" {
		t.Errorf("Hors grille E2 期望课程名，实际 %q", course)
	}
}

func TestExportFilename(t *testing.T) {
	tests := map[string]string{
		"S2 / L3":  "S2 _ L3.ics",
		"  ":       "emploi_du_temps.ics",
		"Planning": "Planning.ics",
	}
	for in, want := range tests {
		if got := exportFilename(in, "ics"); got != want {
			t.Errorf("exportFilename(%q) = %q，期望 %q", in, got, want)
		}
	}
}
