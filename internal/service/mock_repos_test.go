package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"school-portal/internal/model"
	"school-portal/internal/repository"
	pkgerrors "school-portal/pkg/errors"
)

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes map[string]*model.Class
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.Class)}
}

func (m *mockClassRepo) Create(_ context.Context, class *model.Class) error {
	if class.ClassID == "" {
		class.ClassID = "class-" + class.Name
	}
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) List(_ context.Context) ([]model.Class, error) {
	result := make([]model.Class, 0, len(m.classes))
	for _, c := range m.classes {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockClassRepo) Update(_ context.Context, class *model.Class) error {
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.classes, id)
	return nil
}

func (m *mockClassRepo) Upsert(_ context.Context, classes []model.Class) error {
	for i := range classes {
		c := classes[i]
		m.classes[c.ClassID] = &c
	}
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		course.CourseID = "course-" + course.Name
	}
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	result := make([]model.Course, 0, len(m.courses))
	for _, c := range m.courses {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) Upsert(_ context.Context, courses []model.Course) error {
	for i := range courses {
		c := courses[i]
		m.courses[c.CourseID] = &c
	}
	return nil
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	timetables map[string]*model.Timetable
	sessions   *mockSessionRepo
}

func newMockTimetableRepo(sessions *mockSessionRepo) *mockTimetableRepo {
	return &mockTimetableRepo{timetables: make(map[string]*model.Timetable), sessions: sessions}
}

func (m *mockTimetableRepo) Create(_ context.Context, tt *model.Timetable) error {
	if tt.TimetableID == "" {
		tt.TimetableID = fmt.Sprintf("tt-%d", len(m.timetables)+1)
	}
	if tt.Version == 0 {
		tt.Version = 1
	}
	m.timetables[tt.TimetableID] = tt
	return nil
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.Timetable, error) {
	if tt, ok := m.timetables[id]; ok {
		cp := *tt
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) List(_ context.Context, filter repository.TimetableFilter) ([]model.TimetableWithCount, int64, error) {
	var filtered []model.TimetableWithCount
	for _, tt := range m.timetables {
		if filter.ClassID != "" && tt.ClassID != filter.ClassID {
			continue
		}
		if filter.Q != "" && !strings.Contains(strings.ToLower(tt.Title), strings.ToLower(filter.Q)) {
			continue
		}
		count := int64(0)
		for _, s := range m.sessions.sessions {
			if s.TimetableID == tt.TimetableID {
				count++
			}
		}
		filtered = append(filtered, model.TimetableWithCount{Timetable: *tt, SessionCount: count})
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].TimetableID < filtered[j].TimetableID })

	total := int64(len(filtered))
	if filter.Limit <= 0 {
		return filtered, total, nil
	}
	if filter.Offset >= len(filtered) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[filter.Offset:end], total, nil
}

func (m *mockTimetableRepo) ListOverlapping(_ context.Context, from, to *time.Time) ([]model.Timetable, error) {
	var result []model.Timetable
	for _, tt := range m.timetables {
		if tt.StartDate == nil || tt.EndDate == nil {
			continue
		}
		if from != nil && tt.EndDate.Before(*from) {
			continue
		}
		if to != nil && tt.StartDate.After(*to) {
			continue
		}
		result = append(result, *tt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TimetableID < result[j].TimetableID })
	return result, nil
}

func (m *mockTimetableRepo) Update(_ context.Context, tt *model.Timetable) error {
	existing, ok := m.timetables[tt.TimetableID]
	if !ok || existing.Version != tt.Version {
		return pkgerrors.ErrOptimisticLock
	}
	tt.Version++
	cp := *tt
	m.timetables[tt.TimetableID] = &cp
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.timetables[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.timetables, id)
	for sid, s := range m.sessions.sessions {
		if s.TimetableID == id {
			delete(m.sessions.sessions, sid)
		}
	}
	return nil
}

func (m *mockTimetableRepo) Upsert(_ context.Context, timetables []model.Timetable) error {
	for i := range timetables {
		tt := timetables[i]
		m.timetables[tt.TimetableID] = &tt
	}
	return nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.Session
	seq      int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.Session) error {
	if s.SessionID == "" {
		m.seq++
		s.SessionID = fmt.Sprintf("s-%03d", m.seq)
	}
	if s.Version == 0 {
		s.Version = 1
	}
	cp := *s
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) BatchCreate(ctx context.Context, sessions []model.Session) error {
	for i := range sessions {
		if err := m.Create(ctx, &sessions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) ListByTimetable(_ context.Context, timetableID string) ([]model.Session, error) {
	return m.ListByTimetables(context.Background(), []string{timetableID})
}

func (m *mockSessionRepo) ListByTimetables(_ context.Context, timetableIDs []string) ([]model.Session, error) {
	want := make(map[string]bool, len(timetableIDs))
	for _, id := range timetableIDs {
		want[id] = true
	}
	var result []model.Session
	for _, s := range m.sessions {
		if want[s.TimetableID] {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SessionID < result[j].SessionID })
	return result, nil
}

func (m *mockSessionRepo) Update(_ context.Context, s *model.Session) error {
	existing, ok := m.sessions[s.SessionID]
	if !ok || existing.Version != s.Version {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version++
	cp := *s
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.sessions, id)
	return nil
}

// Upsert 与 Postgres 的 ON CONFLICT DO UPDATE 一致：同一语句内不允许重复主键
func (m *mockSessionRepo) Upsert(_ context.Context, sessions []model.Session) error {
	seen := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		if seen[s.SessionID] {
			return fmt.Errorf("ON CONFLICT DO UPDATE command cannot affect row a second time: %s", s.SessionID)
		}
		seen[s.SessionID] = true
	}
	for i := range sessions {
		s := sessions[i]
		if s.Version == 0 {
			s.Version = 1
		}
		m.sessions[s.SessionID] = &s
	}
	return nil
}

// ── 测试夹具 ──

// mockRepos 一组互相关联的内存 Repository
type mockRepos struct {
	class     *mockClassRepo
	course    *mockCourseRepo
	timetable *mockTimetableRepo
	session   *mockSessionRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	sessions := newMockSessionRepo()
	m := &mockRepos{
		class:     newMockClassRepo(),
		course:    newMockCourseRepo(),
		timetable: newMockTimetableRepo(sessions),
		session:   sessions,
	}
	repo := &repository.Repository{
		Class:     m.class,
		Course:    m.course,
		Timetable: m.timetable,
		Session:   m.session,
	}
	return repo, m
}

func date(y int, mo time.Month, d int) *time.Time {
	t := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// seed 班级 c1 + 课程 k1/k2 + 课表 tt-1（2025-01-06 周一 ~ 2025-01-31）
func (m *mockRepos) seed() {
	m.class.classes["c1"] = &model.Class{ClassID: "c1", Name: "L3 Informatique"}
	m.class.classes["c2"] = &model.Class{ClassID: "c2", Name: "M1 Réseaux"}
	m.course.courses["k1"] = &model.Course{CourseID: "k1", Name: "Algorithmique", Code: "ALG"}
	m.course.courses["k2"] = &model.Course{CourseID: "k2", Name: "Bases de données", Code: "BDD"}

	tt := &model.Timetable{
		TimetableID: "tt-1",
		Title:       "S2 L3 Informatique",
		ClassID:     "c1",
		StartDate:   date(2025, 1, 6),
		EndDate:     date(2025, 1, 31),
	}
	tt.Version = 1
	m.timetable.timetables[tt.TimetableID] = tt
}

func (m *mockRepos) addSession(id, timetableID, weekday, start, end, room, courseID, classID string) {
	s := &model.Session{
		SessionID:   id,
		TimetableID: timetableID,
		Weekday:     weekday,
		StartTime:   start,
		EndTime:     end,
		Room:        room,
		SessionType: "CM",
		CourseID:    courseID,
		ClassID:     classID,
	}
	s.Version = 1
	m.session.sessions[id] = s
}
