package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"school-portal/config"
	"school-portal/internal/dto"
	"school-portal/internal/model"
	"school-portal/internal/scheduling"
	pkgerrors "school-portal/pkg/errors"
)

// ── 测试辅助 ──

func testScheduleConfig() *config.ScheduleConfig {
	return &config.ScheduleConfig{
		Timezone: "UTC",
		GridDays: []string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi"},
		GridSlots: []string{
			"08:00", "09:00", "10:00", "11:00", "12:00",
			"13:00", "14:00", "15:00", "16:00", "17:00",
		},
	}
}

func setupTestTimetableService() (TimetableService, *mockRepos) {
	repo, mocks := newMockRepos()
	mocks.seed()
	return NewTimetableService(testScheduleConfig(), repo, zap.NewNop()), mocks
}

func strPtr(s string) *string { return &s }

// ════════════════════════════════════════════════════════════
// TimetableService
// ════════════════════════════════════════════════════════════

func TestTimetableService_Create(t *testing.T) {
	svc, _ := setupTestTimetableService()

	resp, err := svc.Create(context.Background(), &dto.CreateTimetableRequest{
		Title:     "S1 M1 Réseaux",
		ClassID:   "c2",
		StartDate: "2025-09-01",
		EndDate:   "2025-12-19",
	}, "admin-1")
	if err != nil {
		t.Fatalf("创建课表失败: %v", err)
	}
	if resp.Class == nil || resp.Class.Name != "M1 Réseaux" {
		t.Errorf("期望班级名称 M1 Réseaux，实际 %+v", resp.Class)
	}
	if resp.StartDate != "2025-09-01" || resp.EndDate != "2025-12-19" {
		t.Errorf("日期不正确: %s ~ %s", resp.StartDate, resp.EndDate)
	}
	if resp.Version != 1 || resp.SessionCount != 0 {
		t.Errorf("期望 version=1 session_count=0，实际 %d / %d", resp.Version, resp.SessionCount)
	}
}

func TestTimetableService_Create_Invalid(t *testing.T) {
	svc, _ := setupTestTimetableService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.CreateTimetableRequest
		want error
	}{
		{"结束早于开始", dto.CreateTimetableRequest{Title: "x", ClassID: "c1", StartDate: "2025-02-01", EndDate: "2025-01-31"}, ErrTimetableDateInvalid},
		{"日期格式错误", dto.CreateTimetableRequest{Title: "x", ClassID: "c1", StartDate: "01/02/2025", EndDate: "2025-03-01"}, ErrTimetableDateInvalid},
		{"班级不存在", dto.CreateTimetableRequest{Title: "x", ClassID: "nope", StartDate: "2025-01-01", EndDate: "2025-01-31"}, ErrClassNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &tt.req, "admin-1")
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestTimetableService_Create_SingleDayRange(t *testing.T) {
	svc, _ := setupTestTimetableService()
	_, err := svc.Create(context.Background(), &dto.CreateTimetableRequest{
		Title: "Journée", ClassID: "c1", StartDate: "2025-03-03", EndDate: "2025-03-03",
	}, "admin-1")
	if err != nil {
		t.Errorf("起止同日应合法，实际: %v", err)
	}
}

func TestTimetableService_GetByID(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	mocks.addSession("s1", "tt-1", "Lundi", "08:00", "10:00", "A101", "k1", "c1")
	mocks.addSession("s2", "tt-1", "Mardi", "08:00", "10:00", "A101", "k1", "c1")

	resp, err := svc.GetByID(context.Background(), "tt-1")
	if err != nil {
		t.Fatalf("查询课表失败: %v", err)
	}
	if resp.SessionCount != 2 {
		t.Errorf("期望 2 个课次，实际 %d", resp.SessionCount)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("期望 ErrTimetableNotFound，实际: %v", err)
	}
}

func TestTimetableService_List_Filters(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	ctx := context.Background()
	_, _ = svc.Create(ctx, &dto.CreateTimetableRequest{
		Title: "S1 M1 Réseaux", ClassID: "c2", StartDate: "2025-09-01", EndDate: "2025-12-19",
	}, "admin-1")
	mocks.addSession("s1", "tt-1", "Lundi", "08:00", "10:00", "A101", "k1", "c1")

	all, total, err := svc.List(ctx, &dto.TimetableListRequest{})
	if err != nil {
		t.Fatalf("列出课表失败: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("期望 2 个课表，实际 total=%d len=%d", total, len(all))
	}

	byQ, _, _ := svc.List(ctx, &dto.TimetableListRequest{Q: "réseaux"})
	if len(byQ) != 1 || byQ[0].Class.ID != "c2" {
		t.Errorf("标题搜索应不区分大小写，实际 %+v", byQ)
	}

	byClass, _, _ := svc.List(ctx, &dto.TimetableListRequest{ClassID: "c1"})
	if len(byClass) != 1 || byClass[0].SessionCount != 1 {
		t.Fatalf("按班级过滤失败: %+v", byClass)
	}
	if byClass[0].Class.Name != "L3 Informatique" {
		t.Errorf("列表应带班级名称，实际 %+v", byClass[0].Class)
	}
}

func TestTimetableService_Update_OptimisticLock(t *testing.T) {
	svc, _ := setupTestTimetableService()
	ctx := context.Background()

	resp, err := svc.Update(ctx, "tt-1", &dto.UpdateTimetableRequest{Title: strPtr("S2 bis"), Version: 1}, "admin-1")
	if err != nil {
		t.Fatalf("更新课表失败: %v", err)
	}
	if resp.Title != "S2 bis" || resp.Version != 2 {
		t.Errorf("期望标题 S2 bis version=2，实际 %s / %d", resp.Title, resp.Version)
	}

	// 旧版本号再次提交
	_, err = svc.Update(ctx, "tt-1", &dto.UpdateTimetableRequest{Title: strPtr("stale"), Version: 1}, "admin-2")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestTimetableService_Update_DateRangeRevalidated(t *testing.T) {
	svc, _ := setupTestTimetableService()

	// 只改结束日期，使其早于既有开始日期
	_, err := svc.Update(context.Background(), "tt-1", &dto.UpdateTimetableRequest{
		EndDate: strPtr("2025-01-01"), Version: 1,
	}, "admin-1")
	if !errors.Is(err, ErrTimetableDateInvalid) {
		t.Errorf("期望 ErrTimetableDateInvalid，实际: %v", err)
	}
}

func TestTimetableService_Update_RangeMustKeepSessionsReachable(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	ctx := context.Background()
	mocks.addSession("s1", "tt-1", "Vendredi", "10:00", "12:00", "A101", "k1", "c1")
	mocks.addSession("s2", "tt-1", "Lundi", "08:00", "10:00", "A102", "k2", "c1")

	// 2025-01-06 周一 ~ 2025-01-08 周三：周五不再可达
	_, err := svc.Update(ctx, "tt-1", &dto.UpdateTimetableRequest{
		EndDate: strPtr("2025-01-08"), Version: 1,
	}, "admin-1")
	if !errors.Is(err, ErrWeekdayOutOfRange) {
		t.Fatalf("期望 ErrWeekdayOutOfRange，实际: %v", err)
	}
	if !strings.Contains(err.Error(), "s1") || strings.Contains(err.Error(), "s2") {
		t.Errorf("错误信息应只列出不可达课次 s1，实际: %v", err)
	}
	stored := mocks.timetable.timetables["tt-1"]
	if stored.Version != 1 || formatDate(stored.EndDate) != "2025-01-31" {
		t.Errorf("被拒绝的更新不应落库，实际 version=%d end=%s", stored.Version, formatDate(stored.EndDate))
	}

	// 区间仍覆盖周一和周五时允许缩短
	resp, err := svc.Update(ctx, "tt-1", &dto.UpdateTimetableRequest{
		EndDate: strPtr("2025-01-10"), Version: 1,
	}, "admin-1")
	if err != nil {
		t.Fatalf("缩短区间失败: %v", err)
	}
	if resp.EndDate != "2025-01-10" || resp.SessionCount != 2 {
		t.Errorf("期望 end=2025-01-10 session_count=2，实际 %s / %d", resp.EndDate, resp.SessionCount)
	}
}

func TestTimetableService_Update_ClassMovesDefaultedSessions(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	mocks.class.classes["c3"] = &model.Class{ClassID: "c3", Name: "L3 Mathématiques"}
	mocks.addSession("s1", "tt-1", "Lundi", "08:00", "10:00", "A101", "k1", "c1")
	mocks.addSession("s2", "tt-1", "Mardi", "08:00", "10:00", "A102", "k2", "c3")

	resp, err := svc.Update(context.Background(), "tt-1", &dto.UpdateTimetableRequest{
		ClassID: strPtr("c2"), Version: 1,
	}, "admin-1")
	if err != nil {
		t.Fatalf("修改课表班级失败: %v", err)
	}
	if resp.Class == nil || resp.Class.ID != "c2" {
		t.Errorf("期望课表班级 c2，实际 %+v", resp.Class)
	}
	if got := mocks.session.sessions["s1"].ClassID; got != "c2" {
		t.Errorf("沿用旧班级的课次应迁移到 c2，实际 %s", got)
	}
	if got := mocks.session.sessions["s2"].ClassID; got != "c3" {
		t.Errorf("显式指定班级的课次不应变化，实际 %s", got)
	}
	if got := mocks.session.sessions["s1"].Version; got != 2 {
		t.Errorf("迁移后的课次 version 应递增为 2，实际 %d", got)
	}
}

func TestTimetableService_Delete_Cascades(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	mocks.addSession("s1", "tt-1", "Lundi", "08:00", "10:00", "A101", "k1", "c1")

	if err := svc.Delete(context.Background(), "tt-1", "admin-1"); err != nil {
		t.Fatalf("删除课表失败: %v", err)
	}
	if len(mocks.session.sessions) != 0 {
		t.Errorf("课次应随课表删除，剩余 %d", len(mocks.session.sessions))
	}
	if err := svc.Delete(context.Background(), "tt-1", "admin-1"); !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("重复删除期望 ErrTimetableNotFound，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// SessionService
// ════════════════════════════════════════════════════════════

func setupTestSessionService() (SessionService, *mockRepos) {
	repo, mocks := newMockRepos()
	mocks.seed()
	return NewSessionService(testScheduleConfig(), repo, zap.NewNop()), mocks
}

func TestSessionService_Create_DefaultsClass(t *testing.T) {
	svc, _ := setupTestSessionService()

	resp, err := svc.Create(context.Background(), "tt-1", &dto.CreateSessionRequest{
		Weekday: "Mercredi", StartTime: "10:00", EndTime: "11:30",
		Room: "B204", SessionType: "CM", CourseID: "k1",
	}, "teacher-1")
	if err != nil {
		t.Fatalf("创建课次失败: %v", err)
	}
	if resp.Class == nil || resp.Class.ID != "c1" || resp.Class.Name != "L3 Informatique" {
		t.Errorf("班级应默认取课表班级，实际 %+v", resp.Class)
	}
	if resp.Course == nil || resp.Course.Name != "Algorithmique" {
		t.Errorf("课程名称缺失: %+v", resp.Course)
	}
	if resp.Version != 1 {
		t.Errorf("期望 version=1，实际 %d", resp.Version)
	}
}

func TestSessionService_Create_Validation(t *testing.T) {
	repo, mocks := newMockRepos()
	mocks.seed()
	// 两天的课表：周一、周二
	short := *mocks.timetable.timetables["tt-1"]
	short.TimetableID = "tt-short"
	short.EndDate = date(2025, 1, 7)
	mocks.timetable.timetables["tt-short"] = &short
	svc := NewSessionService(testScheduleConfig(), repo, zap.NewNop())

	base := dto.CreateSessionRequest{
		Weekday: "Lundi", StartTime: "08:00", EndTime: "10:00", SessionType: "TD", CourseID: "k1",
	}
	tests := []struct {
		name        string
		timetableID string
		mutate      func(r *dto.CreateSessionRequest)
		want        error
	}{
		{"星期不可达", "tt-short", func(r *dto.CreateSessionRequest) { r.Weekday = "Jeudi" }, ErrWeekdayOutOfRange},
		{"结束等于开始", "tt-1", func(r *dto.CreateSessionRequest) { r.EndTime = "08:00" }, scheduling.ErrInvalidInterval},
		{"类型无效", "tt-1", func(r *dto.CreateSessionRequest) { r.SessionType = "XX" }, scheduling.ErrInvalidSessionType},
		{"课程不存在", "tt-1", func(r *dto.CreateSessionRequest) { r.CourseID = "nope" }, ErrCourseNotFound},
		{"班级不存在", "tt-1", func(r *dto.CreateSessionRequest) { r.ClassID = "nope" }, ErrClassNotFound},
		{"课表不存在", "missing", func(r *dto.CreateSessionRequest) {}, ErrTimetableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), tt.timetableID, &req, "teacher-1")
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
	if len(mocks.session.sessions) != 0 {
		t.Errorf("校验失败时不应写入课次，实际 %d", len(mocks.session.sessions))
	}
}

func TestSessionService_Update(t *testing.T) {
	svc, mocks := setupTestSessionService()
	mocks.addSession("s1", "tt-1", "Lundi", "08:00", "10:00", "A101", "k1", "c1")
	ctx := context.Background()

	resp, err := svc.Update(ctx, "s1", &dto.UpdateSessionRequest{
		Room: strPtr("B204"), CourseID: strPtr("k2"), Version: 1,
	}, "teacher-1")
	if err != nil {
		t.Fatalf("更新课次失败: %v", err)
	}
	if resp.Room != "B204" || resp.Course.Name != "Bases de données" || resp.Version != 2 {
		t.Errorf("更新结果不正确: %+v", resp)
	}

	_, err = svc.Update(ctx, "s1", &dto.UpdateSessionRequest{Room: strPtr("C1"), Version: 1}, "teacher-1")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}

	_, err = svc.Update(ctx, "s1", &dto.UpdateSessionRequest{StartTime: strPtr("11:00"), Version: 2}, "teacher-1")
	if !errors.Is(err, scheduling.ErrInvalidInterval) {
		t.Errorf("开始晚于结束期望 ErrInvalidInterval，实际: %v", err)
	}
}

func TestSessionService_ListAndDelete(t *testing.T) {
	svc, mocks := setupTestSessionService()
	mocks.addSession("s1", "tt-1", "Lundi", "08:00", "10:00", "A101", "k1", "c1")
	mocks.addSession("s2", "tt-1", "Mardi", "08:00", "10:00", "A101", "k2", "c1")
	ctx := context.Background()

	list, err := svc.ListByTimetable(ctx, "tt-1")
	if err != nil || len(list) != 2 {
		t.Fatalf("期望 2 个课次，实际 %d (err=%v)", len(list), err)
	}
	if list[1].Course.Name != "Bases de données" {
		t.Errorf("列表应带课程名称，实际 %+v", list[1].Course)
	}

	if err := svc.Delete(ctx, "s1", "teacher-1"); err != nil {
		t.Fatalf("删除课次失败: %v", err)
	}
	if _, err := svc.GetByID(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
	if _, err := svc.ListByTimetable(ctx, "missing"); !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("期望 ErrTimetableNotFound，实际: %v", err)
	}
}
