package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"lms-progress/internal/model"
	"lms-progress/internal/repository"
)

// ── Mock ProgressRepository ──

type mockProgressRepo struct {
	mu         sync.Mutex
	records    map[string]*model.ProgressRecord
	updateErr  map[string]error
	updateCall int
	seq        int
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{
		records:   make(map[string]*model.ProgressRecord),
		updateErr: make(map[string]error),
	}
}

func copyRecord(r *model.ProgressRecord) *model.ProgressRecord {
	c := *r
	c.ProjectLinks = append(pq.StringArray{}, r.ProjectLinks...)
	return &c
}

func (m *mockProgressRepo) add(r *model.ProgressRecord) *model.ProgressRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ProgressID == "" {
		m.seq++
		r.ProgressID = fmt.Sprintf("p-%d", m.seq)
	}
	if r.Status == "" {
		r.Status = model.StatusNotStarted
	}
	m.records[r.ProgressID] = copyRecord(r)
	return r
}

func (m *mockProgressRepo) get(id string) *model.ProgressRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return copyRecord(r)
	}
	return nil
}

func (m *mockProgressRepo) Create(_ context.Context, r *model.ProgressRecord) error {
	m.add(r)
	return nil
}

func (m *mockProgressRepo) GetOrCreate(ctx context.Context, studentID, courseID string) (*model.ProgressRecord, error) {
	if r, err := m.FindByStudentAndCourse(ctx, studentID, courseID); err == nil {
		return r, nil
	}
	r := m.add(&model.ProgressRecord{StudentID: studentID, CourseID: courseID})
	return copyRecord(r), nil
}

func (m *mockProgressRepo) GetByID(_ context.Context, id string) (*model.ProgressRecord, error) {
	if r := m.get(id); r != nil {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgressRepo) FindByStudentAndCourse(_ context.Context, studentID, courseID string) (*model.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.StudentID == studentID && r.CourseID == courseID {
			return copyRecord(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgressRepo) filter(keep func(r *model.ProgressRecord) bool) []model.ProgressRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ProgressRecord
	for _, r := range m.records {
		if keep(r) {
			result = append(result, *copyRecord(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProgressID < result[j].ProgressID })
	return result
}

func (m *mockProgressRepo) FindByStudentID(_ context.Context, studentID string) ([]model.ProgressRecord, error) {
	return m.filter(func(r *model.ProgressRecord) bool { return r.StudentID == studentID }), nil
}

func (m *mockProgressRepo) FindByCourse(_ context.Context, courseID string) ([]model.ProgressRecord, error) {
	return m.filter(func(r *model.ProgressRecord) bool { return r.CourseID == courseID }), nil
}

func (m *mockProgressRepo) ListByStatus(_ context.Context, status model.ProgressStatus, offset, limit int) ([]model.ProgressRecord, int64, error) {
	all := m.filter(func(r *model.ProgressRecord) bool { return r.Status == status })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.ProgressRecord{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockProgressRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	if err := model.CheckStatusField(fields); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCall++
	if err := m.updateErr[id]; err != nil {
		return err
	}
	r, ok := m.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "completed_sessions":
			r.CompletedSessions = v.(int)
		case "projects_submitted":
			r.ProjectsSubmitted = v.(int)
		case "project_links":
			switch links := v.(type) {
			case pq.StringArray:
				r.ProjectLinks = append(pq.StringArray{}, links...)
			case []string:
				r.ProjectLinks = append(pq.StringArray{}, links...)
			}
		case "status":
			r.Status = v.(model.ProgressStatus)
		case "rejection_reason":
			if v == nil {
				r.RejectionReason = nil
			} else {
				s := v.(string)
				r.RejectionReason = &s
			}
		case "approved_at":
			t := v.(time.Time)
			r.ApprovedAt = &t
		case "completed_at":
			t := v.(time.Time)
			r.CompletedAt = &t
		case "approved_by":
			s := v.(string)
			r.ApprovedBy = &s
		case "updated_by":
			s := v.(string)
			r.UpdatedBy = &s
		default:
			return fmt.Errorf("unexpected field %q", k)
		}
	}
	r.UpdatedAt = time.Now()
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByIDs(_ context.Context, ids []string) ([]model.Course, error) {
	var result []model.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) FindBySemester(_ context.Context, semesterID string) ([]model.Course, error) {
	return m.FindBySemesters(context.Background(), []string{semesterID})
}

// FindBySemesters 故意不排序，由调用方负责排序
func (m *mockCourseRepo) FindBySemesters(_ context.Context, semesterIDs []string) ([]model.Course, error) {
	want := make(map[string]bool, len(semesterIDs))
	for _, id := range semesterIDs {
		want[id] = true
	}
	var result []model.Course
	for _, c := range m.courses {
		if want[c.SemesterID] {
			result = append(result, *c)
		}
	}
	return result, nil
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
	err       error
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) FindActive(_ context.Context) ([]model.Semester, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Semester
	for _, s := range m.semesters {
		if s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

// ── Mock MajorRepository ──

type mockMajorRepo struct {
	majors       map[string]*model.Major
	majorCourses map[string][]model.MajorCourse
}

func newMockMajorRepo() *mockMajorRepo {
	return &mockMajorRepo{
		majors:       make(map[string]*model.Major),
		majorCourses: make(map[string][]model.MajorCourse),
	}
}

func (m *mockMajorRepo) GetByID(_ context.Context, id string) (*model.Major, error) {
	if mj, ok := m.majors[id]; ok {
		return mj, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMajorRepo) List(_ context.Context) ([]model.Major, error) {
	var result []model.Major
	for _, mj := range m.majors {
		result = append(result, *mj)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockMajorRepo) GetMajorCourses(_ context.Context, majorID string) ([]model.MajorCourse, error) {
	return append([]model.MajorCourse(nil), m.majorCourses[majorID]...), nil
}

// ── Mock StudentMajorRepository ──

type mockStudentMajorRepo struct {
	selected map[string]*model.StudentMajor
}

func newMockStudentMajorRepo() *mockStudentMajorRepo {
	return &mockStudentMajorRepo{selected: make(map[string]*model.StudentMajor)}
}

func (m *mockStudentMajorRepo) Get(_ context.Context, studentID string) (*model.StudentMajor, error) {
	if sm, ok := m.selected[studentID]; ok {
		return sm, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentMajorRepo) Upsert(_ context.Context, studentID, majorID string) (*model.StudentMajor, error) {
	sm := &model.StudentMajor{StudentID: studentID, MajorID: majorID, SelectedAt: time.Now()}
	m.selected[studentID] = sm
	return sm, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu        sync.Mutex
	list      []model.Notification
	createErr error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	n.NotificationID = fmt.Sprintf("n-%d", len(m.list)+1)
	n.CreatedAt = time.Now()
	m.list = append(m.list, *n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []model.Notification
	for _, n := range m.list {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return []model.Notification{}, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.list {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].NotificationID == id && m.list[i].UserID == userID {
			m.list[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// countByType 统计某学生某类型的通知数
func (m *mockNotificationRepo) countByType(userID, typ string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, item := range m.list {
		if item.UserID == userID && item.Type == typ {
			n++
		}
	}
	return n
}

// ═══════════════════════════════════════════════════════════
// 测试夹具：两个学期 + 一个专业
// ═══════════════════════════════════════════════════════════
//
//	学期 s1 (order 1): c1 → c2 → c3
//	学期 s2 (order 2): c4
//	专业 m1: c3 → c4
//
// 每门课程要求 5 课时 / 1 个项目

type fixture struct {
	repo          *repository.Repository
	progress      *mockProgressRepo
	courses       *mockCourseRepo
	semesters     *mockSemesterRepo
	majors        *mockMajorRepo
	studentMajors *mockStudentMajorRepo
	notifications *mockNotificationRepo
}

func newFixture() *fixture {
	f := &fixture{
		progress:      newMockProgressRepo(),
		courses:       newMockCourseRepo(),
		semesters:     newMockSemesterRepo(),
		majors:        newMockMajorRepo(),
		studentMajors: newMockStudentMajorRepo(),
		notifications: newMockNotificationRepo(),
	}
	f.repo = &repository.Repository{
		Progress:     f.progress,
		Course:       f.courses,
		Semester:     f.semesters,
		Major:        f.majors,
		StudentMajor: f.studentMajors,
		Notification: f.notifications,
	}

	f.semesters.semesters["s1"] = &model.Semester{SemesterID: "s1", Name: "第一学期", Order: 1, IsActive: true}
	f.semesters.semesters["s2"] = &model.Semester{SemesterID: "s2", Name: "第二学期", Order: 2, IsActive: true, RequiresMajorSelection: true}

	for i, id := range []string{"c1", "c2", "c3"} {
		f.courses.courses[id] = &model.Course{
			CourseID: id, SemesterID: "s1", Title: "课程" + id, Order: (i + 1) * 10,
			RequiredSessions: 5, RequiredProjects: 1,
		}
	}
	f.courses.courses["c4"] = &model.Course{
		CourseID: "c4", SemesterID: "s2", Title: "课程c4", Order: 1,
		RequiredSessions: 5, RequiredProjects: 1,
	}

	f.majors.majors["m1"] = &model.Major{MajorID: "m1", Name: "后端开发"}
	f.majors.majorCourses["m1"] = []model.MajorCourse{
		{MajorCourseID: "mc2", MajorID: "m1", CourseID: "c4", Order: 2, IsRequired: true, Course: f.courses.courses["c4"]},
		{MajorCourseID: "mc1", MajorID: "m1", CourseID: "c3", Order: 1, IsRequired: true, Course: f.courses.courses["c3"]},
	}
	return f
}

// eligible 满足完成条件的记录
func eligible(studentID, courseID string, status model.ProgressStatus) *model.ProgressRecord {
	return &model.ProgressRecord{
		StudentID:         studentID,
		CourseID:          courseID,
		CompletedSessions: 5,
		ProjectsSubmitted: 1,
		ProjectLinks:      pq.StringArray{"https://x.io/" + courseID},
		Status:            status,
	}
}
