package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-progress/internal/dto"
	"lms-progress/internal/model"
	"lms-progress/internal/progress"
	"lms-progress/internal/repository"
	pkgerrors "lms-progress/pkg/errors"
)

// CurriculumService 培养方案视图业务接口
//
// 学生端的学期视图、专业视图与管理端课程跟踪视图都通过 progress.DeriveStatus
// 计算完成条件，同一条记录在各视图中的判定结果一致。
type CurriculumService interface {
	GetSemesterProgram(ctx context.Context, studentID string) (*dto.SemesterProgramResponse, error)
	GetMajorCurriculum(ctx context.Context, studentID string) (*dto.MajorCurriculumResponse, error)
	SelectMajor(ctx context.Context, studentID, majorID string) (*dto.MajorCurriculumResponse, error)
	ListMajors(ctx context.Context) ([]dto.MajorResponse, error)
	GetCourseTracking(ctx context.Context, courseID string) (*dto.CourseTrackingResponse, error)
}

type curriculumService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCurriculumService 创建 CurriculumService 实例
func NewCurriculumService(repo *repository.Repository, logger *zap.Logger) CurriculumService {
	return &curriculumService{repo: repo, logger: logger}
}

// ────────────────────── GetSemesterProgram ──────────────────────

func (s *curriculumService) GetSemesterProgram(ctx context.Context, studentID string) (*dto.SemesterProgramResponse, error) {
	cur, err := loadCurriculum(ctx, s.repo, s.logger, studentID)
	if err != nil {
		return nil, err
	}

	semStatus := cur.semesterStatus(cur.snap)
	resp := &dto.SemesterProgramResponse{
		StudentID: studentID,
		Semesters: make([]dto.SemesterView, 0, len(cur.semesters)),
	}
	for _, sem := range cur.semesters {
		view := dto.SemesterView{
			ID:                     sem.SemesterID,
			Name:                   sem.Name,
			Order:                  sem.Order,
			RequiresMajorSelection: sem.RequiresMajorSelection,
			NeedsMajorSelection:    sem.RequiresMajorSelection && cur.major == nil,
			ViewStatus:             string(semStatus[sem.SemesterID]),
		}

		courses := cur.coursesBySemester[sem.SemesterID]
		courseStatus := toStatusMap(progress.ResolveCourses(courses, cur.snap))
		view.Courses = make([]dto.CourseView, 0, len(courses))
		for i := range courses {
			vs := courseStatus[courses[i].CourseID]
			// 学期锁定时其中课程一律锁定
			if semStatus[sem.SemesterID] == progress.ViewLocked {
				vs = progress.ViewLocked
			}
			view.Courses = append(view.Courses, buildCourseView(&courses[i], cur.snap, vs))
		}
		resp.Semesters = append(resp.Semesters, view)
	}
	return resp, nil
}

// ────────────────────── GetMajorCurriculum ──────────────────────

func (s *curriculumService) GetMajorCurriculum(ctx context.Context, studentID string) (*dto.MajorCurriculumResponse, error) {
	cur, err := loadCurriculum(ctx, s.repo, s.logger, studentID)
	if err != nil {
		return nil, err
	}

	resp := &dto.MajorCurriculumResponse{StudentID: studentID, Courses: []dto.MajorCourseView{}}
	if cur.major == nil {
		return resp, nil
	}
	resp.Major = &dto.MajorResponse{ID: cur.major.MajorID, Name: cur.major.Name}

	status := toStatusMap(progress.ResolveMajorCourses(cur.majorCourses, cur.snap))
	for i := range cur.majorCourses {
		mc := &cur.majorCourses[i]
		if mc.Course == nil {
			s.logger.Warn("专业课程缺少课程信息", zap.String("major_course_id", mc.MajorCourseID))
			continue
		}
		resp.Courses = append(resp.Courses, dto.MajorCourseView{
			CourseView: buildCourseView(mc.Course, cur.snap, status[mc.CourseID]),
			IsRequired: mc.IsRequired,
		})
	}
	return resp, nil
}

// ────────────────────── SelectMajor ──────────────────────

func (s *curriculumService) SelectMajor(ctx context.Context, studentID, majorID string) (*dto.MajorCurriculumResponse, error) {
	if _, err := s.repo.Major.GetByID(ctx, majorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMajorNotFound
		}
		return nil, pkgerrors.Store("查询专业失败", err)
	}

	if _, err := s.repo.StudentMajor.Upsert(ctx, studentID, majorID); err != nil {
		s.logger.Error("选择专业失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, pkgerrors.Store("选择专业失败", err)
	}
	s.logger.Info("学生选择专业", zap.String("student_id", studentID), zap.String("major_id", majorID))

	return s.GetMajorCurriculum(ctx, studentID)
}

// ────────────────────── ListMajors ──────────────────────

func (s *curriculumService) ListMajors(ctx context.Context) ([]dto.MajorResponse, error) {
	majors, err := s.repo.Major.List(ctx)
	if err != nil {
		return nil, pkgerrors.Store("查询专业失败", err)
	}
	result := make([]dto.MajorResponse, 0, len(majors))
	for _, m := range majors {
		result = append(result, dto.MajorResponse{ID: m.MajorID, Name: m.Name})
	}
	return result, nil
}

// ────────────────────── GetCourseTracking ──────────────────────

// GetCourseTracking 管理端查看某门课程所有学生的进度
func (s *curriculumService) GetCourseTracking(ctx context.Context, courseID string) (*dto.CourseTrackingResponse, error) {
	course, err := getCourse(ctx, s.repo, s.logger, courseID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Progress.FindByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程进度失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, pkgerrors.Store("查询课程进度失败", err)
	}

	resp := &dto.CourseTrackingResponse{
		CourseID:         course.CourseID,
		Title:            course.Title,
		RequiredSessions: course.RequiredSessions,
		RequiredProjects: course.RequiredProjects,
		Records:          make([]dto.TrackingRow, 0, len(records)),
	}
	for i := range records {
		rec := &records[i]
		resp.Records = append(resp.Records, dto.TrackingRow{
			Progress:    *toProgressResponse(rec, nil),
			Badge:       toBadge(progress.DisplayBadge(rec.Status, progress.ViewInProgress)),
			Eligibility: toEligibility(progress.DeriveStatus(rec, course)),
		})
	}
	return resp, nil
}

// buildCourseView 课程视图：视图状态、展示信息、进度与完成条件
func buildCourseView(course *model.Course, snap progress.Snapshot, vs progress.ViewStatus) dto.CourseView {
	rec := snap.Record(course.CourseID)
	view := dto.CourseView{
		ID:               course.CourseID,
		Title:            course.Title,
		Order:            course.Order,
		RequiredSessions: course.RequiredSessions,
		RequiredProjects: course.RequiredProjects,
		ViewStatus:       string(vs),
		Eligibility:      toEligibility(progress.DeriveStatus(rec, course)),
	}

	var status model.ProgressStatus
	if rec != nil {
		status = rec.Status
		view.Progress = toProgressResponse(rec, nil)
	}
	view.Badge = toBadge(progress.DisplayBadge(status, vs))
	return view
}
