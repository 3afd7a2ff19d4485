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

// curriculum 单个学生在一次请求内用到的全部有序序列与进度快照。
// 每次请求重新加载，不跨请求缓存。
type curriculum struct {
	studentID         string
	semesters         []model.Semester
	coursesBySemester map[string][]model.Course
	major             *model.Major // 未选专业时为 nil
	majorCourses      []model.MajorCourse
	snap              progress.Snapshot
}

func loadCurriculum(ctx context.Context, repo *repository.Repository, logger *zap.Logger, studentID string) (*curriculum, error) {
	c := &curriculum{studentID: studentID, coursesBySemester: map[string][]model.Course{}}

	semesters, err := repo.Semester.FindActive(ctx)
	if err != nil {
		logger.Error("查询学期失败", zap.Error(err))
		return nil, pkgerrors.Store("查询学期失败", err)
	}
	progress.SortSemesters(semesters)
	c.semesters = semesters

	ids := make([]string, 0, len(semesters))
	for _, s := range semesters {
		ids = append(ids, s.SemesterID)
	}
	courses, err := repo.Course.FindBySemesters(ctx, ids)
	if err != nil {
		logger.Error("查询课程失败", zap.Error(err))
		return nil, pkgerrors.Store("查询课程失败", err)
	}
	for _, course := range courses {
		c.coursesBySemester[course.SemesterID] = append(c.coursesBySemester[course.SemesterID], course)
	}
	for sid := range c.coursesBySemester {
		progress.SortCourses(c.coursesBySemester[sid])
	}

	if err := c.loadMajor(ctx, repo, logger); err != nil {
		return nil, err
	}

	records, err := repo.Progress.FindByStudentID(ctx, studentID)
	if err != nil {
		logger.Error("查询学生进度失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, pkgerrors.Store("查询学生进度失败", err)
	}
	c.snap = progress.NewSnapshot(records)
	return c, nil
}

func (c *curriculum) loadMajor(ctx context.Context, repo *repository.Repository, logger *zap.Logger) error {
	sm, err := repo.StudentMajor.Get(ctx, c.studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		logger.Error("查询学生专业失败", zap.String("student_id", c.studentID), zap.Error(err))
		return pkgerrors.Store("查询学生专业失败", err)
	}

	major, err := repo.Major.GetByID(ctx, sm.MajorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 专业已被删除，按未选专业处理
			logger.Warn("学生所选专业不存在", zap.String("major_id", sm.MajorID))
			return nil
		}
		return pkgerrors.Store("查询专业失败", err)
	}
	mcs, err := repo.Major.GetMajorCourses(ctx, major.MajorID)
	if err != nil {
		logger.Error("查询专业课程失败", zap.String("major_id", major.MajorID), zap.Error(err))
		return pkgerrors.Store("查询专业课程失败", err)
	}
	progress.SortMajorCourses(mcs)
	c.major = major
	c.majorCourses = mcs
	return nil
}

// semesterStatus 学期序列的判定结果
func (c *curriculum) semesterStatus(snap progress.Snapshot) map[string]progress.ViewStatus {
	return toStatusMap(progress.ResolveSemesters(c.semesters, c.coursesBySemester, snap))
}

// courseAccessible 课程所在学期已解锁且课程在学期内已解锁
func (c *curriculum) courseAccessible(course *model.Course) bool {
	semStatus, ok := c.semesterStatus(c.snap)[course.SemesterID]
	if !ok || semStatus == progress.ViewLocked {
		return false
	}
	courseStatus := toStatusMap(progress.ResolveCourses(c.coursesBySemester[course.SemesterID], c.snap))
	return courseStatus[course.CourseID] != progress.ViewLocked
}

// inMajor 课程是否属于学生所选专业
func (c *curriculum) inMajor(courseID string) bool {
	for _, mc := range c.majorCourses {
		if mc.CourseID == courseID {
			return true
		}
	}
	return false
}

// diffUnlocks 比较课程完成前后三种序列的判定，得出新解锁的内容。
// semesterCourses 为课程所在学期的课程列表（已排序）。
func (c *curriculum) diffUnlocks(courseID string, semesterCourses []model.Course, before, after progress.Snapshot) dto.UnlockResult {
	result := dto.UnlockResult{
		Courses: orEmpty(progress.NewlyUnlocked(
			progress.ResolveCourses(semesterCourses, before),
			progress.ResolveCourses(semesterCourses, after),
		)),
		Semesters: orEmpty(progress.NewlyUnlocked(
			progress.ResolveSemesters(c.semesters, c.coursesBySemester, before),
			progress.ResolveSemesters(c.semesters, c.coursesBySemester, after),
		)),
		MajorCourses: []string{},
	}
	// 新解锁学期的首门课程同时变为可学
	for _, sid := range result.Semesters {
		if courses := c.coursesBySemester[sid]; len(courses) > 0 && !contains(result.Courses, courses[0].CourseID) {
			result.Courses = append(result.Courses, courses[0].CourseID)
		}
	}
	if c.inMajor(courseID) {
		result.MajorCourses = orEmpty(progress.NewlyUnlocked(
			progress.ResolveMajorCourses(c.majorCourses, before),
			progress.ResolveMajorCourses(c.majorCourses, after),
		))
	}
	return result
}

func toStatusMap(resolved []progress.Resolved) map[string]progress.ViewStatus {
	out := make(map[string]progress.ViewStatus, len(resolved))
	for _, r := range resolved {
		out[r.Key] = r.Status
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
