package service

import (
	"context"

	"go.uber.org/zap"

	"lms-progress/internal/autosave"
	"lms-progress/internal/dto"
	"lms-progress/internal/model"
	"lms-progress/internal/repository"
	pkgerrors "lms-progress/pkg/errors"
)

// ── 学习进度模块业务错误 ──

var (
	ErrCourseLocked  = pkgerrors.New(pkgerrors.KindValidation, "课程尚未解锁")
	ErrDuplicateLink = pkgerrors.New(pkgerrors.KindValidation, "该项目链接已提交")
)

// ProgressService 学生端学习进度业务接口
// 进度记录在学生第一次操作某门课程时创建
type ProgressService interface {
	RecordSession(ctx context.Context, studentID, courseID string, count int) (*dto.ProgressResponse, error)
	SubmitProject(ctx context.Context, studentID, courseID, link string) (*dto.ProgressResponse, error)
	GetRecord(ctx context.Context, progressID string) (*dto.ProgressResponse, error)
}

type progressService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProgressService 创建 ProgressService 实例
func NewProgressService(repo *repository.Repository, logger *zap.Logger) ProgressService {
	return &progressService{repo: repo, logger: logger}
}

// ────────────────────── RecordSession ──────────────────────

// RecordSession 记录完成的课时，累计值不超过课程要求
func (s *progressService) RecordSession(ctx context.Context, studentID, courseID string, count int) (*dto.ProgressResponse, error) {
	if count <= 0 {
		count = 1
	}

	course, rec, err := s.prepare(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	updated, err := applyCounterUpdate(ctx, s.repo, rec, course, studentID, func(r *model.ProgressRecord) {
		r.CompletedSessions += count
		if r.CompletedSessions > course.RequiredSessions {
			r.CompletedSessions = course.RequiredSessions
		}
	})
	if err != nil {
		s.logger.Error("记录课时失败", zap.String("progress_id", rec.ProgressID), zap.Error(err))
		return nil, err
	}
	return toProgressResponse(updated, course), nil
}

// ────────────────────── SubmitProject ──────────────────────

func (s *progressService) SubmitProject(ctx context.Context, studentID, courseID, link string) (*dto.ProgressResponse, error) {
	if err := autosave.ValidateLink(link); err != nil {
		return nil, err
	}

	course, rec, err := s.prepare(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	for _, l := range rec.ProjectLinks {
		if l == link {
			return nil, ErrDuplicateLink
		}
	}

	updated, err := applyCounterUpdate(ctx, s.repo, rec, course, studentID, func(r *model.ProgressRecord) {
		r.ProjectLinks = append(r.ProjectLinks, link)
		r.ProjectsSubmitted++
	})
	if err != nil {
		s.logger.Error("提交项目失败", zap.String("progress_id", rec.ProgressID), zap.Error(err))
		return nil, err
	}
	return toProgressResponse(updated, course), nil
}

// ────────────────────── GetRecord ──────────────────────

func (s *progressService) GetRecord(ctx context.Context, progressID string) (*dto.ProgressResponse, error) {
	rec, err := getProgress(ctx, s.repo, s.logger, progressID)
	if err != nil {
		return nil, err
	}
	course, err := getCourse(ctx, s.repo, s.logger, rec.CourseID)
	if err != nil {
		return nil, err
	}
	return toProgressResponse(rec, course), nil
}

// prepare 校验课程存在且已解锁，返回（必要时新建的）进度记录
func (s *progressService) prepare(ctx context.Context, studentID, courseID string) (*model.Course, *model.ProgressRecord, error) {
	course, err := getCourse(ctx, s.repo, s.logger, courseID)
	if err != nil {
		return nil, nil, err
	}

	cur, err := loadCurriculum(ctx, s.repo, s.logger, studentID)
	if err != nil {
		return nil, nil, err
	}
	if !cur.courseAccessible(course) {
		return nil, nil, ErrCourseLocked
	}

	if rec := cur.snap.Record(courseID); rec != nil {
		return course, rec, nil
	}
	rec, err := s.repo.Progress.GetOrCreate(ctx, studentID, courseID)
	if err != nil {
		s.logger.Error("创建进度记录失败",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err),
		)
		return nil, nil, pkgerrors.Store("创建进度记录失败", err)
	}
	return course, rec, nil
}
