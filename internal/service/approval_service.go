package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-progress/internal/dto"
	"lms-progress/internal/model"
	"lms-progress/internal/progress"
	"lms-progress/internal/repository"
	pkgerrors "lms-progress/pkg/errors"
)

// ── 审核模块业务错误 ──

var (
	ErrRejectReasonRequired = pkgerrors.New(pkgerrors.KindValidation, "rejection reason required")
	ErrAlreadyCompleted     = pkgerrors.New(pkgerrors.KindAlreadyTerminal, "课程已审核通过，不能驳回")
)

// ApprovalService 审核业务接口
//
// 设计说明：
//   - 只有 pending_approval 的记录可以通过或驳回
//   - 对已完成记录再次通过是无操作，不重复发送通知，批量通过依赖这一点
//   - 状态写入成功后，解锁计算与通知失败只记录日志，不回滚也不向调用方报错
type ApprovalService interface {
	Approve(ctx context.Context, progressID, adminID string) (*dto.ApprovalResult, error)
	Reject(ctx context.Context, progressID, reason, adminID string) (*dto.ProgressResponse, error)
	ListPending(ctx context.Context, page *dto.PaginationRequest) ([]dto.PendingApprovalItem, int64, error)
}

type approvalService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewApprovalService 创建 ApprovalService 实例
func NewApprovalService(repo *repository.Repository, logger *zap.Logger) ApprovalService {
	return &approvalService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// Approve 审核通过并计算解锁
// ═══════════════════════════════════════════════════════════

func (s *approvalService) Approve(ctx context.Context, progressID, adminID string) (*dto.ApprovalResult, error) {
	rec, err := getProgress(ctx, s.repo, s.logger, progressID)
	if err != nil {
		return nil, err
	}

	// 幂等：已完成直接返回原记录
	if rec.Status == model.StatusCompleted {
		return &dto.ApprovalResult{
			Progress:     toProgressResponse(rec, nil),
			UnlockResult: dto.UnlockResult{Courses: []string{}, Semesters: []string{}, MajorCourses: []string{}},
		}, nil
	}
	if !progress.CanTransition(rec.Status, model.StatusCompleted) {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	fields := map[string]interface{}{
		"status":           model.StatusCompleted,
		"approved_at":      now,
		"approved_by":      adminID,
		"completed_at":     now,
		"rejection_reason": nil,
		"updated_by":       adminID,
	}
	if err := s.repo.Progress.Update(ctx, rec.ProgressID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgressNotFound
		}
		s.logger.Error("审核通过写入失败", zap.String("progress_id", progressID), zap.Error(err))
		return nil, pkgerrors.Store("审核通过写入失败", err)
	}

	updated := *rec
	updated.Status = model.StatusCompleted
	updated.ApprovedAt = &now
	updated.ApprovedBy = &adminID
	updated.CompletedAt = &now
	updated.RejectionReason = nil
	updated.UpdatedAt = now

	s.logger.Info("课程审核通过",
		zap.String("progress_id", progressID),
		zap.String("student_id", rec.StudentID),
		zap.String("admin_id", adminID),
	)

	result := &dto.ApprovalResult{
		Progress:     toProgressResponse(&updated, nil),
		UnlockResult: dto.UnlockResult{Courses: []string{}, Semesters: []string{}, MajorCourses: []string{}},
	}

	course, err := getCourse(ctx, s.repo, s.logger, rec.CourseID)
	if err != nil {
		s.logger.Warn("审核通过后查询课程失败，跳过解锁与通知", zap.Error(err))
		return result, nil
	}
	result.Progress = toProgressResponse(&updated, course)

	if unlock, err := s.resolveUnlocks(ctx, rec, &updated, course); err != nil {
		s.logger.Warn("解锁计算失败", zap.String("progress_id", progressID), zap.Error(err))
	} else {
		result.UnlockResult = unlock
	}

	result.NotificationCreated = s.notifyApproved(ctx, &updated, course, result.UnlockResult)
	return result, nil
}

// resolveUnlocks 以完成前后两份快照分别判定三种序列，返回新解锁的内容
func (s *approvalService) resolveUnlocks(ctx context.Context, before, after *model.ProgressRecord, course *model.Course) (dto.UnlockResult, error) {
	cur, err := loadCurriculum(ctx, s.repo, s.logger, before.StudentID)
	if err != nil {
		return dto.UnlockResult{}, err
	}

	semesterCourses, ok := cur.coursesBySemester[course.SemesterID]
	if !ok {
		// 课程所在学期未启用，不在学期序列中
		semesterCourses, err = s.repo.Course.FindBySemester(ctx, course.SemesterID)
		if err != nil {
			return dto.UnlockResult{}, pkgerrors.Store("查询学期课程失败", err)
		}
		progress.SortCourses(semesterCourses)
	}

	afterSnap := cur.snap.With(after)
	beforeSnap := afterSnap.With(before)
	return cur.diffUnlocks(course.CourseID, semesterCourses, beforeSnap, afterSnap), nil
}

// notifyApproved 发送完成通知，有新解锁内容时再发送一条解锁通知；返回完成通知是否创建成功
func (s *approvalService) notifyApproved(ctx context.Context, rec *model.ProgressRecord, course *model.Course, unlock dto.UnlockResult) bool {
	err := createNotification(ctx, s.repo, notificationDraft{
		userID:  rec.StudentID,
		typ:     model.NotificationCourseCompleted,
		title:   "课程已通过审核",
		content: fmt.Sprintf("你的课程《%s》已通过审核", course.Title),
		payload: map[string]interface{}{
			"progress_id": rec.ProgressID,
			"course_id":   course.CourseID,
			"approved_by": rec.ApprovedBy,
		},
		relatedType: "progress",
		relatedID:   rec.ProgressID,
	})
	if err != nil {
		s.logger.Warn("创建完成通知失败", zap.String("progress_id", rec.ProgressID), zap.Error(err))
		return false
	}

	if unlock.Any() {
		err := createNotification(ctx, s.repo, notificationDraft{
			userID:      rec.StudentID,
			typ:         model.NotificationUnlocked,
			title:       "新内容已解锁",
			content:     fmt.Sprintf("完成《%s》后，新的学习内容已解锁", course.Title),
			payload:     unlock,
			relatedType: "course",
			relatedID:   course.CourseID,
		})
		if err != nil {
			s.logger.Warn("创建解锁通知失败", zap.String("progress_id", rec.ProgressID), zap.Error(err))
		}
	}
	return true
}

// ═══════════════════════════════════════════════════════════
// Reject 驳回
// ═══════════════════════════════════════════════════════════

func (s *approvalService) Reject(ctx context.Context, progressID, reason, adminID string) (*dto.ProgressResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectReasonRequired
	}

	rec, err := getProgress(ctx, s.repo, s.logger, progressID)
	if err != nil {
		return nil, err
	}
	if rec.Status == model.StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if !progress.CanTransition(rec.Status, model.StatusRejected) {
		return nil, ErrInvalidTransition
	}

	fields := map[string]interface{}{
		"status":           model.StatusRejected,
		"rejection_reason": reason,
		"updated_by":       adminID,
	}
	if err := s.repo.Progress.Update(ctx, rec.ProgressID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgressNotFound
		}
		s.logger.Error("驳回写入失败", zap.String("progress_id", progressID), zap.Error(err))
		return nil, pkgerrors.Store("驳回写入失败", err)
	}

	updated := *rec
	updated.Status = model.StatusRejected
	updated.RejectionReason = &reason
	updated.UpdatedAt = s.now()

	s.logger.Info("课程审核驳回", zap.String("progress_id", progressID), zap.String("admin_id", adminID))

	title := rec.CourseID
	course, err := getCourse(ctx, s.repo, s.logger, rec.CourseID)
	if err == nil {
		title = course.Title
	}
	err = createNotification(ctx, s.repo, notificationDraft{
		userID:  rec.StudentID,
		typ:     model.NotificationCourseRejected,
		title:   "课程审核未通过",
		content: fmt.Sprintf("你的课程《%s》审核未通过：%s", title, reason),
		payload: map[string]interface{}{
			"progress_id": rec.ProgressID,
			"course_id":   rec.CourseID,
			"reason":      reason,
		},
		relatedType: "progress",
		relatedID:   rec.ProgressID,
	})
	if err != nil {
		s.logger.Warn("创建驳回通知失败", zap.String("progress_id", progressID), zap.Error(err))
	}

	return toProgressResponse(&updated, course), nil
}

// ═══════════════════════════════════════════════════════════
// ListPending 待审核队列
// ═══════════════════════════════════════════════════════════

func (s *approvalService) ListPending(ctx context.Context, page *dto.PaginationRequest) ([]dto.PendingApprovalItem, int64, error) {
	records, total, err := s.repo.Progress.ListByStatus(ctx, model.StatusPendingApproval, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询待审核记录失败", zap.Error(err))
		return nil, 0, pkgerrors.Store("查询待审核记录失败", err)
	}

	courseIDs := make([]string, 0, len(records))
	seen := map[string]bool{}
	for _, r := range records {
		if !seen[r.CourseID] {
			seen[r.CourseID] = true
			courseIDs = append(courseIDs, r.CourseID)
		}
	}
	courses, err := s.repo.Course.GetByIDs(ctx, courseIDs)
	if err != nil {
		return nil, 0, pkgerrors.Store("查询课程失败", err)
	}
	courseMap := make(map[string]*model.Course, len(courses))
	for i := range courses {
		courseMap[courses[i].CourseID] = &courses[i]
	}

	items := make([]dto.PendingApprovalItem, 0, len(records))
	for i := range records {
		rec := &records[i]
		course := courseMap[rec.CourseID]
		item := dto.PendingApprovalItem{Progress: *toProgressResponse(rec, nil)}
		if course != nil {
			item.CourseTitle = course.Title
			item.Eligibility = toEligibility(progress.DeriveStatus(rec, course))
		}
		items = append(items, item)
	}
	return items, total, nil
}
