package service

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-progress/internal/dto"
	"lms-progress/internal/model"
	"lms-progress/internal/progress"
	"lms-progress/internal/repository"
	pkgerrors "lms-progress/pkg/errors"
)

// ── 通用业务错误 ──

var (
	ErrProgressNotFound  = pkgerrors.New(pkgerrors.KindNotFound, "进度记录不存在")
	ErrCourseNotFound    = pkgerrors.New(pkgerrors.KindNotFound, "课程不存在")
	ErrMajorNotFound     = pkgerrors.New(pkgerrors.KindNotFound, "专业不存在")
	ErrInvalidTransition = pkgerrors.New(pkgerrors.KindValidation, "当前状态不允许该操作")
)

const timeLayout = time.RFC3339

// ── 存储查询（统一错误映射） ──

func getProgress(ctx context.Context, repo *repository.Repository, logger *zap.Logger, id string) (*model.ProgressRecord, error) {
	rec, err := repo.Progress.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgressNotFound
		}
		logger.Error("查询进度记录失败", zap.String("progress_id", id), zap.Error(err))
		return nil, pkgerrors.Store("查询进度记录失败", err)
	}
	return rec, nil
}

func getCourse(ctx context.Context, repo *repository.Repository, logger *zap.Logger, id string) (*model.Course, error) {
	course, err := repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, pkgerrors.Store("查询课程失败", err)
	}
	return course, nil
}

// ── 计数更新（学生操作与管理员行内编辑共用） ──

// applyCounterUpdate 在记录副本上执行 mutate，写入变化的计数并按状态机推进状态。
// 读改写不加锁，并发写入以最后一次为准。
func applyCounterUpdate(
	ctx context.Context,
	repo *repository.Repository,
	rec *model.ProgressRecord,
	course *model.Course,
	actorID string,
	mutate func(r *model.ProgressRecord),
) (*model.ProgressRecord, error) {
	updated := *rec
	updated.ProjectLinks = append(pq.StringArray{}, rec.ProjectLinks...)
	mutate(&updated)

	fields := map[string]interface{}{}
	if updated.CompletedSessions != rec.CompletedSessions {
		fields["completed_sessions"] = updated.CompletedSessions
	}
	if updated.ProjectsSubmitted != rec.ProjectsSubmitted {
		fields["projects_submitted"] = updated.ProjectsSubmitted
	}
	if !equalLinks(updated.ProjectLinks, rec.ProjectLinks) {
		fields["project_links"] = updated.ProjectLinks
	}
	if len(fields) == 0 {
		return rec, nil
	}

	next := progress.ApplyCounterUpdate(&updated, course)
	if next != rec.Status {
		fields["status"] = next
		updated.Status = next
	}
	if rec.Status == model.StatusRejected && next != model.StatusRejected {
		fields["rejection_reason"] = nil
		updated.RejectionReason = nil
	}
	if actorID != "" {
		fields["updated_by"] = actorID
		updated.UpdatedBy = &actorID
	}

	if err := repo.Progress.Update(ctx, rec.ProgressID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgressNotFound
		}
		return nil, pkgerrors.Store("更新进度记录失败", err)
	}
	updated.UpdatedAt = time.Now()
	return &updated, nil
}

func equalLinks(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ── 转换 ──

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func toEligibility(e progress.Eligibility) dto.EligibilityResponse {
	return dto.EligibilityResponse{CanPass: e.CanPass, MissingConditions: e.MissingConditions}
}

func toBadge(b progress.Badge) dto.BadgeResponse {
	return dto.BadgeResponse{Label: b.Label, Tone: b.Tone}
}

// toProgressResponse 转换进度记录；course 不为 nil 时附带完成条件判定
func toProgressResponse(rec *model.ProgressRecord, course *model.Course) *dto.ProgressResponse {
	links := []string(rec.ProjectLinks)
	if links == nil {
		links = []string{}
	}
	resp := &dto.ProgressResponse{
		ID:                rec.ProgressID,
		StudentID:         rec.StudentID,
		CourseID:          rec.CourseID,
		CompletedSessions: rec.CompletedSessions,
		ProjectsSubmitted: rec.ProjectsSubmitted,
		ProjectLinks:      links,
		Status:            string(rec.Status),
		RejectionReason:   rec.RejectionReason,
		ApprovedAt:        formatTime(rec.ApprovedAt),
		ApprovedBy:        rec.ApprovedBy,
		CompletedAt:       formatTime(rec.CompletedAt),
		UpdatedAt:         rec.UpdatedAt.Format(timeLayout),
	}
	if course != nil {
		e := toEligibility(progress.DeriveStatus(rec, course))
		resp.Eligibility = &e
	}
	return resp
}
