package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lms-progress/config"
	"lms-progress/internal/dto"
	pkgerrors "lms-progress/pkg/errors"
)

// ── 批量通过模块业务错误 ──

var (
	ErrBulkEmpty      = pkgerrors.New(pkgerrors.KindValidation, "待处理的进度记录不能为空")
	ErrBulkTooMany    = pkgerrors.New(pkgerrors.KindValidation, "单次批量处理的记录数超出上限")
	ErrBulkJobRunning = pkgerrors.New(pkgerrors.KindValidation, "批量任务仍在执行中")
	errItemCancelled  = pkgerrors.New(pkgerrors.KindCancelled, "批量任务已取消，该记录未处理")
)

// ProgressFunc 批量处理进度回调：current 单调递增，最终恰好等于 total 一次
type ProgressFunc func(current, total int)

// BulkPassService 批量通过业务接口
//
// 设计说明：
//   - 每条记录独立调用 Approve，单条失败只记录不中断，批次总会给出汇总
//   - 不同记录并行处理（并发数受配置限制），同一批中重复的记录由同一个 worker 顺序处理
//   - 取消只阻止尚未开始的记录，已经通过的记录不回滚；未处理的记录以 Cancelled 计入失败
type BulkPassService interface {
	BulkPass(ctx context.Context, progressIDs []string, adminID string, onProgress ProgressFunc) (*dto.BulkPassResult, error)
	StartBulkPass(ctx context.Context, progressIDs []string, adminID string) (*dto.BulkPassJob, error)
	GetBulkPassJob(ctx context.Context, jobID string) (*dto.BulkPassJob, error)
	CancelBulkPassJob(ctx context.Context, jobID string) (*dto.BulkPassJob, error)
	// Wait 等待所有后台任务结束（优雅停机使用）
	Wait()
}

type bulkPassService struct {
	approval ApprovalService
	tracker  JobTracker
	cfg      *config.ProgressConfig
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewBulkPassService 创建 BulkPassService 实例
func NewBulkPassService(approval ApprovalService, tracker JobTracker, cfg *config.ProgressConfig, logger *zap.Logger) BulkPassService {
	return &bulkPassService{
		approval: approval,
		tracker:  tracker,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *bulkPassService) Wait() {
	s.wg.Wait()
}

func (s *bulkPassService) validate(ids []string) error {
	if len(ids) == 0 {
		return ErrBulkEmpty
	}
	if s.cfg.BulkMaxIDs > 0 && len(ids) > s.cfg.BulkMaxIDs {
		return ErrBulkTooMany
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// BulkPass 同步批量通过
// ═══════════════════════════════════════════════════════════

func (s *bulkPassService) BulkPass(ctx context.Context, progressIDs []string, adminID string, onProgress ProgressFunc) (*dto.BulkPassResult, error) {
	if err := s.validate(progressIDs); err != nil {
		return nil, err
	}
	return s.run(ctx, progressIDs, adminID, onProgress, func() bool { return false }), nil
}

// idGroup 同一记录在批次中出现的所有位置
type idGroup struct {
	id      string
	indices []int
}

func groupByID(ids []string) []idGroup {
	pos := make(map[string]int, len(ids))
	var groups []idGroup
	for i, id := range ids {
		if g, ok := pos[id]; ok {
			groups[g].indices = append(groups[g].indices, i)
			continue
		}
		pos[id] = len(groups)
		groups = append(groups, idGroup{id: id, indices: []int{i}})
	}
	return groups
}

func (s *bulkPassService) run(ctx context.Context, ids []string, adminID string, onProgress ProgressFunc, cancelled func() bool) *dto.BulkPassResult {
	total := len(ids)
	outcomes := make([]error, total)

	var (
		mu      sync.Mutex
		current int
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		current++
		if onProgress != nil {
			onProgress(current, total)
		}
	}

	limit := s.cfg.BulkConcurrency
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for _, grp := range groupByID(ids) {
		grp := grp
		g.Go(func() error {
			for _, idx := range grp.indices {
				if ctx.Err() != nil || cancelled() {
					outcomes[idx] = errItemCancelled
				} else if _, err := s.approval.Approve(ctx, grp.id, adminID); err != nil {
					outcomes[idx] = err
				}
				report()
			}
			return nil
		})
	}
	_ = g.Wait()

	// 计数按条目统计；同一 id 多次失败只列一条明细
	result := &dto.BulkPassResult{Total: total, Failures: []dto.BulkPassFailure{}}
	listed := make(map[string]bool)
	for i, err := range outcomes {
		if err == nil {
			result.SuccessCount++
			continue
		}
		result.FailureCount++
		if listed[ids[i]] {
			continue
		}
		listed[ids[i]] = true
		result.Failures = append(result.Failures, dto.BulkPassFailure{
			ProgressID: ids[i],
			Reason:     string(pkgerrors.KindOf(err)),
			Detail:     err.Error(),
		})
	}

	s.logger.Info("批量通过完成",
		zap.String("admin_id", adminID),
		zap.Int("total", result.Total),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
	)
	return result
}

// ═══════════════════════════════════════════════════════════
// 异步任务
// ═══════════════════════════════════════════════════════════

func (s *bulkPassService) StartBulkPass(ctx context.Context, progressIDs []string, adminID string) (*dto.BulkPassJob, error) {
	if err := s.validate(progressIDs); err != nil {
		return nil, err
	}

	job := &dto.BulkPassJob{
		JobID:     uuid.NewString(),
		AdminID:   adminID,
		Status:    dto.BulkJobRunning,
		Total:     len(progressIDs),
		StartedAt: time.Now().Format(timeLayout),
	}
	if err := s.tracker.Save(ctx, job); err != nil {
		s.logger.Error("登记批量任务失败", zap.Error(err))
		return nil, pkgerrors.Store("登记批量任务失败", err)
	}
	snapshot := *job

	ids := append([]string(nil), progressIDs...)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(job, ids)
	}()

	return &snapshot, nil
}

// runJob 后台执行；进度回调在批处理互斥锁内串行调用，job 不会被并发修改
func (s *bulkPassService) runJob(job *dto.BulkPassJob, ids []string) {
	// 后台任务不随发起请求的 context 结束
	ctx := context.Background()
	cancelled := func() bool { return s.tracker.IsCancelRequested(ctx, job.JobID) }

	onProgress := func(current, total int) {
		job.Current = current
		job.CancelRequested = cancelled()
		if err := s.tracker.Save(ctx, job); err != nil {
			s.logger.Warn("更新批量任务进度失败", zap.String("job_id", job.JobID), zap.Error(err))
		}
	}

	result := s.run(ctx, ids, job.AdminID, onProgress, cancelled)

	job.Result = result
	job.Current = result.Total
	job.CancelRequested = cancelled()
	job.Status = dto.BulkJobCompleted
	for _, f := range result.Failures {
		if f.Reason == string(pkgerrors.KindCancelled) {
			job.Status = dto.BulkJobCancelled
			break
		}
	}
	job.FinishedAt = time.Now().Format(timeLayout)
	if err := s.tracker.Save(ctx, job); err != nil {
		s.logger.Error("保存批量任务结果失败", zap.String("job_id", job.JobID), zap.Error(err))
	}
}

func (s *bulkPassService) GetBulkPassJob(ctx context.Context, jobID string) (*dto.BulkPassJob, error) {
	return s.tracker.Get(ctx, jobID)
}

// CancelBulkPassJob 请求取消；任务已结束时直接返回当前状态
func (s *bulkPassService) CancelBulkPassJob(ctx context.Context, jobID string) (*dto.BulkPassJob, error) {
	job, err := s.tracker.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != dto.BulkJobRunning {
		return job, nil
	}
	if err := s.tracker.RequestCancel(ctx, jobID); err != nil {
		return nil, pkgerrors.Store("请求取消批量任务失败", err)
	}
	s.logger.Info("批量任务取消请求", zap.String("job_id", jobID))
	job.CancelRequested = true
	return job, nil
}
