package service

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"lms-progress/internal/dto"
	pkgerrors "lms-progress/pkg/errors"
	"lms-progress/pkg/redis"
)

var ErrBulkJobNotFound = pkgerrors.New(pkgerrors.KindNotFound, "批量任务不存在或已过期")

// JobTracker 批量通过任务的状态存储
// 多实例部署时使用 Redis，单机或 Redis 不可用时退化为进程内缓存
type JobTracker interface {
	Save(ctx context.Context, job *dto.BulkPassJob) error
	Get(ctx context.Context, jobID string) (*dto.BulkPassJob, error)
	RequestCancel(ctx context.Context, jobID string) error
	IsCancelRequested(ctx context.Context, jobID string) bool
}

// ── Redis 实现 ──

type redisJobTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisJobTracker 创建基于 Redis 的任务状态存储
func NewRedisJobTracker(rdb *redis.Client, ttl time.Duration) JobTracker {
	return &redisJobTracker{rdb: rdb, ttl: ttl}
}

func (t *redisJobTracker) Save(ctx context.Context, job *dto.BulkPassJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return t.rdb.SaveBulkJob(ctx, job.JobID, raw, t.ttl)
}

func (t *redisJobTracker) Get(ctx context.Context, jobID string) (*dto.BulkPassJob, error) {
	raw, err := t.rdb.GetBulkJob(ctx, jobID)
	if err != nil {
		if redis.IsNil(err) {
			return nil, ErrBulkJobNotFound
		}
		return nil, pkgerrors.Store("读取批量任务失败", err)
	}
	var job dto.BulkPassJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, pkgerrors.Store("解析批量任务失败", err)
	}
	return &job, nil
}

func (t *redisJobTracker) RequestCancel(ctx context.Context, jobID string) error {
	return t.rdb.RequestBulkCancel(ctx, jobID, t.ttl)
}

// IsCancelRequested Redis 故障时视为未取消，任务继续执行
func (t *redisJobTracker) IsCancelRequested(ctx context.Context, jobID string) bool {
	ok, err := t.rdb.IsBulkCancelRequested(ctx, jobID)
	return err == nil && ok
}

// ── 进程内实现 ──

type memoryJobTracker struct {
	jobs   *gocache.Cache
	cancel *gocache.Cache
}

// NewMemoryJobTracker 创建进程内任务状态存储，条目在 ttl 后过期
func NewMemoryJobTracker(ttl time.Duration) JobTracker {
	return &memoryJobTracker{
		jobs:   gocache.New(ttl, ttl/2),
		cancel: gocache.New(ttl, ttl/2),
	}
}

func (t *memoryJobTracker) Save(_ context.Context, job *dto.BulkPassJob) error {
	// 保存副本，避免调用方后续修改影响已保存的快照
	snapshot := *job
	if job.Result != nil {
		result := *job.Result
		result.Failures = append([]dto.BulkPassFailure(nil), job.Result.Failures...)
		snapshot.Result = &result
	}
	t.jobs.SetDefault(job.JobID, &snapshot)
	return nil
}

func (t *memoryJobTracker) Get(_ context.Context, jobID string) (*dto.BulkPassJob, error) {
	v, ok := t.jobs.Get(jobID)
	if !ok {
		return nil, ErrBulkJobNotFound
	}
	job := *v.(*dto.BulkPassJob)
	return &job, nil
}

func (t *memoryJobTracker) RequestCancel(_ context.Context, jobID string) error {
	t.cancel.SetDefault(jobID, true)
	return nil
}

func (t *memoryJobTracker) IsCancelRequested(_ context.Context, jobID string) bool {
	_, ok := t.cancel.Get(jobID)
	return ok
}
