package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lms-progress/config"
)

// Client Redis 客户端封装
// 当前用于批量通过任务状态共享与接口限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 批量通过任务 ──

const (
	bulkJobPrefix    = "bulk_pass:job:"
	bulkCancelPrefix = "bulk_pass:cancel:"
)

// SaveBulkJob 写入任务快照（JSON），TTL 到期后自动清理
func (c *Client) SaveBulkJob(ctx context.Context, jobID string, snapshot []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, bulkJobPrefix+jobID, snapshot, ttl).Err()
}

// GetBulkJob 读取任务快照，不存在时返回 ErrNil
func (c *Client) GetBulkJob(ctx context.Context, jobID string) ([]byte, error) {
	return c.rdb.Get(ctx, bulkJobPrefix+jobID).Bytes()
}

// RequestBulkCancel 标记任务取消请求
func (c *Client) RequestBulkCancel(ctx context.Context, jobID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, bulkCancelPrefix+jobID, "1", ttl).Err()
}

// IsBulkCancelRequested 检查任务是否已被请求取消
func (c *Client) IsBulkCancelRequested(ctx context.Context, jobID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, bulkCancelPrefix+jobID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 限流 ──

// CheckRateLimit 基于有序集合的滑动窗口计数
// 返回 true 表示本次请求允许通过
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= int64(limit), nil
}

// IsNil 判断错误是否为键不存在
func IsNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
