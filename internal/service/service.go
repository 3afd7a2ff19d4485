package service

import (
	"go.uber.org/zap"

	"lms-progress/config"
	"lms-progress/internal/repository"
	"lms-progress/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Progress     ProgressService
	Approval     ApprovalService
	BulkPass     BulkPassService
	Curriculum   CurriculumService
	Notification NotificationService
	InlineEdit   InlineEditService
	Export       ExportService
}

// NewService 创建 Service 聚合
// rdb 为 nil 时批量任务状态保存在进程内
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var tracker JobTracker
	if rdb != nil {
		tracker = NewRedisJobTracker(rdb, cfg.Progress.BulkJobTTL)
	} else {
		tracker = NewMemoryJobTracker(cfg.Progress.BulkJobTTL)
	}

	approval := NewApprovalService(repo, logger)
	return &Service{
		Progress:     NewProgressService(repo, logger),
		Approval:     approval,
		BulkPass:     NewBulkPassService(approval, tracker, &cfg.Progress, logger),
		Curriculum:   NewCurriculumService(repo, logger),
		Notification: NewNotificationService(repo, logger),
		InlineEdit:   NewInlineEditService(repo, &cfg.Progress, logger),
		Export:       NewExportService(tracker, logger),
	}
}
