package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lms-progress/internal/dto"
	"lms-progress/internal/model"
	"lms-progress/internal/repository"
	pkgerrors "lms-progress/pkg/errors"
)

// ── 通知模块业务错误 ──

var ErrNotificationNotFound = pkgerrors.New(pkgerrors.KindNotFound, "通知不存在")

// NotificationService 通知业务接口
type NotificationService interface {
	List(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, pkgerrors.Store("查询通知失败", err)
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		n := &list[i]
		result = append(result, dto.NotificationResponse{
			ID:          n.NotificationID,
			Type:        n.Type,
			Title:       n.Title,
			Content:     n.Content,
			Payload:     json.RawMessage(n.Payload),
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt.Format(timeLayout),
		})
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Store("统计未读通知失败", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.Notification.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Store("标记通知已读失败", err)
	}
	return nil
}

// ── 通知创建（审核流程使用） ──

type notificationDraft struct {
	userID      string
	typ         string
	title       string
	content     string
	payload     interface{}
	relatedType string
	relatedID   string
}

func createNotification(ctx context.Context, repo *repository.Repository, d notificationDraft) error {
	n := &model.Notification{
		UserID:  d.userID,
		Type:    d.typ,
		Title:   d.title,
		Content: d.content,
	}
	if d.payload != nil {
		raw, err := json.Marshal(d.payload)
		if err != nil {
			return err
		}
		n.Payload = datatypes.JSON(raw)
	}
	if d.relatedType != "" {
		n.RelatedType = &d.relatedType
		n.RelatedID = &d.relatedID
	}
	return repo.Notification.Create(ctx, n)
}
