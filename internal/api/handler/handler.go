package handler

import "lms-progress/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Student      *StudentHandler
	Notification *NotificationHandler
	Approval     *ApprovalHandler
	BulkPass     *BulkPassHandler
	Edit         *EditHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Student:      NewStudentHandler(svc.Progress, svc.Curriculum),
		Notification: NewNotificationHandler(svc.Notification),
		Approval:     NewApprovalHandler(svc.Approval, svc.Progress, svc.Curriculum),
		BulkPass:     NewBulkPassHandler(svc.BulkPass, svc.Export),
		Edit:         NewEditHandler(svc.InlineEdit),
	}
}
