package dto

import "encoding/json"

// ── 通知模块 DTO ──

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	IsRead      bool            `json:"is_read"`
	RelatedType *string         `json:"related_type,omitempty"`
	RelatedID   *string         `json:"related_id,omitempty"`
	CreatedAt   string          `json:"created_at"`
}
