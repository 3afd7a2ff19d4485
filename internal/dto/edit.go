package dto

import "encoding/json"

// ── 行内编辑 DTO ──

// StartEditRequest 开始编辑某条进度记录的某个字段
type StartEditRequest struct {
	ProgressID string `json:"progress_id" binding:"required"`
	Field      string `json:"field"       binding:"required,oneof=completed_sessions projects_submitted project_links"`
}

// UpdateEditRequest 更新编辑中的值；value 按字段类型解析（整数或字符串数组）
type UpdateEditRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// EditStateResponse 行内编辑状态
type EditStateResponse struct {
	ProgressID      string      `json:"progress_id,omitempty"`
	Active          bool        `json:"active"`
	Field           string      `json:"field,omitempty"`
	Initial         interface{} `json:"initial,omitempty"`
	Value           interface{} `json:"value,omitempty"`
	Dirty           bool        `json:"dirty"`
	Pending         bool        `json:"pending"`
	ValidationError string      `json:"validation_error,omitempty"`
	SaveError       string      `json:"save_error,omitempty"`
}
