package model

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ProgressStatus 学习进度记录的持久化状态
// locked 不在此列：锁定只是视图层根据前置课程完成情况计算出的叠加状态
type ProgressStatus string

const (
	StatusNotStarted      ProgressStatus = "not_started"
	StatusInProgress      ProgressStatus = "in_progress"
	StatusPendingApproval ProgressStatus = "pending_approval"
	StatusCompleted       ProgressStatus = "completed"
	StatusRejected        ProgressStatus = "rejected"
)

// Valid 是否为可持久化的状态
func (s ProgressStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusPendingApproval, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// ProgressRecord 学习进度表，对应 progress_records
// (StudentID, CourseID) 唯一；记录按需创建，从不删除
type ProgressRecord struct {
	ProgressID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"progress_id"`
	StudentID         string         `gorm:"type:uuid;not null;uniqueIndex:uk_student_course" json:"student_id"`
	CourseID          string         `gorm:"type:uuid;not null;uniqueIndex:uk_student_course" json:"course_id"`
	CompletedSessions int            `gorm:"not null;default:0"                              json:"completed_sessions"`
	ProjectsSubmitted int            `gorm:"not null;default:0"                              json:"projects_submitted"`
	ProjectLinks      pq.StringArray `gorm:"type:text[];not null;default:'{}'"               json:"project_links"`
	Status            ProgressStatus `gorm:"type:varchar(20);not null;default:'not_started'" json:"status"`
	RejectionReason   *string        `gorm:"type:text"                                       json:"rejection_reason,omitempty"` // 仅 rejected 时存在
	ApprovedAt        *time.Time     `json:"approved_at,omitempty"`                                                          // 仅 completed 时存在
	ApprovedBy        *string        `gorm:"type:uuid"                                       json:"approved_by,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (ProgressRecord) TableName() string { return "progress_records" }

// CheckStatusField 校验部分更新字段中的 status，防止写入非法状态（如 locked）
func CheckStatusField(fields map[string]interface{}) error {
	raw, ok := fields["status"]
	if !ok {
		return nil
	}
	var status ProgressStatus
	switch v := raw.(type) {
	case ProgressStatus:
		status = v
	case string:
		status = ProgressStatus(v)
	default:
		return fmt.Errorf("progress status: unsupported type %T", raw)
	}
	if !status.Valid() {
		return fmt.Errorf("progress status %q 不可持久化", status)
	}
	return nil
}
