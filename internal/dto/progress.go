package dto

// ── 学习进度 DTO ──

// RecordSessionRequest 学生记录完成课时
type RecordSessionRequest struct {
	Count int `json:"count" binding:"omitempty,min=1,max=50"` // 缺省为 1
}

// SubmitProjectRequest 学生提交项目链接
type SubmitProjectRequest struct {
	Link string `json:"link" binding:"required,max=2048"`
}

// EligibilityResponse 完成条件判定
type EligibilityResponse struct {
	CanPass           bool     `json:"can_pass"`
	MissingConditions []string `json:"missing_conditions"`
}

// BadgeResponse 状态展示信息
type BadgeResponse struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

// ProgressResponse 进度记录响应
type ProgressResponse struct {
	ID                string               `json:"id"`
	StudentID         string               `json:"student_id"`
	CourseID          string               `json:"course_id"`
	CompletedSessions int                  `json:"completed_sessions"`
	ProjectsSubmitted int                  `json:"projects_submitted"`
	ProjectLinks      []string             `json:"project_links"`
	Status            string               `json:"status"`
	RejectionReason   *string              `json:"rejection_reason,omitempty"`
	ApprovedAt        *string              `json:"approved_at,omitempty"`
	ApprovedBy        *string              `json:"approved_by,omitempty"`
	CompletedAt       *string              `json:"completed_at,omitempty"`
	Eligibility       *EligibilityResponse `json:"eligibility,omitempty"`
	UpdatedAt         string               `json:"updated_at"`
}
