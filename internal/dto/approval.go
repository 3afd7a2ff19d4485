package dto

// ── 审核模块 DTO ──

// RejectRequest 驳回请求
type RejectRequest struct {
	Reason string `json:"reason"`
}

// UnlockResult 一次审核通过后新解锁的内容
type UnlockResult struct {
	Courses      []string `json:"courses"`       // 新解锁的课程：同学期的后继课程，以及新解锁学期的首门课程
	Semesters    []string `json:"semesters"`     // 新解锁的学期
	MajorCourses []string `json:"major_courses"` // 专业培养方案中新解锁的课程
}

// Any 是否有任何内容被解锁
func (u *UnlockResult) Any() bool {
	return len(u.Courses)+len(u.Semesters)+len(u.MajorCourses) > 0
}

// ApprovalResult 审核通过结果
type ApprovalResult struct {
	Progress            *ProgressResponse `json:"progress"`
	UnlockResult        UnlockResult      `json:"unlock_result"`
	NotificationCreated bool              `json:"notification_created"`
}

// PendingApprovalItem 待审核队列条目
type PendingApprovalItem struct {
	Progress    ProgressResponse    `json:"progress"`
	CourseTitle string              `json:"course_title"`
	Eligibility EligibilityResponse `json:"eligibility"`
}
