package dto

// ── 培养方案视图 DTO ──

// CourseView 课程在序列中的视图
type CourseView struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Order            int                 `json:"order"`
	RequiredSessions int                 `json:"required_sessions"`
	RequiredProjects int                 `json:"required_projects"`
	ViewStatus       string              `json:"view_status"` // locked | in_progress | completed
	Badge            BadgeResponse       `json:"badge"`
	Progress         *ProgressResponse   `json:"progress,omitempty"`
	Eligibility      EligibilityResponse `json:"eligibility"`
}

// SemesterView 学期视图
type SemesterView struct {
	ID                     string       `json:"id"`
	Name                   string       `json:"name"`
	Order                  int          `json:"order"`
	RequiresMajorSelection bool         `json:"requires_major_selection"`
	NeedsMajorSelection    bool         `json:"needs_major_selection"` // 需要选专业但学生尚未选择
	ViewStatus             string       `json:"view_status"`
	Courses                []CourseView `json:"courses"`
}

// SemesterProgramResponse 学生培养方案（学期序列）
type SemesterProgramResponse struct {
	StudentID string         `json:"student_id"`
	Semesters []SemesterView `json:"semesters"`
}

// MajorResponse 专业简要信息
type MajorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MajorCourseView 专业课程视图
type MajorCourseView struct {
	CourseView
	IsRequired bool `json:"is_required"`
}

// MajorCurriculumResponse 学生专业培养方案
type MajorCurriculumResponse struct {
	StudentID string            `json:"student_id"`
	Major     *MajorResponse    `json:"major"` // 未选专业时为 null
	Courses   []MajorCourseView `json:"courses"`
}

// SelectMajorRequest 选择专业请求
type SelectMajorRequest struct {
	MajorID string `json:"major_id" binding:"required"`
}

// TrackingRow 管理端课程跟踪中的一行
type TrackingRow struct {
	Progress    ProgressResponse    `json:"progress"`
	Badge       BadgeResponse       `json:"badge"`
	Eligibility EligibilityResponse `json:"eligibility"`
}

// CourseTrackingResponse 管理端课程跟踪视图
type CourseTrackingResponse struct {
	CourseID         string        `json:"course_id"`
	Title            string        `json:"title"`
	RequiredSessions int           `json:"required_sessions"`
	RequiredProjects int           `json:"required_projects"`
	Records          []TrackingRow `json:"records"`
}
