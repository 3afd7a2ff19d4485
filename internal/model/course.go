package model

// Course 课程表，对应 courses
// Order 为学期内的先后顺序；完成条件由 RequiredSessions / RequiredProjects 决定
type Course struct {
	CourseID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	SemesterID       string `gorm:"type:uuid;not null;index"                       json:"semester_id"`
	Title            string `gorm:"type:varchar(200);not null"                     json:"title"`
	Order            int    `gorm:"column:sort_order;not null"                     json:"order"`
	RequiredSessions int    `gorm:"not null"                                       json:"required_sessions"`
	RequiredProjects int    `gorm:"not null;default:0"                             json:"required_projects"`
	SoftDeleteModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
