package model

import "time"

// Major 专业方向表，对应 majors
type Major struct {
	MajorID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"major_id"`
	Name    string `gorm:"type:varchar(100);not null"                     json:"name"`
	SoftDeleteModel
}

// TableName 指定表名
func (Major) TableName() string { return "majors" }

// MajorCourse 专业课程关联表，对应 major_courses
// Order 为专业培养方案内的顺序，与课程在学期内的顺序相互独立
// IsRequired 仅作展示，不参与解锁判定
type MajorCourse struct {
	MajorCourseID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"major_course_id"`
	MajorID       string `gorm:"type:uuid;not null"                             json:"major_id"`
	CourseID      string `gorm:"type:uuid;not null"                             json:"course_id"`
	Order         int    `gorm:"column:sort_order;not null"                     json:"order"`
	IsRequired    bool   `gorm:"not null;default:true"                          json:"is_required"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (MajorCourse) TableName() string { return "major_courses" }

// StudentMajor 学生已选专业，对应 student_majors（与学生 1:1）
type StudentMajor struct {
	StudentID  string    `gorm:"type:uuid;primaryKey" json:"student_id"`
	MajorID    string    `gorm:"type:uuid;not null"   json:"major_id"`
	SelectedAt time.Time `gorm:"not null"             json:"selected_at"`
	BaseModel
}

// TableName 指定表名
func (StudentMajor) TableName() string { return "student_majors" }
