package model

// Semester 学期表，对应 semesters
// Order 决定学期在培养方案中的先后，只比较相对大小，允许不连续
type Semester struct {
	SemesterID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"semester_id"`
	Name                   string `gorm:"type:varchar(100);not null"                     json:"name"`
	Order                  int    `gorm:"column:sort_order;not null"                     json:"order"`
	RequiresMajorSelection bool   `gorm:"not null;default:false"                         json:"requires_major_selection"`
	IsActive               bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }
