package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Progress     ProgressRepository
	Course       CourseRepository
	Semester     SemesterRepository
	Major        MajorRepository
	StudentMajor StudentMajorRepository
	Notification NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Progress:     NewProgressRepo(db),
		Course:       NewCourseRepo(db),
		Semester:     NewSemesterRepo(db),
		Major:        NewMajorRepo(db),
		StudentMajor: NewStudentMajorRepo(db),
		Notification: NewNotificationRepo(db),
	}
}

// 主键列均为 UUID；非法 id 直接视为记录不存在，不交给数据库报类型错误
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			out = append(out, id)
		}
	}
	return out
}
