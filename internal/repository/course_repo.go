package repository

import (
	"context"

	"gorm.io/gorm"

	"lms-progress/internal/model"
)

// CourseRepository 课程数据访问接口（只读）
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Course, error)
	FindBySemester(ctx context.Context, semesterID string) ([]model.Course, error)
	FindBySemesters(ctx context.Context, semesterIDs []string) ([]model.Course, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetByIDs 批量查询；非法或不存在的 id 不出现在结果中
func (r *courseRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Course, error) {
	var courses []model.Course
	ids = validIDs(ids)
	if len(ids) == 0 {
		return courses, nil
	}
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", ids).
		Find(&courses).Error
	return courses, err
}

// FindBySemester 学期内课程，按学期内顺序返回
func (r *courseRepo) FindBySemester(ctx context.Context, semesterID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("sort_order ASC, course_id ASC").
		Find(&courses).Error
	return courses, err
}

// FindBySemesters 批量查询多个学期的课程，避免逐学期查询
func (r *courseRepo) FindBySemesters(ctx context.Context, semesterIDs []string) ([]model.Course, error) {
	var courses []model.Course
	if len(semesterIDs) == 0 {
		return courses, nil
	}
	err := r.db.WithContext(ctx).
		Where("semester_id IN ?", semesterIDs).
		Order("sort_order ASC, course_id ASC").
		Find(&courses).Error
	return courses, err
}
