package repository

import (
	"context"

	"gorm.io/gorm"

	"lms-progress/internal/model"
)

// SemesterRepository 学期数据访问接口（只读）
type SemesterRepository interface {
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	FindActive(ctx context.Context) ([]model.Semester, error)
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo 创建 SemesterRepository 实例
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", id).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindActive 培养方案中启用的学期，按顺序返回
func (r *semesterRepo) FindActive(ctx context.Context) ([]model.Semester, error) {
	var semesters []model.Semester
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, semester_id ASC").
		Find(&semesters).Error
	return semesters, err
}
