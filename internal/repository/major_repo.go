package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms-progress/internal/model"
)

// MajorRepository 专业数据访问接口
type MajorRepository interface {
	GetByID(ctx context.Context, id string) (*model.Major, error)
	List(ctx context.Context) ([]model.Major, error)
	GetMajorCourses(ctx context.Context, majorID string) ([]model.MajorCourse, error)
}

type majorRepo struct {
	db *gorm.DB
}

// NewMajorRepo 创建 MajorRepository 实例
func NewMajorRepo(db *gorm.DB) MajorRepository {
	return &majorRepo{db: db}
}

func (r *majorRepo) GetByID(ctx context.Context, id string) (*model.Major, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var major model.Major
	err := r.db.WithContext(ctx).
		Where("major_id = ?", id).
		First(&major).Error
	if err != nil {
		return nil, err
	}
	return &major, nil
}

func (r *majorRepo) List(ctx context.Context) ([]model.Major, error) {
	var majors []model.Major
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&majors).Error
	return majors, err
}

// GetMajorCourses 专业课程列表（预加载课程），按专业培养方案顺序返回
func (r *majorRepo) GetMajorCourses(ctx context.Context, majorID string) ([]model.MajorCourse, error) {
	var mcs []model.MajorCourse
	if !isUUID(majorID) {
		return mcs, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("major_id = ?", majorID).
		Order("sort_order ASC, course_id ASC").
		Find(&mcs).Error
	return mcs, err
}

// ── 学生选专业 ──

// StudentMajorRepository 学生已选专业数据访问接口
type StudentMajorRepository interface {
	Get(ctx context.Context, studentID string) (*model.StudentMajor, error)
	Upsert(ctx context.Context, studentID, majorID string) (*model.StudentMajor, error)
}

type studentMajorRepo struct {
	db *gorm.DB
}

// NewStudentMajorRepo 创建 StudentMajorRepository 实例
func NewStudentMajorRepo(db *gorm.DB) StudentMajorRepository {
	return &studentMajorRepo{db: db}
}

func (r *studentMajorRepo) Get(ctx context.Context, studentID string) (*model.StudentMajor, error) {
	if !isUUID(studentID) {
		return nil, gorm.ErrRecordNotFound
	}
	var sm model.StudentMajor
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&sm).Error
	if err != nil {
		return nil, err
	}
	return &sm, nil
}

// Upsert 选择或更换专业；已有记录时覆盖 major_id 与 selected_at
func (r *studentMajorRepo) Upsert(ctx context.Context, studentID, majorID string) (*model.StudentMajor, error) {
	sm := model.StudentMajor{
		StudentID:  studentID,
		MajorID:    majorID,
		SelectedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"major_id", "selected_at", "updated_at"}),
		}).
		Create(&sm).Error
	if err != nil {
		return nil, err
	}
	return &sm, nil
}
