package repository

import (
	"context"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms-progress/internal/model"
)

// ProgressRepository 学习进度数据访问接口
// 读改写不加锁、不开事务：并发写同一记录时以最后一次写入为准
type ProgressRepository interface {
	Create(ctx context.Context, record *model.ProgressRecord) error
	GetOrCreate(ctx context.Context, studentID, courseID string) (*model.ProgressRecord, error)
	GetByID(ctx context.Context, id string) (*model.ProgressRecord, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.ProgressRecord, error)
	FindByStudentID(ctx context.Context, studentID string) ([]model.ProgressRecord, error)
	FindByCourse(ctx context.Context, courseID string) ([]model.ProgressRecord, error)
	ListByStatus(ctx context.Context, status model.ProgressStatus, offset, limit int) ([]model.ProgressRecord, int64, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type progressRepo struct {
	db *gorm.DB
}

// NewProgressRepo 创建 ProgressRepository 实例
func NewProgressRepo(db *gorm.DB) ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) Create(ctx context.Context, record *model.ProgressRecord) error {
	if record.ProjectLinks == nil {
		record.ProjectLinks = pq.StringArray{}
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// GetOrCreate 按 (学生, 课程) 取记录，不存在时以 not_started 创建
// 并发创建由唯一约束兜底，冲突时读取已存在的记录
func (r *progressRepo) GetOrCreate(ctx context.Context, studentID, courseID string) (*model.ProgressRecord, error) {
	record := model.ProgressRecord{
		StudentID:    studentID,
		CourseID:     courseID,
		Status:       model.StatusNotStarted,
		ProjectLinks: pq.StringArray{},
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(&record).Error
	if err != nil {
		return nil, err
	}
	return r.FindByStudentAndCourse(ctx, studentID, courseID)
}

func (r *progressRepo) GetByID(ctx context.Context, id string) (*model.ProgressRecord, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var record model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("progress_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *progressRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.ProgressRecord, error) {
	if !isUUID(studentID) || !isUUID(courseID) {
		return nil, gorm.ErrRecordNotFound
	}
	var record model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *progressRepo) FindByStudentID(ctx context.Context, studentID string) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Find(&records).Error
	return records, err
}

func (r *progressRepo) FindByCourse(ctx context.Context, courseID string) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("updated_at DESC").
		Find(&records).Error
	return records, err
}

// ListByStatus 按状态分页查询，最早进入该状态的记录排在前面
func (r *progressRepo) ListByStatus(ctx context.Context, status model.ProgressStatus, offset, limit int) ([]model.ProgressRecord, int64, error) {
	var records []model.ProgressRecord
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("status = ?", status)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("updated_at ASC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// Update 部分字段更新；记录不存在时返回 gorm.ErrRecordNotFound
func (r *progressRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := model.CheckStatusField(fields); err != nil {
		return err
	}
	if !isUUID(id) {
		return gorm.ErrRecordNotFound
	}
	if links, ok := fields["project_links"].([]string); ok {
		fields["project_links"] = pq.StringArray(links)
	}

	result := r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("progress_id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
