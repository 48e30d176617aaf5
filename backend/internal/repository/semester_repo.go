package repository

import (
	"context"

	"gorm.io/gorm"

	"college-jump/backend/internal/model"
)

// SemesterRepository 学期数据访问接口
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	// List 全部学期，按 order 降序
	List(ctx context.Context) ([]model.Semester, error)
	// ListEnrolled 给定用户注册过的学期（去重），按 order 降序
	ListEnrolled(ctx context.Context, userIDs []string) ([]model.Semester, error)
	OrderTaken(ctx context.Context, order int, exceptID string) (bool, error)
	Update(ctx context.Context, semester *model.Semester) error
	// Delete 删除学期及其全部教学周、注册记录
	Delete(ctx context.Context, id string) error
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo 创建 SemesterRepository 实例
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) Create(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepo) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) List(ctx context.Context) ([]model.Semester, error) {
	var semesters []model.Semester
	err := r.db.WithContext(ctx).
		Order("sort_order DESC").
		Find(&semesters).Error
	return semesters, err
}

func (r *semesterRepo) ListEnrolled(ctx context.Context, userIDs []string) ([]model.Semester, error) {
	var semesters []model.Semester
	if len(userIDs) == 0 {
		return semesters, nil
	}
	sub := r.db.Model(&model.Enrollment{}).
		Select("semester_id").
		Where("user_id IN ?", userIDs)
	err := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Order("sort_order DESC").
		Find(&semesters).Error
	return semesters, err
}

func (r *semesterRepo) OrderTaken(ctx context.Context, order int, exceptID string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.Semester{}).
		Where("sort_order = ?", order)
	if exceptID != "" {
		db = db.Where("id <> ?", exceptID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *semesterRepo) Update(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Save(semester).Error
}

func (r *semesterRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var weekIDs []string
		if err := tx.Model(&model.Week{}).Where("semester_id = ?", id).Pluck("id", &weekIDs).Error; err != nil {
			return err
		}
		if err := deleteWeekRows(tx, weekIDs); err != nil {
			return err
		}
		if err := tx.Where("semester_id = ?", id).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Semester{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
