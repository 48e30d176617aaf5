package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"college-jump/backend/internal/model"
)

// EnrollmentRepository 学期注册数据访问接口
type EnrollmentRepository interface {
	SemesterIDs(ctx context.Context, userID string) ([]string, error)
	Enroll(ctx context.Context, userID, semesterID string) error
	// ReplaceForUser 以 semesterIDs 整体替换该用户的注册学期
	ReplaceForUser(ctx context.Context, userID string, semesterIDs []string) error
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) SemesterIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ?", userID).
		Pluck("semester_id", &ids).Error
	return ids, err
}

func (r *enrollmentRepo) Enroll(ctx context.Context, userID, semesterID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Enrollment{UserID: userID, SemesterID: semesterID}).Error
}

func (r *enrollmentRepo) ReplaceForUser(ctx context.Context, userID string, semesterIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		ids := dedupe(semesterIDs)
		if len(ids) == 0 {
			return nil
		}
		rows := make([]model.Enrollment, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, model.Enrollment{UserID: userID, SemesterID: id})
		}
		return tx.Create(&rows).Error
	})
}
