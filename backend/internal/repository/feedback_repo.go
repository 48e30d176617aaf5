package repository

import (
	"context"

	"gorm.io/gorm"

	"college-jump/backend/internal/model"
)

// FeedbackRepository 提交反馈数据访问接口
type FeedbackRepository interface {
	Create(ctx context.Context, f *model.Feedback) error
	// ListBySubmission 按时间正序
	ListBySubmission(ctx context.Context, submissionID string) ([]model.Feedback, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

// NewFeedbackRepo 创建 FeedbackRepository 实例
func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *feedbackRepo) ListBySubmission(ctx context.Context, submissionID string) ([]model.Feedback, error) {
	var list []model.Feedback
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
