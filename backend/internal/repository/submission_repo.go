package repository

import (
	"context"

	"gorm.io/gorm"

	"college-jump/backend/internal/model"
)

// SubmissionRepository 作业提交数据访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, s *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	// ListByAssignment 按提交时间倒序
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error)
	// ListByAssignmentAuthors 只返回 authorIDs 中作者的提交，authorIDs 为空时结果为空
	ListByAssignmentAuthors(ctx context.Context, assignmentID string, authorIDs []string) ([]model.Submission, error)
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, s *model.Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var s model.Submission
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	var list []model.Submission
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *submissionRepo) ListByAssignmentAuthors(ctx context.Context, assignmentID string, authorIDs []string) ([]model.Submission, error) {
	var list []model.Submission
	if len(authorIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("assignment_id = ? AND author_id IN ?", assignmentID, authorIDs).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
