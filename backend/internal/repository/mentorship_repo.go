package repository

import (
	"context"

	"gorm.io/gorm"

	"college-jump/backend/internal/model"
)

// MentorshipRepository 导师关系数据访问接口
type MentorshipRepository interface {
	MenteeIDs(ctx context.Context, mentorID string) ([]string, error)
	MentorIDs(ctx context.Context, menteeID string) ([]string, error)
	IsMentorOf(ctx context.Context, mentorID, menteeID string) (bool, error)
	// ReplaceMentors 以 mentorIDs 整体替换该用户的导师集合
	ReplaceMentors(ctx context.Context, menteeID string, mentorIDs []string) error
}

type mentorshipRepo struct {
	db *gorm.DB
}

// NewMentorshipRepo 创建 MentorshipRepository 实例
func NewMentorshipRepo(db *gorm.DB) MentorshipRepository {
	return &mentorshipRepo{db: db}
}

func (r *mentorshipRepo) MenteeIDs(ctx context.Context, mentorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Mentorship{}).
		Where("mentor_id = ?", mentorID).
		Pluck("mentee_id", &ids).Error
	return ids, err
}

func (r *mentorshipRepo) MentorIDs(ctx context.Context, menteeID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Mentorship{}).
		Where("mentee_id = ?", menteeID).
		Pluck("mentor_id", &ids).Error
	return ids, err
}

func (r *mentorshipRepo) IsMentorOf(ctx context.Context, mentorID, menteeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Mentorship{}).
		Where("mentor_id = ? AND mentee_id = ?", mentorID, menteeID).
		Count(&count).Error
	return count > 0, err
}

func (r *mentorshipRepo) ReplaceMentors(ctx context.Context, menteeID string, mentorIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mentee_id = ?", menteeID).Delete(&model.Mentorship{}).Error; err != nil {
			return err
		}
		ids := dedupe(mentorIDs)
		if len(ids) == 0 {
			return nil
		}
		rows := make([]model.Mentorship, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, model.Mentorship{MentorID: id, MenteeID: menteeID})
		}
		return tx.Create(&rows).Error
	})
}

// dedupe 去重并保持原有顺序
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
