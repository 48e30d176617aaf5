package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Mentorship   MentorshipRepository
	Enrollment   EnrollmentRepository
	Semester     SemesterRepository
	Week         WeekRepository
	Assignment   AssignmentRepository
	Document     DocumentRepository
	Announcement AnnouncementRepository
	Submission   SubmissionRepository
	Feedback     FeedbackRepository
	Table        TableRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Mentorship:   NewMentorshipRepo(db),
		Enrollment:   NewEnrollmentRepo(db),
		Semester:     NewSemesterRepo(db),
		Week:         NewWeekRepo(db),
		Assignment:   NewAssignmentRepo(db),
		Document:     NewDocumentRepo(db),
		Announcement: NewAnnouncementRepo(db),
		Submission:   NewSubmissionRepo(db),
		Feedback:     NewFeedbackRepo(db),
		Table:        NewTableRepo(db),
	}
}

// BeginTx 开启事务，调用方负责 Commit/Rollback
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个事务中执行 fn，fn 返回错误或 panic 时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
