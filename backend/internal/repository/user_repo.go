package repository

import (
	"context"

	"gorm.io/gorm"

	"college-jump/backend/internal/model"
	apperrors "college-jump/backend/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail 按规范化邮箱查询；多于一行时返回 apperrors.ErrDataIntegrity
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
	EmailTaken(ctx context.Context, email, exceptID string) (bool, error)
	HasAdmin(ctx context.Context) (bool, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context) ([]model.User, error)
	// Delete 删除用户并清理导师关系、学期注册；其发表的内容保留，作者置空
	Delete(ctx context.Context, id string) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", model.NormalizeEmail(email)).
		Limit(2).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, gorm.ErrRecordNotFound
	case 1:
		return &users[0], nil
	default:
		return nil, apperrors.ErrDataIntegrity
	}
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", model.NormalizeEmail(email))
	if exceptID != "" {
		db = db.Where("id <> ?", exceptID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) HasAdmin(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("is_admin = ?", true).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mentor_id = ? OR mentee_id = ?", id, id).Delete(&model.Mentorship{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&model.Announcement{}, &model.Submission{}, &model.Feedback{}} {
			if err := tx.Model(m).Where("author_id = ?", id).UpdateColumn("author_id", nil).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
