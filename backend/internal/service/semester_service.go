package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
	apperrors "college-jump/backend/pkg/errors"
)

var ErrSemesterNotFound = errors.New("学期不存在")

// SemesterService 学期业务接口
type SemesterService interface {
	// ListInterested 当前用户关注的学期，按 order 降序
	ListInterested(ctx context.Context, user *model.User) ([]model.Semester, error)
	Get(ctx context.Context, user *model.User, id string) (*model.Semester, error)
	Create(ctx context.Context, req *dto.CreateSemesterRequest) (*model.Semester, error)
	Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest) (*model.Semester, error)
	// Delete 连同教学周、选课关系一并删除
	Delete(ctx context.Context, id string) error
}

type semesterService struct {
	repo       *repository.Repository
	visibility VisibilityService
	logger     *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, visibility VisibilityService, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, visibility: visibility, logger: logger}
}

func (s *semesterService) ListInterested(ctx context.Context, user *model.User) ([]model.Semester, error) {
	semesters, err := s.visibility.InterestedSemesters(ctx, user)
	if err != nil {
		return nil, err
	}
	if semesters == nil {
		semesters = []model.Semester{}
	}
	return semesters, nil
}

func (s *semesterService) Get(ctx context.Context, user *model.User, id string) (*model.Semester, error) {
	semester, err := s.repo.Semester.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	ok, err := s.visibility.CanViewSemester(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrPermissionDenied
	}
	return semester, nil
}

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest) (*model.Semester, error) {
	semester := &model.Semester{Name: strings.TrimSpace(req.Name), Order: req.Order}

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := checkOrderFree(ctx, txRepo, semester.Order, ""); err != nil {
			return err
		}
		return txRepo.Semester.Create(ctx, semester)
	})
	if err != nil {
		if !apperrors.IsValidation(err) {
			s.logger.Error("创建学期失败", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("学期已创建", zap.String("id", semester.ID), zap.Int("order", semester.Order))
	return semester, nil
}

func (s *semesterService) Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest) (*model.Semester, error) {
	var semester *model.Semester
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		var err error
		semester, err = txRepo.Semester.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			semester.Name = strings.TrimSpace(*req.Name)
		}
		if req.Order != nil && *req.Order != semester.Order {
			if err := checkOrderFree(ctx, txRepo, *req.Order, id); err != nil {
				return err
			}
			semester.Order = *req.Order
		}
		return txRepo.Semester.Update(ctx, semester)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		if !apperrors.IsValidation(err) {
			s.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return semester, nil
}

func (s *semesterService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Semester.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		s.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("学期已删除", zap.String("id", id))
	return nil
}

// checkOrderFree 排序值全局唯一，冲突时在写入前返回 ValidationError
func checkOrderFree(ctx context.Context, repo *repository.Repository, order int, exceptID string) error {
	taken, err := repo.Semester.OrderTaken(ctx, order, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewValidationError("order", "unique")
	}
	return nil
}
