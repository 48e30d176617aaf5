package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
	apperrors "college-jump/backend/pkg/errors"
)

var ErrDocumentNotFound = errors.New("资料不存在")

// DocumentService 周资料下载与删除；上传见 WeekService.AddDocument
type DocumentService interface {
	Get(ctx context.Context, user *model.User, id string) (*model.Document, error)
	Delete(ctx context.Context, id string) error
}

type documentService struct {
	repo       *repository.Repository
	visibility VisibilityService
	logger     *zap.Logger
}

// NewDocumentService 创建 DocumentService 实例
func NewDocumentService(repo *repository.Repository, visibility VisibilityService, logger *zap.Logger) DocumentService {
	return &documentService{repo: repo, visibility: visibility, logger: logger}
}

func (s *documentService) Get(ctx context.Context, user *model.User, id string) (*model.Document, error) {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		s.logger.Error("查询资料失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	ok, err := s.visibility.CanViewDocument(ctx, user, id)
	if err != nil {
		s.logger.Error("资料可见性查询失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrPermissionDenied
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Document.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		s.logger.Error("删除资料失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("资料已删除", zap.String("id", id))
	return nil
}
