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

var ErrAnnouncementNotFound = errors.New("公告不存在")

// AnnouncementService 公告业务接口，所有登录用户可读，管理员可写
type AnnouncementService interface {
	List(ctx context.Context) ([]dto.AnnouncementResponse, error)
	Create(ctx context.Context, author *model.User, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id string) error
}

type announcementService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAnnouncementService 创建 AnnouncementService 实例
func NewAnnouncementService(repo *repository.Repository, logger *zap.Logger) AnnouncementService {
	return &announcementService{repo: repo, logger: logger}
}

func (s *announcementService) List(ctx context.Context) ([]dto.AnnouncementResponse, error) {
	list, err := s.repo.Announcement.List(ctx)
	if err != nil {
		s.logger.Error("列出公告失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.AnnouncementResponse, 0, len(list))
	for i := range list {
		out = append(out, toAnnouncementResponse(&list[i]))
	}
	return out, nil
}

func (s *announcementService) Create(ctx context.Context, author *model.User, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	a := &model.Announcement{
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
	}
	if author != nil {
		authorID := author.ID
		a.AuthorID = &authorID
	}
	if req.CreatedAt != nil {
		a.CreatedAt = req.CreatedAt.UTC()
	}

	if err := s.repo.Announcement.Create(ctx, a); err != nil {
		if !apperrors.IsValidation(err) {
			s.logger.Error("发布公告失败", zap.Error(err))
		}
		return nil, err
	}

	a.Author = author

	s.logger.Info("公告已发布", zap.String("id", a.ID))
	resp := toAnnouncementResponse(a)
	return &resp, nil
}

func (s *announcementService) Update(ctx context.Context, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	a, err := s.repo.Announcement.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		s.logger.Error("查询公告失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if req.Title != nil {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		a.Content = *req.Content
	}
	if err := s.repo.Announcement.Update(ctx, a); err != nil {
		if !apperrors.IsValidation(err) {
			s.logger.Error("更新公告失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	resp := toAnnouncementResponse(a)
	return &resp, nil
}

func (s *announcementService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Announcement.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnnouncementNotFound
		}
		s.logger.Error("删除公告失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func toAnnouncementResponse(a *model.Announcement) dto.AnnouncementResponse {
	return dto.AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		CreatedAt: a.CreatedAt,
		Author:    authorRef(a.Author),
	}
}
