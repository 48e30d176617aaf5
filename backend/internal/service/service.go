package service

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"college-jump/backend/config"
	"college-jump/backend/internal/repository"
	"college-jump/backend/pkg/jwt"
	"college-jump/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Semester     SemesterService
	Week         WeekService
	Assignment   AssignmentService
	Document     DocumentService
	Announcement AnnouncementService
	Visibility   VisibilityService
	Backup       BackupService
	Export       ExportService
}

// NewService 创建 Service 聚合；rdb 为 nil 时不启用 token 黑名单
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	visibility := NewVisibilityService(repo, logger)
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:         NewUserService(repo, cfg.Auth.BcryptCost, logger),
		Semester:     NewSemesterService(repo, visibility, logger),
		Week:         NewWeekService(repo, visibility, logger),
		Assignment:   NewAssignmentService(repo, visibility, logger),
		Document:     NewDocumentService(repo, visibility, logger),
		Announcement: NewAnnouncementService(repo, logger),
		Visibility:   visibility,
		Backup:       NewBackupService(repo, DefaultTransforms(), cfg.Backup.MaxArchiveBytes(), logger),
		Export:       NewExportService(repo, visibility, logger),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
