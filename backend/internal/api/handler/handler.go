package handler

import (
	"college-jump/backend/config"
	"college-jump/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Semester     *SemesterHandler
	Assignment   *AssignmentHandler
	Document     *DocumentHandler
	Announcement *AnnouncementHandler
	Backup       *BackupHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Semester:     NewSemesterHandler(svc.Semester, svc.Week),
		Assignment:   NewAssignmentHandler(svc.Assignment),
		Document:     NewDocumentHandler(svc.Document),
		Announcement: NewAnnouncementHandler(svc.Announcement),
		Backup:       NewBackupHandler(svc.Backup, cfg.Backup.MaxArchiveBytes()),
		Export:       NewExportHandler(svc.Export),
	}
}
