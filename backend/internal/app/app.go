package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"college-jump/backend/config"
	"college-jump/backend/internal/repository"
	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/database"
	"college-jump/backend/pkg/jwt"
	applogger "college-jump/backend/pkg/logger"
	"college-jump/backend/pkg/redis"
)

// App HTTP 服务与管理命令共用的应用上下文
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Redis   *redis.Client // 未启用或连接失败时为 nil
	Repo    *repository.Repository
	JWT     *jwt.Manager
	Service *service.Service
}

// Options 构建选项
type Options struct {
	ConfigPath string
	Migrate    bool // 构建时执行数据库迁移
	WithRedis  bool // 管理命令不需要黑名单与限流
}

// New 按依赖顺序构建应用：配置 → 日志 → 数据库 → Redis → Repository → Service
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	if opts.Migrate {
		if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	// Redis 为可选组件，连接失败时降级运行
	var rdb *redis.Client
	if opts.WithRedis && cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单与登录限流将不可用", zap.Error(err))
			rdb = nil
		}
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)

	a := &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Redis:  rdb,
		Repo:   repo,
		JWT:    jwtMgr,
	}
	a.Service = service.NewService(cfg, repo, jwtMgr, rdb, logger)
	return a, nil
}

// EnsureSetupKey 尚无管理员且未配置初始化密钥时生成一次性密钥并输出到日志
func (a *App) EnsureSetupKey(ctx context.Context) error {
	if a.Config.Auth.SetupKey != "" {
		return nil
	}
	hasAdmin, err := a.Repo.User.HasAdmin(ctx)
	if err != nil {
		return fmt.Errorf("检查管理员失败: %w", err)
	}
	if hasAdmin {
		return nil
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("生成初始化密钥失败: %w", err)
	}
	a.Config.Auth.SetupKey = hex.EncodeToString(buf)
	a.Logger.Warn("系统尚无管理员，请使用初始化密钥调用 POST /api/v1/auth/setup",
		zap.String("setup_key", a.Config.Auth.SetupKey),
	)
	return nil
}

// Close 释放数据库与 Redis 连接
func (a *App) Close() {
	closeDB(a.DB)
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	_ = a.Logger.Sync()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
