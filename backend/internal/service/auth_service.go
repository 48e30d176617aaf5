package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"college-jump/backend/config"
	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
	"college-jump/backend/pkg/jwt"
	"college-jump/backend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrSetupKeyInvalid    = errors.New("初始化密钥错误")
	ErrSetupClosed        = errors.New("系统已存在管理员，初始化入口已关闭")
	ErrTokenRevoked       = errors.New("token 已注销")
)

// AuthService 认证业务接口
type AuthService interface {
	// Setup 使用一次性密钥创建首个管理员，仅在系统中尚无管理员时可用
	Setup(ctx context.Context, req *dto.SetupRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 将 access token 与可选的 refresh token 加入黑名单（未启用 Redis 时为空操作）
	Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error
	// LoadUser 按 token 中的用户 ID 重新加载用户，角色变更即时生效
	LoadUser(ctx context.Context, userID string) (*model.User, error)
	Me(ctx context.Context, user *model.User) (*dto.UserResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client // 可为 nil
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Setup ──────────────────────

func (s *authService) Setup(ctx context.Context, req *dto.SetupRequest) (*dto.TokenResponse, error) {
	user := &model.User{
		Name:    strings.TrimSpace(req.Name),
		Email:   model.NormalizeEmail(req.Email),
		IsAdmin: true,
	}
	if err := user.SetPassword(req.Password, s.cfg.Auth.BcryptCost); err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		hasAdmin, err := txRepo.User.HasAdmin(ctx)
		if err != nil {
			return err
		}
		if hasAdmin {
			return ErrSetupClosed
		}
		if subtle.ConstantTimeCompare([]byte(req.SetupKey), []byte(s.cfg.Auth.SetupKey)) != 1 {
			return ErrSetupKeyInvalid
		}
		if err := checkEmailFree(ctx, txRepo, user.Email, ""); err != nil {
			return err
		}
		return txRepo.User.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, ErrSetupClosed) || errors.Is(err, ErrSetupKeyInvalid) {
			s.logger.Warn("初始化请求被拒绝", zap.String("email", user.Email), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("首个管理员已创建", zap.String("id", user.ID))
	return s.issueTokens(ctx, user)
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issueTokens(ctx, user)
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseTyped(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := s.LoadUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	// 旧 refresh token 轮换后作废
	s.revoke(ctx, claims)
	return resp, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error {
	if s.rdb == nil {
		return nil
	}
	if access != nil {
		s.revoke(ctx, access)
	}
	if refreshToken != "" {
		claims, err := s.jwtMgr.ParseTyped(refreshToken, jwt.TokenTypeRefresh)
		if err != nil {
			return err
		}
		if access != nil && claims.UserID != access.UserID {
			return jwt.ErrTokenInvalid
		}
		s.revoke(ctx, claims)
	}
	return nil
}

// ────────────────────── LoadUser / Me ──────────────────────

func (s *authService) LoadUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("加载用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *authService) Me(ctx context.Context, user *model.User) (*dto.UserResponse, error) {
	resp, err := buildUserResponse(ctx, s.repo, user)
	if err != nil {
		s.logger.Error("加载用户关联失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.ID)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.ID)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	userResp, err := buildUserResponse(ctx, s.repo, user)
	if err != nil {
		s.logger.Error("加载用户关联失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *userResp,
	}, nil
}

func (s *authService) isRevoked(ctx context.Context, jti string) (bool, error) {
	if s.rdb == nil {
		return false, nil
	}
	revoked, err := s.rdb.IsBlacklisted(ctx, jti)
	if err != nil {
		s.logger.Error("查询 token 黑名单失败", zap.Error(err))
		return false, err
	}
	return revoked, nil
}

// revoke 按剩余有效期将 token 加入黑名单；Redis 故障只记录日志
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.rdb == nil || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("token 加入黑名单失败", zap.String("user_id", claims.UserID), zap.Error(err))
	}
}
