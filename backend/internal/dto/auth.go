package dto

// ── 认证模块 DTO ──

// SetupRequest 首个管理员引导请求，仅在系统中尚无管理员时可用
type SetupRequest struct {
	SetupKey string `json:"setup_key" binding:"required"`
	Name     string `json:"name"      binding:"required,max=128"`
	Email    string `json:"email"     binding:"required,email,max=128"`
	Password string `json:"password"  binding:"required,min=8,max=72"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,max=128"`
	Password string `json:"password" binding:"required,max=72"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest 注销请求；refresh_token 可选，提供时一并作废
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
