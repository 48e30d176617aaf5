package dto

import "time"

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（不含密码哈希）
type UserResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	IsAdmin     bool     `json:"is_admin"`
	MentorIDs   []string `json:"mentor_ids"`
	MenteeIDs   []string `json:"mentee_ids"`
	SemesterIDs []string `json:"semester_ids"`
}

// ── 内容响应 ──

// AuthorRef 作者摘要；作者已删除时为 nil
type AuthorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AnnouncementResponse 公告
type AnnouncementResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	Author    *AuthorRef `json:"author"`
}

// SubmissionResponse 作业提交
type SubmissionResponse struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	Text         string     `json:"text"`
	CreatedAt    time.Time  `json:"created_at"`
	Author       *AuthorRef `json:"author"`
}

// FeedbackResponse 提交反馈
type FeedbackResponse struct {
	ID           string     `json:"id"`
	SubmissionID string     `json:"submission_id"`
	Text         string     `json:"text"`
	CreatedAt    time.Time  `json:"created_at"`
	Author       *AuthorRef `json:"author"`
}

// ImportResult 整库导入结果
type ImportResult struct {
	Tables  map[string]int `json:"tables"`  // 表名 → 导入行数
	Skipped []string       `json:"skipped"` // 归档中缺失、未做修改的表
}
