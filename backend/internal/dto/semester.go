package dto

import "time"

// ── 学期模块 DTO ──

// CreateSemesterRequest 创建学期请求
type CreateSemesterRequest struct {
	Name  string `json:"name"  binding:"required,max=32"`
	Order int    `json:"order"`
}

// UpdateSemesterRequest 更新学期请求
type UpdateSemesterRequest struct {
	Name  *string `json:"name"  binding:"omitempty,min=1,max=32"`
	Order *int    `json:"order"`
}

// ── 教学周 DTO ──

// CreateWeekRequest 创建教学周请求；编号自动追加到学期末尾
type CreateWeekRequest struct {
	Header   string `json:"header"    binding:"required,max=64"`
	Intro    string `json:"intro"     binding:"max=1024"`
	StartsOn string `json:"starts_on" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateWeekRequest 更新教学周请求
type UpdateWeekRequest struct {
	Header   *string `json:"header"    binding:"omitempty,min=1,max=64"`
	Intro    *string `json:"intro"     binding:"omitempty,max=1024"`
	StartsOn *string `json:"starts_on" binding:"omitempty"` // 空字符串表示清除日期
}

// WeekDetail 教学周详情，包含作业与资料列表
type WeekDetail struct {
	ID          string          `json:"id"`
	SemesterID  string          `json:"semester_id"`
	WeekNum     int             `json:"week_num"`
	Header      string          `json:"header"`
	Intro       string          `json:"intro"`
	StartsOn    *time.Time      `json:"starts_on,omitempty"`
	Assignments []AssignmentRef `json:"assignments"`
	Documents   []DocumentRef   `json:"documents"`
}

// AssignmentRef 作业摘要
type AssignmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DocumentRef 资料摘要（不含内容）
type DocumentRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}
