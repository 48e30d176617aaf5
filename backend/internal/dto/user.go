package dto

// ── 用户模块 DTO ──

// CreateUserRequest 管理员创建用户请求
type CreateUserRequest struct {
	Name        string   `json:"name"         binding:"required,max=128"`
	Email       string   `json:"email"        binding:"required,email,max=128"`
	Password    string   `json:"password"     binding:"required,min=8,max=72"`
	IsAdmin     bool     `json:"is_admin"`
	MentorIDs   []string `json:"mentor_ids"   binding:"omitempty,dive,uuid"`
	SemesterIDs []string `json:"semester_ids" binding:"omitempty,dive,uuid"`
}

// UserEditRequest 用户编辑请求，按调用者角色选择具体变体：
// 普通用户编辑自己时为 SelfEdit，管理员为 AdminEdit
type UserEditRequest interface {
	isUserEdit()
}

// SelfEdit 用户编辑自己：只能修改姓名和密码
type SelfEdit struct {
	Name     *string `json:"name"     binding:"omitempty,min=1,max=128"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
}

// AdminEdit 管理员编辑任意用户；nil 字段保持不变
type AdminEdit struct {
	Name        *string   `json:"name"         binding:"omitempty,min=1,max=128"`
	Email       *string   `json:"email"        binding:"omitempty,email,max=128"`
	Password    *string   `json:"password"     binding:"omitempty,min=8,max=72"`
	IsAdmin     *bool     `json:"is_admin"`
	MentorIDs   *[]string `json:"mentor_ids"   binding:"omitempty,dive,uuid"`
	SemesterIDs *[]string `json:"semester_ids" binding:"omitempty,dive,uuid"`
}

func (SelfEdit) isUserEdit()  {}
func (AdminEdit) isUserEdit() {}

// ImportUserResponse 批量导入用户响应
type ImportUserResponse struct {
	Total       int                    `json:"total"`
	Success     int                    `json:"success"`
	Failed      int                    `json:"failed"`
	Errors      []ImportUserError      `json:"errors,omitempty"`
	Credentials []ImportUserCredential `json:"credentials,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportUserCredential 导入成功的账号及其临时密码，仅在导入响应中返回一次
type ImportUserCredential struct {
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}
