package model

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 字段长度上限，DTO 绑定标签与之保持一致
const (
	UserNameMaxLength  = 128
	UserEmailMaxLength = 128
)

// User 用户表：对应 users
type User struct {
	ID           string `gorm:"type:uuid;primaryKey"              json:"id"`
	Name         string `gorm:"type:varchar(128);not null"        json:"name"     validate:"required,max=128"`
	Email        string `gorm:"type:varchar(128);not null;unique" json:"email"    validate:"required,max=128,email"`
	PasswordHash string `gorm:"type:varchar(128);not null"        json:"-"        validate:"required"`
	IsAdmin      bool   `gorm:"not null;default:false"            json:"is_admin"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// NormalizeEmail 统一邮箱格式：去除首尾空白并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword 以 bcrypt 生成新的加盐哈希，每次调用盐值都不同
func (u *User) SetPassword(plaintext string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验明文密码是否与存储的哈希匹配
func (u *User) CheckPassword(plaintext string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

// BeforeCreate 生成主键
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return nil
}

// BeforeSave 规范化邮箱并校验字段
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return Validate(u)
}
