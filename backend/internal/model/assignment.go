package model

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "college-jump/backend/pkg/errors"
)

const (
	AssignmentNameMaxLength         = 64
	AssignmentInstructionsMaxLength = 4096
)

// Assignment 作业表：对应 assignments
// Questions 为题目定义的 JSON 文档，可为空
type Assignment struct {
	ID           string         `gorm:"type:uuid;primaryKey"                   json:"id"`
	Name         string         `gorm:"type:varchar(64);not null"              json:"name"         validate:"required,max=64"`
	Instructions string         `gorm:"type:varchar(4096);not null;default:''" json:"instructions" validate:"max=4096"`
	Questions    datatypes.JSON `gorm:"default:null"                           json:"questions,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// BeforeCreate 生成主键
func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}

// BeforeSave 校验字段与题目 JSON
func (a *Assignment) BeforeSave(tx *gorm.DB) error {
	if len(a.Questions) > 0 && !json.Valid(a.Questions) {
		return apperrors.NewValidationError("questions", "json")
	}
	return Validate(a)
}
