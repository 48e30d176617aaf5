package model

import (
	"time"

	"gorm.io/gorm"
)

// Submission 作业提交表：对应 submissions
type Submission struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Text         string    `gorm:"type:text;not null"   json:"text"`
	CreatedAt    time.Time `gorm:"not null;index"       json:"created_at"`
	AuthorID     *string   `gorm:"type:uuid;index"      json:"author_id,omitempty"`
	AssignmentID string    `gorm:"type:uuid;not null"   json:"assignment_id" validate:"required"`

	// 关联
	Author     *User       `gorm:"foreignKey:AuthorID"     json:"-"`
	Assignment *Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }

// BeforeCreate 生成主键
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

// BeforeSave 校验字段
func (s *Submission) BeforeSave(tx *gorm.DB) error {
	return Validate(s)
}

// Feedback 提交反馈表：对应 feedback
type Feedback struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Text         string    `gorm:"type:text;not null"   json:"text"`
	CreatedAt    time.Time `gorm:"not null"             json:"created_at"`
	AuthorID     *string   `gorm:"type:uuid"            json:"author_id,omitempty"`
	SubmissionID string    `gorm:"type:uuid;not null"   json:"submission_id" validate:"required"`

	// 关联
	Author     *User       `gorm:"foreignKey:AuthorID"     json:"-"`
	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"-"`
}

// TableName 指定表名
func (Feedback) TableName() string { return "feedback" }

// BeforeCreate 生成主键
func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = newID()
	}
	return nil
}

// BeforeSave 校验字段
func (f *Feedback) BeforeSave(tx *gorm.DB) error {
	return Validate(f)
}
