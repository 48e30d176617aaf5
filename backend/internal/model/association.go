package model

import (
	"gorm.io/gorm"

	apperrors "college-jump/backend/pkg/errors"
)

// ErrSelfMentorship 用户不能成为自己的导师
var ErrSelfMentorship = &apperrors.ValidationError{Field: "mentor_ids", Rule: "not_self"}

// ── 关联表 ──
// 关联表均为显式模型，级联删除由仓储层代码完成

// Mentorship 导师关系表：对应 mentorships
type Mentorship struct {
	MentorID string `gorm:"type:uuid;primaryKey;check:chk_mentorships_not_self,mentor_id <> mentee_id" json:"mentor_id"`
	MenteeID string `gorm:"type:uuid;primaryKey"                                                      json:"mentee_id"`

	// 关联
	Mentor *User `gorm:"foreignKey:MentorID" json:"-"`
	Mentee *User `gorm:"foreignKey:MenteeID" json:"-"`
}

// TableName 指定表名
func (Mentorship) TableName() string { return "mentorships" }

// BeforeSave 拒绝自我指导
func (m *Mentorship) BeforeSave(tx *gorm.DB) error {
	if m.MentorID == m.MenteeID {
		return ErrSelfMentorship
	}
	return nil
}

// Enrollment 学期注册表：对应 enrollments
type Enrollment struct {
	UserID     string `gorm:"type:uuid;primaryKey" json:"user_id"`
	SemesterID string `gorm:"type:uuid;primaryKey" json:"semester_id"`

	// 关联
	User     *User     `gorm:"foreignKey:UserID"     json:"-"`
	Semester *Semester `gorm:"foreignKey:SemesterID" json:"-"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// WeekAssignment 周与作业关联表：对应 week_assignments
type WeekAssignment struct {
	WeekID       string `gorm:"type:uuid;primaryKey" json:"week_id"`
	AssignmentID string `gorm:"type:uuid;primaryKey" json:"assignment_id"`

	// 关联
	Week       *Week       `gorm:"foreignKey:WeekID"       json:"-"`
	Assignment *Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
}

// TableName 指定表名
func (WeekAssignment) TableName() string { return "week_assignments" }

// WeekDocument 周与资料关联表：对应 week_documents
type WeekDocument struct {
	WeekID     string `gorm:"type:uuid;primaryKey" json:"week_id"`
	DocumentID string `gorm:"type:uuid;primaryKey" json:"document_id"`

	// 关联
	Week     *Week     `gorm:"foreignKey:WeekID"     json:"-"`
	Document *Document `gorm:"foreignKey:DocumentID" json:"-"`
}

// TableName 指定表名
func (WeekDocument) TableName() string { return "week_documents" }
