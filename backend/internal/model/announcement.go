package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	AnnouncementTitleMaxLength   = 128
	AnnouncementContentMaxLength = 1000
)

// Announcement 公告表：对应 announcements
// AuthorID 为空表示作者已删除
type Announcement struct {
	ID        string    `gorm:"type:uuid;primaryKey"        json:"id"`
	Title     string    `gorm:"type:varchar(128);not null"  json:"title"   validate:"required,max=128"`
	Content   string    `gorm:"type:varchar(1000);not null" json:"content" validate:"max=1000"`
	CreatedAt time.Time `gorm:"not null"                    json:"created_at"`
	AuthorID  *string   `gorm:"type:uuid"                   json:"author_id,omitempty"`

	// 关联
	Author *User `gorm:"foreignKey:AuthorID" json:"-"`
}

// TableName 指定表名
func (Announcement) TableName() string { return "announcements" }

// BeforeCreate 生成主键
func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}

// BeforeSave 校验字段
func (a *Announcement) BeforeSave(tx *gorm.DB) error {
	return Validate(a)
}
