package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	WeekHeaderMaxLength = 64
	WeekIntroMaxLength  = 1024
)

// Week 教学周表：对应 weeks
// 同一学期内以 week_num 标识，编号从 1 开始连续
type Week struct {
	ID         string     `gorm:"type:uuid;primaryKey"                                             json:"id"`
	SemesterID string     `gorm:"type:uuid;not null;uniqueIndex:idx_weeks_semester_num,priority:1" json:"semester_id" validate:"required"`
	WeekNum    int        `gorm:"not null;uniqueIndex:idx_weeks_semester_num,priority:2;check:chk_weeks_week_num,week_num >= 1" json:"week_num"    validate:"min=1"`
	Header     string     `gorm:"type:varchar(64);not null"                                        json:"header"      validate:"max=64"`
	Intro      string     `gorm:"type:varchar(1024);not null;default:''"                           json:"intro"       validate:"max=1024"`
	StartsOn   *time.Time `gorm:"type:date"                                                        json:"starts_on,omitempty"`

	// 关联
	Semester *Semester `gorm:"foreignKey:SemesterID" json:"-"`
}

// TableName 指定表名
func (Week) TableName() string { return "weeks" }

// BeforeCreate 生成主键
func (w *Week) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = newID()
	}
	return nil
}

// BeforeSave 校验字段
func (w *Week) BeforeSave(tx *gorm.DB) error {
	return Validate(w)
}
