package model

import "gorm.io/gorm"

const SemesterNameMaxLength = 32

// Semester 学期表：对应 semesters
// Order 全局唯一，列名为 sort_order（order 为 SQL 保留字）
type Semester struct {
	ID    string `gorm:"type:uuid;primaryKey"              json:"id"`
	Name  string `gorm:"type:varchar(32);not null"         json:"name"  validate:"required,max=32"`
	Order int    `gorm:"column:sort_order;not null;unique" json:"order"`
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// BeforeCreate 生成主键
func (s *Semester) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

// BeforeSave 校验字段
func (s *Semester) BeforeSave(tx *gorm.DB) error {
	return Validate(s)
}
