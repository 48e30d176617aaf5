package model

import "gorm.io/gorm"

const (
	DocumentNameMaxLength = 64
	DefaultContentType    = "application/octet-stream"
)

// Document 周资料文件表：对应 documents
type Document struct {
	ID          string `gorm:"type:uuid;primaryKey"        json:"id"`
	Name        string `gorm:"type:varchar(64);not null"   json:"name"         validate:"required,max=64"`
	ContentType string `gorm:"type:varchar(128);not null"  json:"content_type" validate:"max=128"`
	Data        []byte `gorm:"not null"                    json:"-"`
}

// TableName 指定表名
func (Document) TableName() string { return "documents" }

// BeforeCreate 生成主键
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = newID()
	}
	return nil
}

// BeforeSave 补全默认类型并校验字段
func (d *Document) BeforeSave(tx *gorm.DB) error {
	if d.ContentType == "" {
		d.ContentType = DefaultContentType
	}
	if d.Data == nil {
		d.Data = []byte{}
	}
	return Validate(d)
}
