package model

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "college-jump/backend/pkg/errors"
)

// ── 持久化边界校验 ──

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 错误中的字段名使用 json 标签，与 API 字段保持一致
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate 按 validate 标签校验模型，返回 *apperrors.ValidationError
// 长度规则（max）按字符计数而非字节
func Validate(m interface{}) error {
	if err := validate.Struct(m); err != nil {
		return apperrors.FromValidator(err)
	}
	return nil
}

// newID 生成应用侧主键，保证导出/导入后主键不变
func newID() string {
	return uuid.NewString()
}

// AllModels 全部持久化模型，按依赖顺序排列（被引用表在前）
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Semester{},
		&Week{},
		&Assignment{},
		&Document{},
		&Announcement{},
		&Submission{},
		&Feedback{},
		&Mentorship{},
		&Enrollment{},
		&WeekAssignment{},
		&WeekDocument{},
	}
}
