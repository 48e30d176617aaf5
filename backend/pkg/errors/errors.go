package errors

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrPermissionDenied 已认证但无权执行该操作
	ErrPermissionDenied = errors.New("无权操作")
	// ErrDataIntegrity 本应唯一的查询返回了多行记录
	ErrDataIntegrity = errors.New("数据完整性错误")
)

// ValidationError 字段约束校验失败（长度、唯一性、必填等）
type ValidationError struct {
	Field string
	Rule  string
	Param string
}

func (e *ValidationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("字段 %s 校验失败: %s=%s", e.Field, e.Rule, e.Param)
	}
	return fmt.Sprintf("字段 %s 校验失败: %s", e.Field, e.Rule)
}

// NewValidationError 创建单字段校验错误
func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule}
}

// FromValidator 将 validator 的错误转换为 ValidationError（取第一个失败字段）
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{
		Field: fe.Field(),
		Rule:  fe.Tag(),
		Param: fe.Param(),
	}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ImportFailedError 批量导入失败，整个事务已回滚
type ImportFailedError struct {
	Table string
	Err   error
}

func (e *ImportFailedError) Error() string {
	return fmt.Sprintf("导入表 %s 失败，已回滚: %v", e.Table, e.Err)
}

func (e *ImportFailedError) Unwrap() error { return e.Err }
