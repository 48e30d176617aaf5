package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"college-jump/backend/internal/model"
)

// RowTransform 在写入前就地修正一行数据；行中的值初始均为 CSV 字符串
type RowTransform func(row map[string]interface{}) error

// DefaultTransforms 各表导入转换注册表，未登记的表原样写入
func DefaultTransforms() map[string]RowTransform {
	authored := chain(
		convert("created_at", toTimestamp),
		convert("author_id", emptyToNull),
	)
	return map[string]RowTransform{
		"users": chain(
			convert("email", normalizeEmail),
			convert("is_admin", toBool),
			convert("password_hash", unquoteBytesLiteral),
		),
		"semesters": convert("sort_order", toInt),
		"weeks": chain(
			convert("week_num", toInt),
			convert("starts_on", toDate),
		),
		"assignments":   convert("questions", toJSON),
		"documents":     convert("data", fromBase64),
		"announcements": authored,
		"submissions":   authored,
		"feedback":      authored,
	}
}

func chain(steps ...RowTransform) RowTransform {
	return func(row map[string]interface{}) error {
		for _, step := range steps {
			if err := step(row); err != nil {
				return err
			}
		}
		return nil
	}
}

// convert 对单列应用转换；列不存在时跳过
func convert(column string, fn func(string) (interface{}, error)) RowTransform {
	return func(row map[string]interface{}) error {
		raw, ok := row[column]
		if !ok {
			return nil
		}
		s, ok := raw.(string)
		if !ok {
			return nil
		}
		v, err := fn(s)
		if err != nil {
			return fmt.Errorf("列 %s 的值 %q 无效: %w", column, s, err)
		}
		row[column] = v
		return nil
	}
}

func toBool(s string) (interface{}, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}

func toInt(s string) (interface{}, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// normalizeEmail 原始写入绕过模型钩子，这里补上与 User.BeforeSave 相同的规范化
func normalizeEmail(s string) (interface{}, error) {
	return model.NormalizeEmail(s), nil
}

func emptyToNull(s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	return s, nil
}

// unquoteBytesLiteral 旧版导出中密码哈希被写成 b'...' 形式，去掉外壳
func unquoteBytesLiteral(s string) (interface{}, error) {
	if len(s) >= 3 && strings.HasPrefix(s, "b'") && strings.HasSuffix(s, "'") {
		return s[2 : len(s)-1], nil
	}
	return s, nil
}

func toJSON(s string) (interface{}, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return datatypes.JSON(s), nil
}

func fromBase64(s string) (interface{}, error) {
	return base64.StdEncoding.DecodeString(s)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func toTimestamp(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("无法识别的时间格式")
}

// toDate 接受 YYYY-MM-DD 或带时间部分的值，空字符串为 NULL
func toDate(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
