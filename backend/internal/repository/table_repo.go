package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"college-jump/backend/internal/model"
)

// ColumnKind 列的值类型，决定导出编码与导入解析方式
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInt
	KindBool
	KindTime
	KindDate
	KindBytes
	KindJSON
)

// TableInfo 由模型定义推导出的表结构
type TableInfo struct {
	Name        string
	Columns     []string // 模型字段顺序，即导出列顺序
	PrimaryKeys []string
	Kinds       map[string]ColumnKind
	Nullable    map[string]bool
}

// TableRepository 按表名批量读写行，供整库导出/导入使用
// 不经过模型钩子，行数据按原样写入
type TableRepository interface {
	// Tables 全部数据表，按依赖顺序（被引用表在前）
	Tables() ([]TableInfo, error)
	// Dump 按主键顺序读出整表；单元格为 nil、string、int64、bool、time.Time 或 []byte
	// 日期列（KindDate）同样以 time.Time 返回
	Dump(ctx context.Context, table TableInfo) ([][]interface{}, error)
	Clear(ctx context.Context, table TableInfo) error
	Insert(ctx context.Context, table TableInfo, row map[string]interface{}) error
}

type tableRepo struct {
	db *gorm.DB
}

// NewTableRepo 创建 TableRepository 实例
func NewTableRepo(db *gorm.DB) TableRepository {
	return &tableRepo{db: db}
}

// Tables 模型解析结果由 gorm 的 schema 缓存复用
func (r *tableRepo) Tables() ([]TableInfo, error) {
	models := model.AllModels()
	out := make([]TableInfo, 0, len(models))
	for _, m := range models {
		stmt := &gorm.Statement{DB: r.db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("解析模型 %T 失败: %w", m, err)
		}
		s := stmt.Schema
		info := TableInfo{
			Name:        s.Table,
			Columns:     append([]string(nil), s.DBNames...),
			PrimaryKeys: append([]string(nil), s.PrimaryFieldDBNames...),
			Kinds:       make(map[string]ColumnKind, len(s.DBNames)),
			Nullable:    make(map[string]bool, len(s.DBNames)),
		}
		for _, name := range s.DBNames {
			f := s.FieldsByDBName[name]
			info.Kinds[name] = kindOf(f)
			info.Nullable[name] = !f.NotNull && !f.PrimaryKey
		}
		out = append(out, info)
	}
	return out, nil
}

func kindOf(f *schema.Field) ColumnKind {
	switch f.DataType {
	case schema.Bool:
		return KindBool
	case schema.Int, schema.Uint:
		return KindInt
	case schema.Time:
		return KindTime
	case "date":
		return KindDate
	case schema.Bytes:
		return KindBytes
	case "json":
		return KindJSON
	}
	return KindString
}

func (r *tableRepo) Dump(ctx context.Context, table TableInfo) ([][]interface{}, error) {
	order := make([]clause.OrderByColumn, 0, len(table.PrimaryKeys))
	for _, pk := range table.PrimaryKeys {
		order = append(order, clause.OrderByColumn{Column: clause.Column{Name: pk}})
	}

	rows, err := r.db.WithContext(ctx).
		Table(table.Name).
		Select(table.Columns).
		Clauses(clause.OrderBy{Columns: order}).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]interface{}
	for rows.Next() {
		dest := make([]interface{}, len(table.Columns))
		for i, col := range table.Columns {
			dest[i] = scanTarget(table.Kinds[col])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("读取表 %s 失败: %w", table.Name, err)
		}
		row := make([]interface{}, len(dest))
		for i, d := range dest {
			row[i] = scannedValue(d)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanTarget(kind ColumnKind) interface{} {
	switch kind {
	case KindInt:
		return new(sql.NullInt64)
	case KindBool:
		return new(sql.NullBool)
	case KindTime, KindDate:
		return new(sql.NullTime)
	case KindBytes:
		return new([]byte)
	default:
		return new(sql.NullString)
	}
}

func scannedValue(d interface{}) interface{} {
	switch v := d.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullBool:
		if v.Valid {
			return v.Bool
		}
	case *sql.NullTime:
		if v.Valid {
			return v.Time
		}
	case *[]byte:
		if *v != nil {
			return *v
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	}
	return nil
}

func (r *tableRepo) Clear(ctx context.Context, table TableInfo) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM ?", clause.Table{Name: table.Name}).Error
}

func (r *tableRepo) Insert(ctx context.Context, table TableInfo, row map[string]interface{}) error {
	return r.db.WithContext(ctx).Table(table.Name).Create(row).Error
}
