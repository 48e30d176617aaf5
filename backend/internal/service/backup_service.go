package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"college-jump/backend/internal/archive"
	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/repository"
	apperrors "college-jump/backend/pkg/errors"
)

// BackupService 整库导出与破坏性导入
type BackupService interface {
	// Export 在同一读事务内按依赖顺序导出全部表
	Export(ctx context.Context, w io.Writer) error
	// Import 在单个事务中替换归档内出现的表，任何失败整体回滚并返回 *apperrors.ImportFailedError
	Import(ctx context.Context, data []byte) (*dto.ImportResult, error)
}

type backupService struct {
	repo        *repository.Repository
	transforms  map[string]RowTransform
	memberLimit int64
	logger      *zap.Logger
}

// NewBackupService 创建 BackupService 实例
// memberLimit 为单个归档成员解压后的最大字节数
func NewBackupService(
	repo *repository.Repository,
	transforms map[string]RowTransform,
	memberLimit int64,
	logger *zap.Logger,
) BackupService {
	return &backupService{
		repo:        repo,
		transforms:  transforms,
		memberLimit: memberLimit,
		logger:      logger,
	}
}

// ────────────────────── Export ──────────────────────

func (s *backupService) Export(ctx context.Context, w io.Writer) error {
	tables, err := s.repo.Table.Tables()
	if err != nil {
		s.logger.Error("解析表结构失败", zap.Error(err))
		return err
	}

	aw := archive.NewWriter(w)
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for _, t := range tables {
			rows, err := txRepo.Table.Dump(ctx, t)
			if err != nil {
				return fmt.Errorf("导出表 %s 失败: %w", t.Name, err)
			}
			records := make([][]string, 0, len(rows))
			for _, row := range rows {
				record := make([]string, len(row))
				for i, v := range row {
					record[i] = formatCell(t.Kinds[t.Columns[i]], v)
				}
				records = append(records, record)
			}
			if err := aw.WriteTable(t.Name, t.Columns, records); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("整库导出失败", zap.Error(err))
		return err
	}
	if err := aw.Close(); err != nil {
		s.logger.Error("写入归档失败", zap.Error(err))
		return err
	}

	s.logger.Info("整库导出完成", zap.Int("tables", len(tables)))
	return nil
}

// formatCell 将单元格编码为 CSV 字段：二进制用 base64，时间用 UTC，NULL 为空串
func formatCell(kind repository.ColumnKind, v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if kind == repository.KindDate {
			return val.UTC().Format(dateLayout)
		}
		return val.UTC().Format(time.RFC3339Nano)
	case []byte:
		if kind == repository.KindBytes {
			return base64.StdEncoding.EncodeToString(val)
		}
		return string(val)
	}
	return fmt.Sprint(v)
}

// ────────────────────── Import ──────────────────────

func (s *backupService) Import(ctx context.Context, data []byte) (*dto.ImportResult, error) {
	reader, err := archive.NewReader(data, s.memberLimit)
	if err != nil {
		s.logger.Warn("归档无法读取", zap.Error(err))
		return nil, &apperrors.ImportFailedError{Table: archive.ManifestName, Err: err}
	}

	tables, err := s.repo.Table.Tables()
	if err != nil {
		s.logger.Error("解析表结构失败", zap.Error(err))
		return nil, err
	}

	result := &dto.ImportResult{Tables: make(map[string]int), Skipped: []string{}}
	var present []repository.TableInfo
	for _, t := range tables {
		if reader.Has(t.Name) {
			present = append(present, t)
			continue
		}
		s.logger.Warn("归档中缺少该表，保持原数据不变", zap.String("table", t.Name))
		result.Skipped = append(result.Skipped, t.Name)
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		// 先删子表再删父表
		for i := len(present) - 1; i >= 0; i-- {
			if err := txRepo.Table.Clear(ctx, present[i]); err != nil {
				return &apperrors.ImportFailedError{Table: present[i].Name, Err: err}
			}
		}
		// 先写父表再写子表
		for _, t := range present {
			n, err := s.importTable(ctx, txRepo, reader, t)
			if err != nil {
				return &apperrors.ImportFailedError{Table: t.Name, Err: err}
			}
			result.Tables[t.Name] = n
		}
		return nil
	})
	if err != nil {
		s.logger.Error("整库导入失败，已回滚", zap.Error(err))
		return nil, err
	}

	s.logger.Info("整库导入完成",
		zap.Int("tables", len(result.Tables)), zap.Strings("skipped", result.Skipped))
	return result, nil
}

func (s *backupService) importTable(
	ctx context.Context,
	txRepo *repository.Repository,
	reader *archive.Reader,
	t repository.TableInfo,
) (int, error) {
	columns := reader.Columns(t.Name)
	if columns == nil {
		columns = t.Columns
	}
	for _, col := range columns {
		if _, ok := t.Kinds[col]; !ok {
			return 0, fmt.Errorf("未知列 %s", col)
		}
	}

	records, err := reader.ReadTable(t.Name, len(columns))
	if err != nil {
		return 0, err
	}

	transform := s.transforms[t.Name]
	for i, record := range records {
		row := make(map[string]interface{}, len(columns))
		for j, col := range columns {
			row[col] = record[j]
		}
		if transform != nil {
			if err := transform(row); err != nil {
				return 0, fmt.Errorf("第 %d 行: %w", i+1, err)
			}
		}
		if err := txRepo.Table.Insert(ctx, t, row); err != nil {
			return 0, fmt.Errorf("第 %d 行写入失败: %w", i+1, err)
		}
	}
	return len(records), nil
}
