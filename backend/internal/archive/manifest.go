package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ManifestName 归档内清单文件名
const ManifestName = "manifest.json"

// FormatVersion 当前归档格式版本
// 1: 单元格原样写入 CSV
// 2: 单元格中的 \ 与 \r 转义为 \\ 与 \r
const FormatVersion = 2

// Manifest 归档元数据：每张表的列顺序、行数与校验和
// 没有清单的归档按数据库当前列顺序读取
type Manifest struct {
	FormatVersion int          `json:"format_version"`
	CreatedAt     time.Time    `json:"created_at"`
	Tables        []TableEntry `json:"tables"`
}

// TableEntry 单张表的元数据
type TableEntry struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
	SHA256  string   `json:"sha256"`
}

// Validate 校验清单字段完整性
func (m *Manifest) Validate() error {
	if m.FormatVersion < 1 || m.FormatVersion > FormatVersion {
		return fmt.Errorf("不支持的归档格式版本: %d", m.FormatVersion)
	}
	seen := make(map[string]bool, len(m.Tables))
	for _, t := range m.Tables {
		if t.Name == "" {
			return fmt.Errorf("清单中存在空表名")
		}
		if seen[t.Name] {
			return fmt.Errorf("清单中表 %s 重复", t.Name)
		}
		seen[t.Name] = true
		if len(t.Columns) == 0 {
			return fmt.Errorf("清单中表 %s 缺少列定义", t.Name)
		}
	}
	return nil
}

// Table 按表名查找清单条目
func (m *Manifest) Table(name string) (TableEntry, bool) {
	for _, t := range m.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableEntry{}, false
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
