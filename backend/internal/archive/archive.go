// Package archive 实现数据库备份归档格式：一个 zip 文件，每张表一个无表头的 <table>.csv 成员，
// 外加可选的 manifest.json。本包只负责编解码，不涉及数据库。
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

const memberExt = ".csv"

// encoding/csv 会丢弃单独的 \r，并把引号内的 \r\n 读成 \n，
// 因此自版本 2 起单元格内的 \ 与 \r 先转义再交给 csv
var (
	cellEscaper   = strings.NewReplacer(`\`, `\\`, "\r", `\r`)
	cellUnescaper = strings.NewReplacer(`\\`, `\`, `\r`, "\r")
)

var (
	ErrMemberTooLarge   = errors.New("归档成员超过大小限制")
	ErrChecksumMismatch = errors.New("归档成员校验和不匹配")
)

// MemberName 表名对应的归档成员名
func MemberName(table string) string {
	return table + memberExt
}

// ────── Writer ──────

// Writer 顺序写入各表数据，Close 时写入清单
type Writer struct {
	zw       *zip.Writer
	manifest Manifest
}

// NewWriter 创建归档写入器，Deflate 使用 klauspost/compress 实现
func NewWriter(w io.Writer) *Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	return &Writer{
		zw: zw,
		manifest: Manifest{
			FormatVersion: FormatVersion,
			CreatedAt:     time.Now().UTC(),
		},
	}
}

// WriteTable 写入一张表：rows 中每行字段数须与 columns 一致，不写表头
func (w *Writer) WriteTable(table string, columns []string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.UseCRLF = true
	escaped := make([]string, len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("表 %s 第 %d 行字段数 %d 与列数 %d 不符", table, i+1, len(row), len(columns))
		}
		for j, cell := range row {
			escaped[j] = cellEscaper.Replace(cell)
		}
		if err := cw.Write(escaped); err != nil {
			return fmt.Errorf("编码表 %s 失败: %w", table, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("编码表 %s 失败: %w", table, err)
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     MemberName(table),
		Method:   zip.Deflate,
		Modified: w.manifest.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("创建归档成员 %s 失败: %w", table, err)
	}
	if _, err := fw.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("写入归档成员 %s 失败: %w", table, err)
	}

	w.manifest.Tables = append(w.manifest.Tables, TableEntry{
		Name:    table,
		Columns: append([]string(nil), columns...),
		Rows:    len(rows),
		SHA256:  checksum(buf.Bytes()),
	})
	return nil
}

// Close 写入清单并结束 zip
func (w *Writer) Close() error {
	data, err := json.MarshalIndent(&w.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化清单失败: %w", err)
	}
	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     ManifestName,
		Method:   zip.Deflate,
		Modified: w.manifest.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("创建清单失败: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("写入清单失败: %w", err)
	}
	return w.zw.Close()
}

// ────── Reader ──────

// Reader 读取内存中的归档
type Reader struct {
	members     map[string]*zip.File
	manifest    *Manifest
	memberLimit int64
}

// NewReader 解析归档目录与清单；memberLimit 为单个成员解压后的最大字节数（<=0 不限制）
func NewReader(data []byte, memberLimit int64) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("无法读取 zip 归档: %w", err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	r := &Reader{
		members:     make(map[string]*zip.File, len(zr.File)),
		memberLimit: memberLimit,
	}
	for _, f := range zr.File {
		r.members[f.Name] = f
	}

	if f, ok := r.members[ManifestName]; ok {
		raw, err := r.readMember(f)
		if err != nil {
			return nil, fmt.Errorf("读取清单失败: %w", err)
		}
		var m Manifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("解析清单失败: %w", err)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		r.manifest = &m
	}

	return r, nil
}

// Manifest 返回归档清单，旧格式归档返回 nil
func (r *Reader) Manifest() *Manifest {
	return r.manifest
}

// Has 判断归档中是否包含该表
func (r *Reader) Has(table string) bool {
	_, ok := r.members[MemberName(table)]
	return ok
}

// Columns 返回清单记录的列顺序；无清单或清单未登记时返回 nil
func (r *Reader) Columns(table string) []string {
	if r.manifest == nil {
		return nil
	}
	if t, ok := r.manifest.Table(table); ok {
		return t.Columns
	}
	return nil
}

// ReadTable 读取一张表的全部行，每行须恰好 fields 个字段
// 有清单时先校验成员的 SHA-256；版本 2 及以上的归档还原单元格转义
func (r *Reader) ReadTable(table string, fields int) ([][]string, error) {
	f, ok := r.members[MemberName(table)]
	if !ok {
		return nil, fmt.Errorf("归档中不存在成员 %s", MemberName(table))
	}

	raw, err := r.readMember(f)
	if err != nil {
		return nil, err
	}

	if r.manifest != nil {
		if t, ok := r.manifest.Table(table); ok && t.SHA256 != "" && t.SHA256 != checksum(raw) {
			return nil, ErrChecksumMismatch
		}
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = fields
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析 CSV 失败: %w", err)
	}
	if r.manifest != nil && r.manifest.FormatVersion >= 2 {
		for _, row := range rows {
			for j, cell := range row {
				row[j] = cellUnescaper.Replace(cell)
			}
		}
	}
	return rows, nil
}

func (r *Reader) readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("打开归档成员 %s 失败: %w", f.Name, err)
	}
	defer rc.Close()

	var src io.Reader = rc
	if r.memberLimit > 0 {
		src = io.LimitReader(rc, r.memberLimit+1)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("读取归档成员 %s 失败: %w", f.Name, err)
	}
	if r.memberLimit > 0 && int64(len(raw)) > r.memberLimit {
		return nil, ErrMemberTooLarge
	}
	return raw, nil
}
