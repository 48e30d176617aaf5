package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, tables map[string][][]string, columns map[string][]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, name := range order {
		require.NoError(t, w.WriteTable(name, columns[name], tables[name]))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestWriterReader_RoundTrip(t *testing.T) {
	columns := map[string][]string{
		"users":     {"id", "name", "email"},
		"semesters": {"id", "name", "sort_order"},
	}
	tables := map[string][][]string{
		"users": {
			{"u1", "Ann, \"the admin\"", "ann@example.com"},
			{"u2", "多行\n名字", "bob@example.com"},
		},
		"semesters": {},
	}
	data := buildArchive(t, tables, columns, []string{"users", "semesters"})

	r, err := NewReader(data, 0)
	require.NoError(t, err)

	require.NotNil(t, r.Manifest())
	assert.Equal(t, FormatVersion, r.Manifest().FormatVersion)
	assert.Equal(t, []string{"id", "name", "email"}, r.Columns("users"))
	assert.True(t, r.Has("users"))
	assert.True(t, r.Has("semesters"))
	assert.False(t, r.Has("weeks"))

	users, err := r.ReadTable("users", 3)
	require.NoError(t, err)
	assert.Equal(t, tables["users"], users)

	semesters, err := r.ReadTable("semesters", 3)
	require.NoError(t, err)
	assert.Empty(t, semesters)

	entry, ok := r.Manifest().Table("users")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Rows)
	assert.Len(t, entry.SHA256, 64)
}

func TestWriterReader_CarriageReturnsSurvive(t *testing.T) {
	columns := map[string][]string{"announcements": {"id", "content"}}
	tables := map[string][][]string{
		"announcements": {
			{"a1", "a\r\nb\rc"},
			{"a2", `C:\path\r\n 字面量`},
			{"a3", "\r"},
			{"a4", `\`},
		},
	}
	data := buildArchive(t, tables, columns, []string{"announcements"})

	r, err := NewReader(data, 0)
	require.NoError(t, err)

	rows, err := r.ReadTable("announcements", 2)
	require.NoError(t, err)
	assert.Equal(t, tables["announcements"], rows)
}

func TestReader_Version1CellsReadVerbatim(t *testing.T) {
	content := "a1,C:\\path\\r\r\n"
	manifest := `{"format_version":1,"created_at":"2024-01-01T00:00:00Z","tables":[` +
		`{"name":"announcements","columns":["id","content"],"rows":1,"sha256":"` +
		checksum([]byte(content)) + `"}]}`
	data := rawArchive(t, map[string]string{
		ManifestName:        manifest,
		"announcements.csv": content,
	})

	r, err := NewReader(data, 0)
	require.NoError(t, err)

	rows, err := r.ReadTable("announcements", 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a1", `C:\path\r`}}, rows)
}

func TestWriter_RejectsRaggedRow(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	err := w.WriteTable("users", []string{"id", "name"}, [][]string{{"u1"}})
	assert.Error(t, err)
}

func TestReader_WrongFieldCount(t *testing.T) {
	data := buildArchive(t,
		map[string][][]string{"users": {{"u1", "Ann"}}},
		map[string][]string{"users": {"id", "name"}},
		[]string{"users"})

	r, err := NewReader(data, 0)
	require.NoError(t, err)

	_, err = r.ReadTable("users", 3)
	assert.Error(t, err)
}

// rawArchive 直接构造 zip，模拟旧格式（无清单）或被篡改的归档
func rawArchive(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReader_WithoutManifest(t *testing.T) {
	data := rawArchive(t, map[string]string{
		"semesters.csv": "s1,Fall,1\r\ns2,Spring,2\r\n",
	})

	r, err := NewReader(data, 0)
	require.NoError(t, err)
	assert.Nil(t, r.Manifest())
	assert.Nil(t, r.Columns("semesters"))

	rows, err := r.ReadTable("semesters", 3)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"s1", "Fall", "1"}, {"s2", "Spring", "2"}}, rows)
}

func TestReader_ChecksumMismatch(t *testing.T) {
	manifest := `{"format_version":1,"created_at":"2024-01-01T00:00:00Z","tables":[` +
		`{"name":"semesters","columns":["id","name","sort_order"],"rows":1,"sha256":"` +
		checksum([]byte("s1,Fall,1\r\n")) + `"}]}`
	data := rawArchive(t, map[string]string{
		ManifestName:    manifest,
		"semesters.csv": "s1,Fall,9\r\n",
	})

	r, err := NewReader(data, 0)
	require.NoError(t, err)

	_, err = r.ReadTable("semesters", 3)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestReader_InvalidManifest(t *testing.T) {
	data := rawArchive(t, map[string]string{
		ManifestName: `{"format_version":99,"tables":[]}`,
	})
	_, err := NewReader(data, 0)
	assert.Error(t, err)
}

func TestReader_NotZip(t *testing.T) {
	_, err := NewReader([]byte("definitely not a zip"), 0)
	assert.Error(t, err)
}

func TestReader_MemberLimit(t *testing.T) {
	data := rawArchive(t, map[string]string{
		"documents.csv": "d1,big,application/pdf,QUFBQUFBQUFBQUFBQUFBQQ==\r\n",
	})
	r, err := NewReader(data, 8)
	require.NoError(t, err)

	_, err = r.ReadTable("documents", 4)
	assert.ErrorIs(t, err, ErrMemberTooLarge)
}
