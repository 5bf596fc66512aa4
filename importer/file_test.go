package importer

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		want fileKind
	}{
		{"data.csv", kindCSV},
		{"data.tsv", kindTSV},
		{"data.xlsx", kindXLSX},
		{"data.parquet", kindParquet},
		{"data.csv.gz", kindCSV},
		{"data.tsv.zst", kindTSV},
		{"data.csv.bz2", kindCSV},
		{"data.csv.xz", kindCSV},
		{"DATA.CSV", kindCSV},
		{"data.txt", kindUnsupported},
		{"data", kindUnsupported},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, detectKind(tt.path), "path: %s", tt.path)
	}
}

func TestTableNameFromPath(t *testing.T) {
	assert.Equal(t, "sales", tableNameFromPath("/data/sales.csv"))
	assert.Equal(t, "sales", tableNameFromPath("sales.csv.gz"))
	assert.Equal(t, "sales_2024", tableNameFromPath("sales-2024.tsv"))
	assert.Equal(t, "table_2024_sales", tableNameFromPath("2024 sales.xlsx"))
}

func TestSanitizeTableName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sales", "sales"},
		{"my table", "my_table"},
		{"my-table.v2", "my_table_v2"},
		{"1st_quarter", "table_1st_quarter"},
		{"!!!", "table"},
		{"", "table"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeTableName(tt.in), "input: %q", tt.in)
	}
}

func TestParseDelimited(t *testing.T) {
	t.Run("plain CSV", func(t *testing.T) {
		path := writeFile(t, "users.csv", "name,age\nalice,30\nbob,25\n")

		tbl, err := parseDelimited(path, ',')
		require.NoError(t, err)
		assert.Equal(t, "users", tbl.name)
		assert.Equal(t, []string{"name", "age"}, tbl.header)
		require.Len(t, tbl.records, 2)
		assert.Equal(t, []string{"alice", "30"}, tbl.records[0])
	})

	t.Run("TSV", func(t *testing.T) {
		path := writeFile(t, "users.tsv", "name\tage\nalice\t30\n")

		tbl, err := parseDelimited(path, '\t')
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "age"}, tbl.header)
		require.Len(t, tbl.records, 1)
	})

	t.Run("ragged rows are padded and truncated", func(t *testing.T) {
		path := writeFile(t, "ragged.csv", "a,b,c\n1,2\n1,2,3,4\n")

		tbl, err := parseDelimited(path, ',')
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", ""}, tbl.records[0])
		assert.Equal(t, []string{"1", "2", "3"}, tbl.records[1])
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "empty.csv", "")

		_, err := parseDelimited(path, ',')
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeFile(t, "header.csv", "a,b\n")

		tbl, err := parseDelimited(path, ',')
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tbl.header)
		assert.Empty(t, tbl.records)
	})

	t.Run("duplicate column names", func(t *testing.T) {
		path := writeFile(t, "dup.csv", "a,a\n1,2\n")

		_, err := parseDelimited(path, ',')
		assert.ErrorIs(t, err, ErrDuplicateColumn)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := parseDelimited(filepath.Join(t.TempDir(), "nope.csv"), ',')
		assert.Error(t, err)
	})
}

func TestParseFileCompressed(t *testing.T) {
	t.Run("gzip CSV", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sales.csv.gz")
		f, err := os.Create(path)
		require.NoError(t, err)
		gw := gzip.NewWriter(f)
		_, err = gw.Write([]byte("region,amount\nnorth,100\n"))
		require.NoError(t, err)
		require.NoError(t, gw.Close())
		require.NoError(t, f.Close())

		tbl, err := parseFile(path)
		require.NoError(t, err)
		assert.Equal(t, "sales", tbl.name)
		require.Len(t, tbl.records, 1)
		assert.Equal(t, []string{"north", "100"}, tbl.records[0])
	})

	t.Run("zstd CSV", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sales.csv.zst")
		f, err := os.Create(path)
		require.NoError(t, err)
		zw, err := zstd.NewWriter(f)
		require.NoError(t, err)
		_, err = zw.Write([]byte("region,amount\nsouth,200\n"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())

		tbl, err := parseFile(path)
		require.NoError(t, err)
		require.Len(t, tbl.records, 1)
		assert.Equal(t, []string{"south", "200"}, tbl.records[0])
	})
}

func TestParseFileUnsupported(t *testing.T) {
	path := writeFile(t, "data.txt", "hello")

	_, err := parseFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidateHeader(t *testing.T) {
	assert.NoError(t, validateHeader([]string{"a", "b"}))
	assert.ErrorIs(t, validateHeader(nil), ErrEmptyHeader)
	assert.ErrorIs(t, validateHeader([]string{"a", ""}), ErrEmptyHeader)
	assert.ErrorIs(t, validateHeader([]string{"a", "a"}), ErrDuplicateColumn)
}

func TestFitToHeader(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, fitToHeader([]string{"1", "2"}, 2))
	assert.Equal(t, []string{"1", ""}, fitToHeader([]string{"1"}, 2))
	assert.Equal(t, []string{"1"}, fitToHeader([]string{"1", "2"}, 1))
}
