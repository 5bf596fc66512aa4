package importer

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"
)

// fileKind is the base format of an input file, ignoring compression.
type fileKind int

const (
	kindCSV fileKind = iota
	kindTSV
	kindXLSX
	kindParquet
	kindUnsupported
)

// File extensions
const (
	extCSV     = ".csv"
	extTSV     = ".tsv"
	extXLSX    = ".xlsx"
	extParquet = ".parquet"
	extGZ      = ".gz"
	extBZ2     = ".bz2"
	extXZ      = ".xz"
	extZSTD    = ".zst"
)

var compressionExts = []string{extGZ, extBZ2, extXZ, extZSTD}

// isCompressed reports whether the path has a compression extension.
func isCompressed(path string) bool {
	for _, ext := range compressionExts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// table holds a parsed file before it is written to the database.
type table struct {
	name    string
	header  []string
	records [][]string
}

// detectKind detects the base file kind from the path, looking through a
// trailing compression extension.
func detectKind(path string) fileKind {
	base := strings.ToLower(path)
	for _, ext := range compressionExts {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}

	switch filepath.Ext(base) {
	case extCSV:
		return kindCSV
	case extTSV:
		return kindTSV
	case extXLSX:
		return kindXLSX
	case extParquet:
		return kindParquet
	default:
		return kindUnsupported
	}
}

// tableNameFromPath derives a table name from the file path: strip the
// compression extension, then the format extension, then sanitize.
func tableNameFromPath(path string) string {
	fileName := filepath.Base(path)
	for _, ext := range compressionExts {
		if strings.HasSuffix(fileName, ext) {
			fileName = strings.TrimSuffix(fileName, ext)
			break
		}
	}
	return sanitizeTableName(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
}

// sanitizeTableName rewrites a name into a valid SQL identifier. Spaces,
// dashes and dots become underscores, anything else non-alphanumeric is
// dropped, and a leading digit gets a "table_" prefix.
func sanitizeTableName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")

	var sanitized strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_' {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()
	if len(result) > 0 && result[0] >= '0' && result[0] <= '9' {
		result = "table_" + result
	}
	if result == "" {
		result = "table"
	}
	return result
}

// openReader opens the file and returns a reader that handles compression.
func openReader(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader = file
	closer := file.Close

	switch {
	case strings.HasSuffix(path, extGZ):
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, nil, err
		}
		reader = gzReader
		closer = func() error {
			_ = gzReader.Close()
			return file.Close()
		}
	case strings.HasSuffix(path, extBZ2):
		reader = bzip2.NewReader(file)
	case strings.HasSuffix(path, extXZ):
		xzReader, err := xz.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, nil, err
		}
		reader = xzReader
	case strings.HasSuffix(path, extZSTD):
		decoder, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, nil, err
		}
		reader = decoder
		closer = func() error {
			decoder.Close()
			return file.Close()
		}
	}

	return reader, closer, nil
}

// parseFile reads the file at path into a table.
func parseFile(path string) (*table, error) {
	switch detectKind(path) {
	case kindCSV:
		return parseDelimited(path, ',')
	case kindTSV:
		return parseDelimited(path, '\t')
	case kindXLSX:
		return parseXLSX(path)
	case kindParquet:
		return parseParquet(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// parseDelimited parses CSV or TSV files with the given delimiter. Ragged
// rows are padded or truncated to the header width.
func parseDelimited(path string, delimiter rune) (*table, error) {
	reader, closer, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer closer()

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1
	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importer: parse %s: %w", path, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	header := rows[0]
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("importer: %s: %w", path, err)
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, fitToHeader(row, len(header)))
	}

	return &table{name: tableNameFromPath(path), header: header, records: records}, nil
}

// parseXLSX parses the first sheet of an Excel workbook.
func parseXLSX(path string) (*table, error) {
	reader, closer, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer closer()

	// excelize needs random access, so compressed workbooks are buffered.
	var workbook *excelize.File
	if isCompressed(path) {
		data, readErr := io.ReadAll(reader)
		if readErr != nil {
			return nil, readErr
		}
		workbook, err = excelize.OpenReader(bytes.NewReader(data))
	} else {
		workbook, err = excelize.OpenFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("importer: open workbook %s: %w", path, err)
	}
	defer func() {
		_ = workbook.Close()
	}()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets in %s", ErrEmptyFile, path)
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("importer: read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s in %s", ErrEmptyFile, sheets[0], path)
	}

	header := rows[0]
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("importer: %s: %w", path, err)
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, fitToHeader(row, len(header)))
	}

	return &table{name: tableNameFromPath(path), header: header, records: records}, nil
}

// fitToHeader pads or truncates a row to the header width.
func fitToHeader(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	fitted := make([]string, width)
	copy(fitted, row)
	return fitted
}

// validateHeader rejects empty and duplicate column names.
func validateHeader(header []string) error {
	if len(header) == 0 {
		return ErrEmptyHeader
	}
	seen := make(map[string]bool, len(header))
	for _, col := range header {
		trimmed := strings.TrimSpace(col)
		if trimmed == "" {
			return ErrEmptyHeader
		}
		if seen[trimmed] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, col)
		}
		seen[trimmed] = true
	}
	return nil
}
