package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
)

// parseParquet reads a Parquet file into a table. Parquet requires random
// access, so the whole file is buffered; that also makes compressed-on-top
// inputs work through the same reader path.
func parseParquet(path string) (*table, error) {
	reader, closer, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer closer()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("importer: read parquet %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("importer: open parquet %s: %w", path, err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("importer: arrow reader for %s: %w", path, err)
	}

	arrowTable, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("importer: read parquet table %s: %w", path, err)
	}
	defer arrowTable.Release()

	schema := arrowTable.Schema()
	header := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("importer: %s: %w", path, err)
	}

	tableReader := array.NewTableReader(arrowTable, 0)
	defer tableReader.Release()

	var records [][]string
	for tableReader.Next() {
		batch := tableReader.Record()
		numRows := int(batch.NumRows())
		for i := 0; i < numRows; i++ {
			row := make([]string, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValue(col, i)
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("importer: iterate parquet %s: %w", path, err)
	}

	return &table{name: tableNameFromPath(path), header: header, records: records}, nil
}

// arrowValue renders one cell as a string; nulls become empty strings so the
// loader treats them like empty CSV fields.
func arrowValue(col arrow.Array, row int) string {
	if col.IsNull(row) {
		return ""
	}
	return col.ValueStr(row)
}
