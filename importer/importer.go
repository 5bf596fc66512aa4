// Package importer loads spreadsheet-style files (CSV, TSV, Excel, Parquet,
// optionally compressed) into database tables, inferring a schema from the
// header row and sampled values.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/nonsonwune/sheetql/store"
)

// DefaultBatchSize is the number of rows inserted between context checks.
const DefaultBatchSize = 1000

// Config holds the configuration for a load.
type Config struct {
	// TableName overrides the name derived from the file path.
	TableName string
	// BatchSize controls how many rows go in per batch. Zero means DefaultBatchSize.
	BatchSize int
}

// Importer writes parsed files into the store.
type Importer struct {
	st     *store.Store
	config Config
}

// New creates an Importer bound to an open store.
func New(st *store.Store, config Config) *Importer {
	return &Importer{st: st, config: config}
}

// LoadResult summarizes a completed load.
type LoadResult struct {
	Table   string
	Columns []store.Column
	Rows    int
}

// Load reads the file at path and replaces the corresponding table. The
// table name comes from the filename unless Config.TableName overrides it,
// and an existing table with that name is dropped first.
func (im *Importer) Load(ctx context.Context, path string) (*LoadResult, error) {
	tbl, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	name := im.config.TableName
	if name == "" {
		name = tbl.name
	} else {
		name = sanitizeTableName(name)
	}

	columns := inferColumns(tbl.header, tbl.records)

	if err := im.createTable(ctx, name, columns); err != nil {
		return nil, err
	}

	rows, err := im.insertRecords(ctx, name, columns, tbl.records)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Table: name, Rows: rows}
	for _, col := range columns {
		result.Columns = append(result.Columns, store.Column{Name: col.Name, Type: col.Type.String()})
	}
	return result, nil
}

// createTable drops any existing table of the same name and creates a fresh one.
func (im *Importer) createTable(ctx context.Context, name string, columns []column) error {
	quoted := im.st.QuoteIdentifier(name)

	if _, err := im.st.DB().ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("importer: drop table %s: %w", name, err)
	}

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", im.st.QuoteIdentifier(col.Name), col.Type))
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))
	if _, err := im.st.DB().ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("importer: create table %s: %w", name, err)
	}
	return nil
}

// insertRecords bulk-inserts all records inside a single transaction, in
// batches with context checks between them.
func (im *Importer) insertRecords(ctx context.Context, name string, columns []column, records [][]string) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batchSize := im.config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	tx, err := im.st.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("importer: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, im.insertSQL(name, columns))
	if err != nil {
		return 0, fmt.Errorf("importer: prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, record := range records {
		if i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return inserted, ctx.Err()
			default:
			}
		}

		values := make([]any, len(columns))
		for j := range columns {
			values[j] = columnValue(record[j], columns[j].Type)
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return inserted, fmt.Errorf("importer: insert row %d: %w", i+1, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("importer: commit: %w", err)
	}
	return inserted, nil
}

// insertSQL builds the parameterized INSERT statement for the target driver.
func (im *Importer) insertSQL(name string, columns []column) string {
	names := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for i, col := range columns {
		names = append(names, im.st.QuoteIdentifier(col.Name))
		placeholders = append(placeholders, im.st.Placeholder(i+1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		im.st.QuoteIdentifier(name), strings.Join(names, ", "), strings.Join(placeholders, ", "))
}

// columnValue converts one cell to the insert value. Empty cells in typed
// columns become NULL so numeric aggregates stay meaningful.
func columnValue(raw string, colType columnType) any {
	if colType != columnTypeText && strings.TrimSpace(raw) == "" {
		return nil
	}
	return raw
}
