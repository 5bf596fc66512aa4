package store

import (
	"context"
	"fmt"
	"strings"
)

// Result holds the outcome of a SQL statement. Statements that return rows
// fill Columns and Rows; others only set RowsAffected.
type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
}

// HasRows reports whether the statement produced a result set.
func (r *Result) HasRows() bool {
	return len(r.Columns) > 0
}

// keywords that start a statement returning rows
var rowReturningKeywords = []string{
	"SELECT", "WITH", "PRAGMA", "EXPLAIN", "SHOW", "DESCRIBE", "VALUES",
}

// returnsRows decides whether to run the statement through Query or Exec.
func returnsRows(query string) bool {
	trimmed := strings.TrimSpace(query)
	for _, kw := range rowReturningKeywords {
		if len(trimmed) >= len(kw) && strings.EqualFold(trimmed[:len(kw)], kw) {
			return true
		}
	}
	return false
}

// Query executes an arbitrary SQL statement. Byte slices coming back from the
// driver are converted to strings so results render cleanly.
func (s *Store) Query(ctx context.Context, query string) (*Result, error) {
	if !returnsRows(query) {
		res, err := s.db.ExecContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("store: exec: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			// Some drivers cannot report affected rows for DDL.
			affected = 0
		}
		return &Result{RowsAffected: affected}, nil
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate rows: %w", err)
	}
	return result, nil
}
