package nlquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "SELECT 1", "SELECT 1"},
		{"sql fence", "```sql\nSELECT 1\n```", "SELECT 1"},
		{"upper fence", "```SQL\nSELECT 1\n```", "SELECT 1"},
		{"json fence", "```json\n{\"intent\": \"exit\"}\n```", `{"intent": "exit"}`},
		{"bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"surrounding whitespace", "  SELECT 1  ", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestParseIntent(t *testing.T) {
	t.Run("list tables", func(t *testing.T) {
		intent, err := parseIntent(`{"intent": "list_tables"}`)
		require.NoError(t, err)
		assert.Equal(t, IntentListTables, intent.Kind)
	})

	t.Run("load file with filename", func(t *testing.T) {
		intent, err := parseIntent(`{"intent": "load_file", "filename": "sales.csv"}`)
		require.NoError(t, err)
		assert.Equal(t, IntentLoadFile, intent.Kind)
		assert.Equal(t, "sales.csv", intent.Filename)
	})

	t.Run("load file without filename", func(t *testing.T) {
		_, err := parseIntent(`{"intent": "load_file"}`)
		assert.Error(t, err)
	})

	t.Run("exit", func(t *testing.T) {
		intent, err := parseIntent("```json\n{\"intent\": \"exit\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, IntentExit, intent.Kind)
	})

	t.Run("unknown intent", func(t *testing.T) {
		_, err := parseIntent(`{"intent": "reboot"}`)
		assert.Error(t, err)
	})

	t.Run("SQL response", func(t *testing.T) {
		intent, err := parseIntent("```sql\nSELECT region, SUM(amount) FROM sales GROUP BY region\n```")
		require.NoError(t, err)
		assert.Equal(t, IntentQuery, intent.Kind)
		assert.Equal(t, "SELECT region, SUM(amount) FROM sales GROUP BY region", intent.SQL)
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := parseIntent("```sql\n```")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestValidateGeneratedSQL(t *testing.T) {
	t.Run("plain select", func(t *testing.T) {
		assert.NoError(t, validateGeneratedSQL("SELECT * FROM sales"))
	})

	t.Run("select with trailing semicolon", func(t *testing.T) {
		assert.NoError(t, validateGeneratedSQL("SELECT 1;"))
	})

	t.Run("CTE", func(t *testing.T) {
		assert.NoError(t, validateGeneratedSQL("WITH t AS (SELECT 1) SELECT * FROM t"))
	})

	t.Run("multiple statements", func(t *testing.T) {
		assert.Error(t, validateGeneratedSQL("SELECT 1; DROP TABLE sales"))
	})

	t.Run("non-select", func(t *testing.T) {
		assert.Error(t, validateGeneratedSQL("DELETE FROM sales"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, validateGeneratedSQL("  ;  "), ErrEmptyResponse)
	})
}
