package nlquery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// IntentKind identifies what the user asked for.
type IntentKind string

// Intents the model may return.
const (
	IntentListTables IntentKind = "list_tables"
	IntentLoadFile   IntentKind = "load_file"
	IntentExit       IntentKind = "exit"
	IntentQuery      IntentKind = "generate_sql"
)

// Intent is the interpreted form of a free-text input: either a command or a
// generated SQL query.
type Intent struct {
	Kind     IntentKind `json:"intent"`
	Filename string     `json:"filename,omitempty"`
	SQL      string     `json:"-"`
}

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("nlquery: empty response from model")

// code fence prefixes the model tends to wrap answers in
var fencePrefixes = []string{"```sql", "```SQL", "```json", "```JSON", "```sqlite", "```"}

// stripFences removes a surrounding Markdown code fence, if any.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range fencePrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			if idx := strings.LastIndex(text, "```"); idx != -1 {
				text = text[:idx]
			}
			break
		}
	}
	return strings.TrimSpace(text)
}

// parseIntent interprets a model response: JSON first, otherwise the text is
// taken as a SQL query.
func parseIntent(text string) (Intent, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return Intent{}, ErrEmptyResponse
	}

	if strings.HasPrefix(cleaned, "{") {
		var intent Intent
		if err := json.Unmarshal([]byte(cleaned), &intent); err == nil {
			switch intent.Kind {
			case IntentListTables, IntentExit:
				return intent, nil
			case IntentLoadFile:
				if intent.Filename == "" {
					return Intent{}, fmt.Errorf("nlquery: load intent without filename")
				}
				return intent, nil
			}
			return Intent{}, fmt.Errorf("nlquery: unknown intent %q", intent.Kind)
		}
	}

	// Not JSON, so the model generated SQL.
	return Intent{Kind: IntentQuery, SQL: cleaned}, nil
}

// validateGeneratedSQL rejects model output that is not a single read-only
// statement. The raw `sql` command stays unrestricted; this guard only
// applies to SQL the model wrote.
func validateGeneratedSQL(query string) error {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if trimmed == "" {
		return ErrEmptyResponse
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("nlquery: generated SQL contains multiple statements")
	}
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("nlquery: generated SQL is not a SELECT statement")
	}
	return nil
}
