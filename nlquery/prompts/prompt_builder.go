// Package prompts builds the LLM prompts used for intent detection and
// natural-language-to-SQL translation.
package prompts

import "fmt"

// Builder handles the construction of prompts for the LLM.
type Builder struct{}

// NewBuilder creates a new prompt Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildIntentPrompt creates the prompt that classifies free-form input as a
// command intent or turns it into SQL. The model answers with either a JSON
// object or a bare SQL query.
func (b *Builder) BuildIntentPrompt(schema, input string) string {
	return fmt.Sprintf(`You are an AI assistant helping users interact with a spreadsheet database. Based on the user's input, either:
1. Return a command intent in JSON format
2. Generate a SQL query for data questions

Available tables and their schemas:
%s

Intent examples:
1. List Tables Intent:
   - "Show me the tables"
   - "What tables are loaded?"
   - "Which tables do I have?"
   Response: {"intent": "list_tables"}

2. Load File Intent:
   - "Upload my data file"
   - "Load sales.csv"
   - "Can you load customer_data.xlsx?"
   Response: {"intent": "load_file", "filename": "<filename>"}

3. Exit Intent:
   - "Quit"
   - "Exit"
   - "Bye"
   Response: {"intent": "exit"}

4. Data Query Intent (return SQL):
   - "Show total revenue this month"
   - "Get average price per product"
   - "What are the top selling items?"
   Response: <appropriate SQL query>

User input: "%s"

If the input matches a command intent (list_tables, load_file, exit), return a JSON response.
If it's a data query, return only the SQL query without any JSON formatting.
`, schema, input)
}

// BuildQueryPrompt creates a prompt that always produces SQL for a question.
func (b *Builder) BuildQueryPrompt(schema, question string) string {
	return fmt.Sprintf(`You are a SQL query generator for a spreadsheet database backed by SQLite. Follow these rules strictly:

1. Available tables and their schemas:
%s

2. Query rules:
   - Generate a single SELECT statement, nothing else
   - Use only tables and columns from the schema above
   - Use LOWER() for case-insensitive string matching
   - Prefer explicit column lists over SELECT *
   - Add LIMIT when the question implies "top" or "first" results

Return only the SQL query, without explanation or formatting.

Question: "%s"
`, schema, question)
}

// BuildErrorPrompt creates a prompt for generating a user-friendly message
// when a generated query failed to execute.
func (b *Builder) BuildErrorPrompt(question string, err error) string {
	return fmt.Sprintf(`Generate a user-friendly error message for this failed query:

Question: "%s"

Error: %v

Requirements:
1. Explain the issue in simple terms
2. Suggest how to rephrase the question
3. Keep the message concise and helpful

Error Message:`, question, err)
}
