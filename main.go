package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/nonsonwune/sheetql/importer"
	"github.com/nonsonwune/sheetql/nlquery"
	"github.com/nonsonwune/sheetql/store"
)

func init() {
	// Load .env file; a missing file is fine, the environment may be set directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
}

func main() {
	st, err := store.Open(store.ConfigFromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()

	engine, err := nlquery.NewEngine(ctx, st)
	if err != nil {
		color.Yellow("Natural language features disabled: %v", err)
		engine = nil
	} else {
		defer engine.Close()
	}

	displayWelcome()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nWhat would you like to do? ")
		if !scanner.Scan() {
			break
		}
		if !dispatch(ctx, st, engine, strings.TrimSpace(scanner.Text())) {
			break
		}
	}

	color.Green("Goodbye!")
}

func displayWelcome() {
	color.Cyan("=== Chat-Based Spreadsheet Tool ===")
	fmt.Println("You can:")
	fmt.Println("- Load data files:      load sales.csv   (also .tsv, .xlsx, .parquet, compressed)")
	fmt.Println("- View tables:          tables")
	fmt.Println("- View a table schema:  schema sales")
	fmt.Println("- Run SQL directly:     sql SELECT * FROM sales LIMIT 5")
	fmt.Println("- Ask a question:       ask what was the total revenue per region?")
	fmt.Println("- Exit:                 exit")
	fmt.Println("Anything else is interpreted as a natural-language request.")
}

// dispatch handles one input line; a false return ends the loop.
func dispatch(ctx context.Context, st *store.Store, engine *nlquery.Engine, line string) bool {
	verb, arg := splitCommand(line)

	switch strings.ToLower(verb) {
	case "":
		return true
	case "help":
		displayWelcome()
	case "exit", "quit":
		return false
	case "tables":
		listTables(ctx, st)
	case "schema":
		showSchema(ctx, st, arg)
	case "load":
		handleLoad(ctx, st, arg)
	case "sql":
		runSQL(ctx, st, arg)
	case "ask":
		handleAsk(ctx, st, engine, arg)
	default:
		return handleFreeForm(ctx, st, engine, line)
	}
	return true
}

// splitCommand splits a line into its verb and the rest-of-line argument.
func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// handleFreeForm routes unrecognized input through the NL intent processor.
func handleFreeForm(ctx context.Context, st *store.Store, engine *nlquery.Engine, line string) bool {
	if engine == nil {
		color.Red("Unknown command. Type 'help' for the command list.")
		return true
	}

	intent, err := engine.Interpret(ctx, line)
	if err != nil {
		color.Red("Error: %v", err)
		return true
	}

	switch intent.Kind {
	case nlquery.IntentExit:
		return false
	case nlquery.IntentListTables:
		listTables(ctx, st)
	case nlquery.IntentLoadFile:
		handleLoad(ctx, st, intent.Filename)
	case nlquery.IntentQuery:
		executeGenerated(ctx, st, engine, line, intent.SQL)
	default:
		color.Red("Unknown intent")
	}
	return true
}

func listTables(ctx context.Context, st *store.Store) {
	tables, err := st.ListTables(ctx)
	if err != nil {
		color.Red("Error listing tables: %v", err)
		return
	}
	if len(tables) == 0 {
		fmt.Println("No tables found in database")
		return
	}

	color.Yellow("\nAvailable tables:")
	for _, table := range tables {
		fmt.Printf("- %s\n", table)
	}
}

func showSchema(ctx context.Context, st *store.Store, table string) {
	if table == "" {
		desc, err := st.SchemaDescription(ctx)
		if err != nil {
			color.Red("Error reading schema: %v", err)
			return
		}
		fmt.Println(desc)
		return
	}

	columns, err := st.TableSchema(ctx, table)
	if err != nil {
		color.Red("Error reading schema of %s: %v", table, err)
		return
	}
	if len(columns) == 0 {
		color.Red("No such table: %s", table)
		return
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Column", "Type"})
	for _, col := range columns {
		tw.Append([]string{col.Name, col.Type})
	}
	tw.Render()
}

func handleLoad(ctx context.Context, st *store.Store, path string) {
	if path == "" {
		color.Red("Usage: load <file>")
		return
	}

	imp := importer.New(st, importer.Config{BatchSize: batchSizeFromEnv()})
	result, err := imp.Load(ctx, path)
	if err != nil {
		color.Red("Failed to load %s: %v", path, err)
		return
	}
	color.Green("Successfully loaded %s into table %s (%d rows)", path, result.Table, result.Rows)
}

func runSQL(ctx context.Context, st *store.Store, query string) {
	if query == "" {
		color.Red("Usage: sql <statement>")
		return
	}

	result, err := st.Query(ctx, query)
	if err != nil {
		color.Red("Error executing query: %v", err)
		return
	}
	renderResult(result)
}

func handleAsk(ctx context.Context, st *store.Store, engine *nlquery.Engine, question string) {
	if engine == nil {
		color.Red("Natural language queries are disabled (no API key configured)")
		return
	}
	if question == "" {
		color.Red("Usage: ask <question>")
		return
	}

	query, err := engine.Translate(ctx, question)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	executeGenerated(ctx, st, engine, question, query)
}

// executeGenerated echoes model-written SQL, runs it, and falls back to an
// LLM-phrased explanation when execution fails.
func executeGenerated(ctx context.Context, st *store.Store, engine *nlquery.Engine, question, query string) {
	fmt.Printf("\nGenerated SQL:\n%s\n", query)

	result, err := st.Query(ctx, query)
	if err != nil {
		color.Red("%s", engine.ExplainError(ctx, question, err))
		return
	}
	renderResult(result)
}

func renderResult(result *store.Result) {
	if !result.HasRows() {
		color.Green("OK, %d rows affected", result.RowsAffected)
		return
	}
	if len(result.Rows) == 0 {
		fmt.Println("No results found")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(result.Columns)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, value := range row {
			if value == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprintf("%v", value)
			}
		}
		table.Append(cells)
	}

	fmt.Println()
	table.Render()
	fmt.Printf("(%d rows)\n", len(result.Rows))
}

// batchSizeFromEnv reads SHEETQL_BATCH_SIZE, falling back to the importer default.
func batchSizeFromEnv() int {
	if raw := os.Getenv("SHEETQL_BATCH_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return importer.DefaultBatchSize
}
