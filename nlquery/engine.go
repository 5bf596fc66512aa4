// Package nlquery translates natural-language input into command intents and
// SQL queries using the Gemini API.
package nlquery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/nonsonwune/sheetql/nlquery/prompts"
	"github.com/nonsonwune/sheetql/store"
)

const (
	// modelName is the Gemini model used for translation.
	modelName = "gemini-1.5-flash"

	// requestTimeout bounds one full question, retries included.
	requestTimeout = 45 * time.Second

	// noTablesSchema is sent when the database is still empty.
	noTablesSchema = "(no tables loaded yet)"
)

// ErrNoAPIKey indicates that no Gemini API key is configured.
var ErrNoAPIKey = errors.New("nlquery: GEMINI_API_KEY not found in environment")

// SchemaProvider supplies the current schema description for prompts.
type SchemaProvider interface {
	SchemaDescription(ctx context.Context) (string, error)
}

// Engine wraps the Gemini client and produces intents and SQL from free text.
type Engine struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	schema  SchemaProvider
	prompts *prompts.Builder
}

// NewEngine initializes the Gemini client with a key from the environment.
func NewEngine(ctx context.Context, schema SchemaProvider) (*Engine, error) {
	keys := NewKeyManager()
	if !keys.HasKeys() {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(keys.Next()))
	if err != nil {
		return nil, fmt.Errorf("nlquery: initializing Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	// Lower temperature for more precise SQL
	temp := float32(0.2)
	model.Temperature = &temp

	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockNone,
		},
	}

	return &Engine{
		client:  client,
		model:   model,
		schema:  schema,
		prompts: prompts.NewBuilder(),
	}, nil
}

// Close releases the Gemini client.
func (e *Engine) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// Interpret classifies free-form input as a command intent or a SQL query.
func (e *Engine) Interpret(ctx context.Context, input string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	schema, err := e.schemaDescription(ctx)
	if err != nil {
		return Intent{}, err
	}

	text, err := e.generate(ctx, e.prompts.BuildIntentPrompt(schema, input))
	if err != nil {
		return Intent{}, err
	}

	intent, err := parseIntent(text)
	if err != nil {
		return Intent{}, err
	}
	if intent.Kind == IntentQuery {
		if err := validateGeneratedSQL(intent.SQL); err != nil {
			return Intent{}, err
		}
	}
	return intent, nil
}

// Translate turns a question into a single SELECT statement.
func (e *Engine) Translate(ctx context.Context, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	schema, err := e.schemaDescription(ctx)
	if err != nil {
		return "", err
	}

	text, err := e.generate(ctx, e.prompts.BuildQueryPrompt(schema, question))
	if err != nil {
		return "", err
	}

	query := stripFences(text)
	if err := validateGeneratedSQL(query); err != nil {
		return "", err
	}
	return query, nil
}

// ExplainError asks the model for a user-friendly message after a generated
// query failed. Falls back to a generic line when the API call itself fails.
func (e *Engine) ExplainError(ctx context.Context, question string, queryErr error) string {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	text, err := e.generate(ctx, e.prompts.BuildErrorPrompt(question, queryErr))
	if err != nil {
		return "An error occurred while processing your query"
	}
	return strings.TrimSpace(text)
}

// schemaDescription fetches the live schema, tolerating an empty database.
func (e *Engine) schemaDescription(ctx context.Context) (string, error) {
	schema, err := e.schema.SchemaDescription(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoTables) {
			return noTablesSchema, nil
		}
		return "", err
	}
	return schema, nil
}

// backoff is the wait schedule between retried API calls.
var backoff = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
}

// generate sends the prompt to Gemini with retries and returns the raw text.
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for _, wait := range backoff {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		chat := e.model.StartChat()
		resp, err := chat.SendMessage(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = err
			if !isRateLimitError(err) {
				log.Printf("nlquery: API call failed, retrying: %v", err)
			}
			if !sleepCtx(ctx, wait) {
				return "", ctx.Err()
			}
			continue
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrEmptyResponse
			if !sleepCtx(ctx, wait) {
				return "", ctx.Err()
			}
			continue
		}

		text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
		if !ok {
			lastErr = fmt.Errorf("nlquery: unexpected response type %T", resp.Candidates[0].Content.Parts[0])
			if !sleepCtx(ctx, wait) {
				return "", ctx.Err()
			}
			continue
		}

		return string(text), nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("nlquery: all attempts failed: %w", lastErr)
	}
	return "", fmt.Errorf("nlquery: no response after %d attempts", len(backoff))
}

// isRateLimitError reports whether the API error looks like throttling.
func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota exceeded")
}

// sleepCtx waits for d or until the context is done; returns false when the
// context expired first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
