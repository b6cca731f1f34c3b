// Package query turns a natural-language question into SQL, runs it, and
// assembles the insight and figure returned to the client.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prathoseraaj/floatChat/internal/ai"
	"github.com/prathoseraaj/floatChat/internal/chart"
	"github.com/prathoseraaj/floatChat/internal/sample"
	"github.com/prathoseraaj/floatChat/internal/store"
)

// insightHeadRows caps how many result rows travel into the insight
// prompt.
const insightHeadRows = 50

// noDataInsight is returned without a model round-trip when the query
// matched nothing.
const noDataInsight = "No data was found for your query. Try rephrasing the question or widening the time range."

// ---------------------------------------------------------------------------
// Collaborator interfaces
// ---------------------------------------------------------------------------

// SchemaRetriever supplies the schema context for SQL generation.
type SchemaRetriever interface {
	Retrieve(ctx context.Context, question string) (string, error)
}

// Executor runs a generated SQL statement.
type Executor interface {
	Query(ctx context.Context, sql string) (*store.ResultTable, error)
}

// ---------------------------------------------------------------------------
// ChatService
// ---------------------------------------------------------------------------

// Answer is the assembled response for one question.
type Answer struct {
	Insights   string         `json:"insights"`
	PlotlyJSON map[string]any `json:"plotly_json"`
	SQLQuery   string         `json:"sql_query"`
}

// ChatService orchestrates one question end to end: schema retrieval, SQL
// generation, execution, insight generation, sampling, chart selection.
type ChatService struct {
	provider  ai.Provider
	retriever SchemaRetriever
	executor  Executor
	sampler   sample.Sampler
}

// NewChatService wires the chat pipeline.
func NewChatService(provider ai.Provider, retriever SchemaRetriever, executor Executor) *ChatService {
	return &ChatService{
		provider:  provider,
		retriever: retriever,
		executor:  executor,
		sampler:   sample.NewSampler(),
	}
}

// Handle answers one question. The returned Answer always carries the
// generated SQL, even when the result is empty.
func (s *ChatService) Handle(ctx context.Context, question string) (*Answer, error) {
	started := time.Now()

	schemaContext, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("query: retrieve schema: %w", err)
	}

	sqlQuery, err := s.generateSQL(ctx, schemaContext, question)
	if err != nil {
		return nil, fmt.Errorf("query: generate sql: %w", err)
	}
	slog.Debug("generated sql", "sql", sqlQuery)

	result, err := s.executor.Query(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("query: execute: %w", err)
	}

	answer := &Answer{SQLQuery: sqlQuery}

	if result.Empty() {
		answer.Insights = noDataInsight
		slog.Info("chat answered", "rows", 0, "elapsed", time.Since(started))
		return answer, nil
	}

	// Insights read the full result; only the figure is sampled.
	insight, err := s.generateInsight(ctx, question, result)
	if err != nil {
		return nil, fmt.Errorf("query: generate insight: %w", err)
	}
	answer.Insights = insight

	sampled, strategy := s.sampler.Sample(result, question)
	if c := chart.Select(sampled); c != nil {
		answer.PlotlyJSON = c.ToPlotly()
	}

	slog.Info("chat answered",
		"rows", result.RowCount(),
		"charted_rows", sampled.RowCount(),
		"sampling", string(strategy),
		"elapsed", time.Since(started),
	)
	return answer, nil
}

// ---------------------------------------------------------------------------
// Pipeline stages
// ---------------------------------------------------------------------------

// generateSQL asks the model for a statement and strips formatting
// artifacts. The text is otherwise passed through verbatim; the database
// is the arbiter of whether it runs.
func (s *ChatService) generateSQL(ctx context.Context, schemaContext, question string) (string, error) {
	msgs := ai.SQLGenerationPrompt(schemaContext, question)
	reply, err := s.provider.Generate(ctx, msgs, ai.DefaultGenerateOptions())
	if err != nil {
		return "", err
	}
	sqlQuery := ai.CleanSQL(reply.Content)
	if sqlQuery == "" {
		return "", fmt.Errorf("model returned no sql")
	}
	return sqlQuery, nil
}

func (s *ChatService) generateInsight(ctx context.Context, question string, result *store.ResultTable) (string, error) {
	sampleText := result.Render(insightHeadRows)
	reply, err := s.provider.Generate(ctx, ai.InsightPrompt(question, sampleText), ai.DefaultGenerateOptions())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply.Content), nil
}
