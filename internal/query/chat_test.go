package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathoseraaj/floatChat/internal/ai"
	"github.com/prathoseraaj/floatChat/internal/store"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

// scriptedProvider returns canned replies in order, recording each prompt.
type scriptedProvider struct {
	replies []string
	errs    []error
	calls   [][]ai.Message
}

func (p *scriptedProvider) Generate(_ context.Context, msgs []ai.Message, _ ai.GenerateOptions) (*ai.Message, error) {
	i := len(p.calls)
	p.calls = append(p.calls, msgs)
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i >= len(p.replies) {
		return nil, fmt.Errorf("unexpected generate call %d", i)
	}
	return &ai.Message{Role: ai.RoleAssistant, Content: p.replies[i]}, nil
}

func (p *scriptedProvider) Embed(context.Context, string, string) ([]float32, error) {
	return nil, errors.New("not used")
}
func (p *scriptedProvider) Name() string { return "scripted" }
func (p *scriptedProvider) Close() error { return nil }

type stubRetriever struct {
	context string
	err     error
}

func (r stubRetriever) Retrieve(context.Context, string) (string, error) {
	return r.context, r.err
}

type stubExecutor struct {
	table  *store.ResultTable
	err    error
	gotSQL string
}

func (e *stubExecutor) Query(_ context.Context, sql string) (*store.ResultTable, error) {
	e.gotSQL = sql
	return e.table, e.err
}

func resultWith(rows int) *store.ResultTable {
	t := &store.ResultTable{Columns: []store.Column{
		{Name: "timestamp", Kind: store.KindTime},
		{Name: "temperature", Kind: store.KindNumeric},
	}}
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		t.Rows = append(t.Rows, []any{base.Add(time.Duration(i) * time.Hour), 20.0 + float64(i%5)})
	}
	return t
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHandleFullPipeline(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		"```sql\nSELECT timestamp, temperature FROM argo_profiles\n```",
		"Temperatures hover around 20-24 degrees.",
	}}
	exec := &stubExecutor{table: resultWith(10)}
	svc := NewChatService(provider, stubRetriever{context: "Table: argo_profiles ..."}, exec)

	answer, err := svc.Handle(context.Background(), "how warm is the water?")
	require.NoError(t, err)

	assert.Equal(t, "SELECT timestamp, temperature FROM argo_profiles", answer.SQLQuery)
	assert.Equal(t, answer.SQLQuery, exec.gotSQL)
	assert.Equal(t, "Temperatures hover around 20-24 degrees.", answer.Insights)
	require.NotNil(t, answer.PlotlyJSON)
	assert.Contains(t, answer.PlotlyJSON, "data")

	// First call carries the retrieved schema, second the rendered rows.
	require.Len(t, provider.calls, 2)
	assert.Contains(t, provider.calls[0][1].Content, "Table: argo_profiles")
	assert.Contains(t, provider.calls[1][1].Content, "temperature")
}

func TestHandleEmptyResultSkipsModel(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"SELECT 1 WHERE false"}}
	exec := &stubExecutor{table: &store.ResultTable{}}
	svc := NewChatService(provider, stubRetriever{context: "schema"}, exec)

	answer, err := svc.Handle(context.Background(), "anything in 1850?")
	require.NoError(t, err)

	assert.Contains(t, answer.Insights, "No data was found")
	assert.Nil(t, answer.PlotlyJSON)
	assert.Equal(t, "SELECT 1 WHERE false", answer.SQLQuery)
	// Only the SQL generation call happened.
	assert.Len(t, provider.calls, 1)
}

func TestHandleInsightUsesFullResultChartUsesSample(t *testing.T) {
	rows := 3000
	provider := &scriptedProvider{replies: []string{
		"SELECT timestamp, temperature FROM argo_profiles",
		"insight",
	}}
	exec := &stubExecutor{table: resultWith(rows)}
	svc := NewChatService(provider, stubRetriever{context: "schema"}, exec)

	answer, err := svc.Handle(context.Background(), "plot temperature")
	require.NoError(t, err)

	// The insight prompt renders at most the head of the full result.
	insightPrompt := provider.calls[1][1].Content
	assert.LessOrEqual(t, strings.Count(insightPrompt, "\n"), insightHeadRows+5)

	// The chart was built from a sampled table.
	data := answer.PlotlyJSON["data"].([]map[string]any)
	xs := data[0]["x"].([]any)
	assert.Less(t, len(xs), rows)
	assert.GreaterOrEqual(t, len(xs), 1000)
}

func TestHandleExecutesCTEStatement(t *testing.T) {
	cte := "WITH daily AS (SELECT date_trunc('day', timestamp) d, avg(temperature) t FROM argo_profiles GROUP BY 1) SELECT d, t FROM daily"
	provider := &scriptedProvider{replies: []string{
		"```sql\n" + cte + "\n```",
		"insight",
	}}
	exec := &stubExecutor{table: resultWith(3)}
	svc := NewChatService(provider, stubRetriever{context: "schema"}, exec)

	answer, err := svc.Handle(context.Background(), "daily average temperature")
	require.NoError(t, err)

	// Beyond fence stripping, the statement reaches the executor verbatim.
	assert.Equal(t, cte, exec.gotSQL)
	assert.Equal(t, cte, answer.SQLQuery)
}

func TestHandleEmptyModelReply(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"```\n```"}}
	svc := NewChatService(provider, stubRetriever{context: "schema"}, &stubExecutor{})

	_, err := svc.Handle(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sql")
}

func TestHandleRetrieverError(t *testing.T) {
	svc := NewChatService(&scriptedProvider{}, stubRetriever{err: errors.New("collection empty")}, &stubExecutor{})

	_, err := svc.Handle(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve schema")
}

func TestHandleExecutorError(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"SELECT nope FROM argo_profiles"}}
	exec := &stubExecutor{err: errors.New(`column "nope" does not exist`)}
	svc := NewChatService(provider, stubRetriever{context: "schema"}, exec)

	_, err := svc.Handle(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute")
}
