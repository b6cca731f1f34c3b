package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := newGeminiProvider(ProviderConfig{
		Kind:    ProviderGemini,
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return p
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath string
	var gotBody geminiGenerateRequest

	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "SELECT 1"}},
				}},
			},
		})
	})

	msgs := BuildConversation("you write SQL", Message{Role: RoleUser, Content: "count the floats"})
	out, err := p.Generate(context.Background(), msgs, DefaultGenerateOptions())
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, RoleAssistant, out.Role)
	assert.Equal(t, "SELECT 1", out.Content)

	// System prompt travels out of band, user turn in contents.
	require.NotNil(t, gotBody.SystemInstruction)
	assert.Equal(t, "you write SQL", gotBody.SystemInstruction.Parts[0].Text)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
}

func TestGeminiGenerateErrorStatus(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	})

	_, err := p.Generate(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGeminiEmbed(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float64{0.25, -0.5, 1.0}},
		})
	})

	vec, err := p.Embed(context.Background(), "argo schema", "")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1.0}, vec)
}

func TestProviderConfigValidate(t *testing.T) {
	assert.Error(t, ProviderConfig{Kind: ProviderGemini}.Validate())
	assert.NoError(t, ProviderConfig{Kind: ProviderGemini, APIKey: "k"}.Validate())
	assert.Error(t, ProviderConfig{Kind: ProviderBedrock}.Validate())
	assert.NoError(t, ProviderConfig{Kind: ProviderBedrock, Region: "us-east-1"}.Validate())
	assert.Error(t, ProviderConfig{Kind: "openai"}.Validate())
}
