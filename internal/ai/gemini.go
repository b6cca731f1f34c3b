package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Default Gemini settings
// ---------------------------------------------------------------------------

const (
	defaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultGeminiEmbedding = "text-embedding-004"
	geminiTimeout          = 120 * time.Second
)

// ---------------------------------------------------------------------------
// GeminiProvider
// ---------------------------------------------------------------------------

// geminiProvider implements Provider by calling the Google Generative
// Language REST API.
type geminiProvider struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	defaultModel   string
	embeddingModel string
}

// newGeminiProvider creates a Gemini-backed provider.
func newGeminiProvider(cfg ProviderConfig) (*geminiProvider, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	embModel := cfg.EmbeddingModel
	if embModel == "" {
		embModel = defaultGeminiEmbedding
	}

	return &geminiProvider{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: geminiTimeout,
		},
		defaultModel:   model,
		embeddingModel: embModel,
	}, nil
}

// Name implements Provider.
func (g *geminiProvider) Name() string { return "gemini" }

// Close implements Provider.
func (g *geminiProvider) Close() error { return nil }

// ---------------------------------------------------------------------------
// Generate — POST /models/{model}:generateContent
// ---------------------------------------------------------------------------

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate implements Provider.
func (g *geminiProvider) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*Message, error) {
	model := g.resolveModel(opts.Model)

	req := geminiGenerateRequest{
		GenerationConfig: g.buildConfig(opts),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			// Gemini carries the system prompt out of band; merge repeats.
			if req.SystemInstruction == nil {
				req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
			} else {
				req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, geminiPart{Text: m.Content})
			}
		case RoleAssistant:
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	var resp geminiGenerateResponse
	path := fmt.Sprintf("/models/%s:generateContent", model)
	if err := g.doJSON(ctx, path, req, &resp); err != nil {
		return nil, fmt.Errorf("ai/gemini: generate: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("ai/gemini: empty response from %s", model)
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return &Message{Role: RoleAssistant, Content: text.String()}, nil
}

// ---------------------------------------------------------------------------
// Embed — POST /models/{model}:embedContent
// ---------------------------------------------------------------------------

type geminiEmbedRequest struct {
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Embed implements Provider.
func (g *geminiProvider) Embed(ctx context.Context, text string, model string) ([]float32, error) {
	if model == "" {
		model = g.embeddingModel
	}

	var resp geminiEmbedResponse
	path := fmt.Sprintf("/models/%s:embedContent", model)
	err := g.doJSON(ctx, path, geminiEmbedRequest{
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ai/gemini: embed: %w", err)
	}

	vec := make([]float32, len(resp.Embedding.Values))
	for i, v := range resp.Embedding.Values {
		vec[i] = float32(v)
	}
	return vec, nil
}

// ---------------------------------------------------------------------------
// HTTP helper
// ---------------------------------------------------------------------------

func (g *geminiProvider) doJSON(ctx context.Context, path string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	url := g.baseURL + path + "?key=" + g.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(errBody))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *geminiProvider) resolveModel(override string) string {
	if override != "" {
		return override
	}
	return g.defaultModel
}

func (g *geminiProvider) buildConfig(opts GenerateOptions) *geminiGenerationConfig {
	cfg := &geminiGenerationConfig{}
	if opts.Temperature > 0 {
		cfg.Temperature = opts.Temperature
	}
	if opts.TopP > 0 {
		cfg.TopP = opts.TopP
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxTokens
	}
	return cfg
}
