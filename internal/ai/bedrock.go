package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// ---------------------------------------------------------------------------
// Default model IDs
// ---------------------------------------------------------------------------

const (
	defaultBedrockModel     = "anthropic.claude-3-haiku-20240307-v1:0"
	defaultBedrockEmbedding = "amazon.titan-embed-text-v2:0"
	titanEmbedDimensions    = 1024
	anthropicVersion        = "bedrock-2023-05-31"
)

// ---------------------------------------------------------------------------
// BedrockProvider
// ---------------------------------------------------------------------------

// bedrockProvider implements Provider using InvokeModel for completions
// (Anthropic Messages API format) and embeddings (Titan).
type bedrockProvider struct {
	client         *bedrockruntime.Client
	defaultModel   string
	embeddingModel string
	region         string
}

// newBedrockProvider initialises an AWS Bedrock provider.
func newBedrockProvider(ctx context.Context, cfg ProviderConfig) (*bedrockProvider, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("ai/bedrock: load aws config: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultBedrockModel
	}
	embModel := cfg.EmbeddingModel
	if embModel == "" {
		embModel = defaultBedrockEmbedding
	}

	return &bedrockProvider{
		client:         bedrockruntime.NewFromConfig(awsCfg),
		defaultModel:   model,
		embeddingModel: embModel,
		region:         cfg.Region,
	}, nil
}

// Name implements Provider.
func (b *bedrockProvider) Name() string { return "bedrock" }

// Close implements Provider.
func (b *bedrockProvider) Close() error { return nil }

// ---------------------------------------------------------------------------
// Anthropic Messages API types (used as InvokeModel body)
// ---------------------------------------------------------------------------

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature,omitempty"`
	TopP             float64            `json:"top_p,omitempty"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

// Generate implements Provider using InvokeModel with the Anthropic
// Messages API.
func (b *bedrockProvider) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*Message, error) {
	model := b.resolveModel(opts.Model)
	req := b.buildAnthropicRequest(messages, opts)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ai/bedrock: marshal request: %w", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("ai/bedrock: invoke model: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("ai/bedrock: unmarshal response: %w", err)
	}

	var textParts []string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	return &Message{Role: RoleAssistant, Content: strings.Join(textParts, "")}, nil
}

// ---------------------------------------------------------------------------
// Embed
// ---------------------------------------------------------------------------

// titanEmbedRequest is the JSON body for Titan Embedding V2.
type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// titanEmbedResponse is the JSON response from Titan Embedding V2.
type titanEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed implements Provider using InvokeModel with Titan Embedding.
func (b *bedrockProvider) Embed(ctx context.Context, text string, model string) ([]float32, error) {
	if model == "" {
		model = b.embeddingModel
	}

	body, err := json.Marshal(titanEmbedRequest{
		InputText:  text,
		Dimensions: titanEmbedDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("ai/bedrock: marshal embed request: %w", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("ai/bedrock: invoke model embed: %w", err)
	}

	var result titanEmbedResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("ai/bedrock: unmarshal embed response: %w", err)
	}
	return result.Embedding, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

func (b *bedrockProvider) resolveModel(override string) string {
	if override != "" {
		return override
	}
	return b.defaultModel
}

func (b *bedrockProvider) buildAnthropicRequest(messages []Message, opts GenerateOptions) anthropicRequest {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	req := anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
	}
	if opts.Temperature > 0 {
		req.Temperature = opts.Temperature
	}
	if opts.TopP > 0 {
		req.TopP = opts.TopP
	}

	// Split system messages from conversation messages.
	var sysParts []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			sysParts = append(sysParts, m.Content)
		case RoleUser:
			req.Messages = append(req.Messages, anthropicMessage{
				Role:    "user",
				Content: []anthropicContent{{Type: "text", Text: m.Content}},
			})
		case RoleAssistant:
			req.Messages = append(req.Messages, anthropicMessage{
				Role:    "assistant",
				Content: []anthropicContent{{Type: "text", Text: m.Content}},
			})
		}
	}
	if len(sysParts) > 0 {
		req.System = strings.Join(sysParts, "\n\n")
	}

	return req
}
