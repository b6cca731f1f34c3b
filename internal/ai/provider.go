package ai

import (
	"context"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Provider kinds
// ---------------------------------------------------------------------------

// ProviderKind identifies a supported hosted-model backend.
type ProviderKind string

const (
	ProviderGemini  ProviderKind = "gemini"
	ProviderBedrock ProviderKind = "bedrock"
)

// ---------------------------------------------------------------------------
// Message types
// ---------------------------------------------------------------------------

// Role represents a conversation participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ---------------------------------------------------------------------------
// Completion options
// ---------------------------------------------------------------------------

// GenerateOptions configures a single completion request.
type GenerateOptions struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// DefaultGenerateOptions returns sensible defaults for deterministic
// SQL-and-summary generation.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		MaxTokens:   2048,
		Temperature: 0.2,
		TopP:        0.9,
	}
}

// ---------------------------------------------------------------------------
// Provider interface
// ---------------------------------------------------------------------------

// Provider is the contract every hosted-model backend must satisfy. Calls
// are single-shot: no retry, no streaming; errors surface to the caller.
type Provider interface {
	// Generate produces a single, complete assistant response.
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*Message, error)

	// Embed produces a vector embedding for the given text. An empty model
	// selects the provider's default embedding model.
	Embed(ctx context.Context, text string, model string) ([]float32, error)

	// Name returns a human-readable provider name, e.g. "gemini".
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// ProviderConfig holds all configuration accepted by NewProvider.
type ProviderConfig struct {
	Kind           ProviderKind `json:"kind"`
	Model          string       `json:"model,omitempty"`
	EmbeddingModel string       `json:"embedding_model,omitempty"`

	// Gemini-specific
	APIKey  string `json:"-"`
	BaseURL string `json:"base_url,omitempty"` // override for tests

	// Bedrock-specific
	Region string `json:"region,omitempty"`
}

// Validate checks that required fields are set.
func (c ProviderConfig) Validate() error {
	switch c.Kind {
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("ai: gemini provider requires an API key")
		}
	case ProviderBedrock:
		if c.Region == "" {
			return fmt.Errorf("ai: bedrock provider requires region")
		}
	default:
		return fmt.Errorf("ai: unknown provider kind %q", c.Kind)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

// NewProvider creates a concrete Provider from configuration.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case ProviderGemini:
		return newGeminiProvider(cfg)
	case ProviderBedrock:
		return newBedrockProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("ai: unsupported provider %q", cfg.Kind)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// BuildConversation is a convenience that prepends a system prompt to a
// sequence of user/assistant turns.
func BuildConversation(system string, turns ...Message) []Message {
	msgs := make([]Message, 0, 1+len(turns))
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: strings.TrimSpace(system)})
	}
	msgs = append(msgs, turns...)
	return msgs
}
