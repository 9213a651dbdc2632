package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"

	"github.com/neuro86/neuro86/pkg/utils/logging"
)

// LLM holds CLI flags for language model configuration. Narrative extraction
// and title generation use the generation provider; similarity search needs a
// separate embedding provider because Claude exposes no embedding endpoint.
type LLM struct {
	provider          string
	embeddingProvider string
	claudeAPIKey      string
	openaiAPIKey      string
	geminiProjectID   string
	geminiLocation    string
}

// Flags returns CLI flags for LLM configuration
func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "Generation provider (claude, openai or gemini)",
			Value:       "claude",
			Sources:     cli.EnvVars("NEURO86_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (openai or gemini)",
			Value:       "openai",
			Sources:     cli.EnvVars("NEURO86_EMBEDDING_PROVIDER"),
			Destination: &x.embeddingProvider,
		},
		&cli.StringFlag{
			Name:        "claude-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("NEURO86_CLAUDE_API_KEY"),
			Destination: &x.claudeAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("NEURO86_OPENAI_API_KEY"),
			Destination: &x.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project-id",
			Usage:       "Google Cloud Project ID for Vertex AI Gemini",
			Sources:     cli.EnvVars("NEURO86_GEMINI_PROJECT_ID"),
			Destination: &x.geminiProjectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Vertex AI Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("NEURO86_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
	}
}

// Configure builds the LLM client. When the generation and embedding providers
// differ, the two are combined behind a single gollem.LLMClient.
func (x *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	generation, err := x.newClient(ctx, x.provider)
	if err != nil {
		return nil, err
	}

	if x.embeddingProvider == x.provider {
		logging.Default().Info("Using LLM provider", "provider", x.provider)
		return generation, nil
	}

	embedding, err := x.newClient(ctx, x.embeddingProvider)
	if err != nil {
		return nil, err
	}

	logging.Default().Info("Using LLM providers",
		"generation", x.provider,
		"embedding", x.embeddingProvider,
	)
	return &splitLLMClient{generation: generation, embedding: embedding}, nil
}

func (x *LLM) newClient(ctx context.Context, provider string) (gollem.LLMClient, error) {
	switch provider {
	case "claude":
		if x.claudeAPIKey == "" {
			return nil, goerr.New("claude-api-key is required when using claude")
		}
		client, err := claude.New(ctx, x.claudeAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize Claude client")
		}
		return client, nil

	case "openai":
		if x.openaiAPIKey == "" {
			return nil, goerr.New("openai-api-key is required when using openai")
		}
		client, err := openai.New(ctx, x.openaiAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize OpenAI client")
		}
		return client, nil

	case "gemini":
		if x.geminiProjectID == "" {
			return nil, goerr.New("gemini-project-id is required when using gemini")
		}
		client, err := gemini.New(ctx, x.geminiProjectID, x.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize Gemini client")
		}
		return client, nil

	default:
		return nil, goerr.New("invalid LLM provider", goerr.V("provider", provider))
	}
}

// splitLLMClient routes session work to the generation provider and embedding
// requests to the embedding provider
type splitLLMClient struct {
	generation gollem.LLMClient
	embedding  gollem.LLMClient
}

func (c *splitLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return c.generation.NewSession(ctx, options...)
}

func (c *splitLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return c.embedding.GenerateEmbedding(ctx, dimension, input)
}

// LogValue redacts the API keys
func (x *LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.String("embedding_provider", x.embeddingProvider),
		slog.Bool("claude_api_key_set", x.claudeAPIKey != ""),
		slog.Bool("openai_api_key_set", x.openaiAPIKey != ""),
		slog.String("gemini_project_id", x.geminiProjectID),
		slog.String("gemini_location", x.geminiLocation),
	)
}
