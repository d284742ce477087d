// Package llm provides chat completion backends using langchaingo.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raphaelgruber/brandtalk/internal/config"
	"github.com/raphaelgruber/brandtalk/internal/conversation"
	"github.com/raphaelgruber/brandtalk/internal/metrics"
	"github.com/raphaelgruber/brandtalk/internal/models"
)

// Completer wraps a langchaingo model as the conversation completion
// backend.
type Completer struct {
	llm       llms.Model
	modelName string
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewCompleter creates a completion backend based on configuration.
func NewCompleter(ctx context.Context, cfg config.Config, collector *metrics.Collector, logger *slog.Logger) (*Completer, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.BedrockRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.BedrockRegion))
		}
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx, opts...)
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithClient(client),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Completer{
		llm:       model,
		modelName: cfg.LLMModel,
		collector: collector,
		logger:    logger,
	}, nil
}

// Model returns the configured model name.
func (c *Completer) Model() string {
	return c.modelName
}

// Complete generates an assistant reply from a system prompt and ordered
// conversation turns. Fatal API errors (auth, billing, quota) are wrapped
// with ErrFatalAPI so callers can stop retrying.
func (c *Completer) Complete(ctx context.Context, systemPrompt string, turns []conversation.Turn) (string, error) {
	messages := make([]llms.MessageContent, 0, len(turns)+1)
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, turn := range turns {
		messages = append(messages, llms.TextParts(chatMessageType(turn), turn.Content))
	}

	c.logger.Debug("completion request", "model", c.modelName, "turns", len(turns))

	start := time.Now()
	response, err := c.llm.GenerateContent(ctx, messages)
	duration := time.Since(start)

	if err != nil {
		c.recordError()
		c.logger.Warn("completion failed",
			"model", c.modelName, "duration_ms", duration.Milliseconds(), "error", err)
		return "", wrapFatalError(fmt.Errorf("generate content: %w", err))
	}
	if len(response.Choices) == 0 {
		c.recordError()
		return "", fmt.Errorf("no response choices")
	}

	choice := response.Choices[0]
	in, out := tokenUsage(choice)
	if c.collector != nil {
		c.collector.RecordCompletion(duration, in, out)
	}

	c.logger.Debug("completion done",
		"model", c.modelName, "duration_ms", duration.Milliseconds(),
		"input_tokens", in, "output_tokens", out)
	return choice.Content, nil
}

func (c *Completer) recordError() {
	if c.collector != nil {
		c.collector.RecordError(metrics.OpLLMComplete)
	}
}

func chatMessageType(turn conversation.Turn) llms.ChatMessageType {
	switch turn.Role {
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}

// tokenUsage pulls usage counts out of the provider's generation info.
// Providers that report nothing yield zeros.
func tokenUsage(choice *llms.ContentChoice) (in, out int64) {
	if choice.GenerationInfo == nil {
		return 0, 0
	}
	return usageCount(choice.GenerationInfo, "PromptTokens", "InputTokens"),
		usageCount(choice.GenerationInfo, "CompletionTokens", "OutputTokens")
}

func usageCount(info map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
