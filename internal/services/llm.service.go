package services

import (
	"context"
	"errors"
	"net/http"
	"newsdigest/config"
	"newsdigest/internal/types"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaiOption "github.com/openai/openai-go/option"
)

const (
	LLM_TEMPERATURE    = 0.7
	OPENAI_PROVIDER    = "openai"
	ANTHROPIC_PROVIDER = "anthropic"
)

// LLMProvider sends one system and user prompt pair and returns the raw text.
// Rate limits surface as QuotaExceededError; other failures as LLMError.
type LLMProvider interface {
	Name() string
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

func NewLLMProvider(cfg config.Config) LLMProvider {
	if cfg.LLMProvider == config.LLMProviderAnthropic {
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}
	return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel)
}

type OpenAIProvider struct {
	client openai.Client
	model  string
	log    logger.Logger
}

func NewOpenAIProvider(apiKey, model string, opts ...openaiOption.RequestOption) *OpenAIProvider {
	options := append([]openaiOption.RequestOption{
		openaiOption.WithAPIKey(apiKey),
		openaiOption.WithMaxRetries(0),
	}, opts...)

	return &OpenAIProvider{
		client: openai.NewClient(options...),
		model:  model,
		log:    logger.New("OpenAIProvider"),
	}
}

func (p *OpenAIProvider) Name() string {
	return OPENAI_PROVIDER
}

func (p *OpenAIProvider) Complete(
	ctx context.Context,
	system, user string,
	maxTokens int,
) (string, error) {
	log := p.log.Function("Complete").TraceFromContext(ctx)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(LLM_TEMPERATURE),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			log.Warn("OpenAI rate limited", "model", p.model)
			return "", &types.QuotaExceededError{Provider: OPENAI_PROVIDER, Err: err}
		}
		return "", &types.LLMError{
			Provider: OPENAI_PROVIDER,
			Err:      log.Err("openai request failed", err, "model", p.model),
		}
	}

	if len(resp.Choices) == 0 {
		_ = log.Error("OpenAI returned no choices", "model", p.model)
		return "", &types.MalformedResponseError{Provider: OPENAI_PROVIDER, Reason: "no choices returned"}
	}

	log.Debug(
		"OpenAI completion received",
		"model", p.model,
		"promptTokens", resp.Usage.PromptTokens,
		"completionTokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}

type AnthropicProvider struct {
	client anthropic.Client
	model  string
	log    logger.Logger
}

func NewAnthropicProvider(
	apiKey, model string,
	opts ...anthropicOption.RequestOption,
) *AnthropicProvider {
	options := append([]anthropicOption.RequestOption{
		anthropicOption.WithAPIKey(apiKey),
		anthropicOption.WithMaxRetries(0),
	}, opts...)

	return &AnthropicProvider{
		client: anthropic.NewClient(options...),
		model:  model,
		log:    logger.New("AnthropicProvider"),
	}
}

func (p *AnthropicProvider) Name() string {
	return ANTHROPIC_PROVIDER
}

func (p *AnthropicProvider) Complete(
	ctx context.Context,
	system, user string,
	maxTokens int,
) (string, error) {
	log := p.log.Function("Complete").TraceFromContext(ctx)

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(LLM_TEMPERATURE),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			log.Warn("Anthropic rate limited", "model", p.model)
			return "", &types.QuotaExceededError{Provider: ANTHROPIC_PROVIDER, Err: err}
		}
		return "", &types.LLMError{
			Provider: ANTHROPIC_PROVIDER,
			Err:      log.Err("anthropic request failed", err, "model", p.model),
		}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		_ = log.Error("Anthropic returned no text content", "model", p.model)
		return "", &types.MalformedResponseError{Provider: ANTHROPIC_PROVIDER, Reason: "no text content returned"}
	}

	return text.String(), nil
}
