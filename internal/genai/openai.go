package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatService defines minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// completionsAdapter exposes the SDK's completions service as a chatService.
type completionsAdapter struct {
	svc *openai.ChatCompletionService
}

func (a completionsAdapter) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := a.svc.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

func dialOpenAI(apiKey string) chatService {
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return completionsAdapter{svc: &cli.Chat.Completions}
}

type openAIBackend struct {
	dial        func(apiKey string) chatService
	model       string
	temperature float64
	maxTokens   int64
}

func newOpenAIBackend(model string, temperature float64, maxTokens int64) *openAIBackend {
	return &openAIBackend{dial: dialOpenAI, model: model, temperature: temperature, maxTokens: maxTokens}
}

func (b *openAIBackend) generate(ctx context.Context, credential, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if b.temperature > 0 {
		params.Temperature = openai.Float(b.temperature)
	}
	if b.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(b.maxTokens)
	}

	resp, err := b.dial(credential).Create(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", ErrTransport, ErrNoChoicesReturned)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" || choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: finish reason %s", ErrSafetyBlocked, choice.FinishReason)
	}
	return strings.TrimSpace(choice.Message.Content), nil
}

// classifyOpenAIError maps SDK errors to the package's failure classes.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuthInvalid, err)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case apiErr.Code == "content_filter" || apiErr.Code == "content_policy_violation":
		return fmt.Errorf("%w: %w", ErrSafetyBlocked, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}
