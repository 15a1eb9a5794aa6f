package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	googleai "google.golang.org/genai"
)

// contentGenerator is the subset of the Gemini models service used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*googleai.Content, config *googleai.GenerateContentConfig) (*googleai.GenerateContentResponse, error)
}

// geminiDialer creates a models service bound to one credential.
type geminiDialer func(ctx context.Context, apiKey string) (contentGenerator, error)

func dialGemini(ctx context.Context, apiKey string) (contentGenerator, error) {
	client, err := googleai.NewClient(ctx, &googleai.ClientConfig{
		APIKey:  apiKey,
		Backend: googleai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

type geminiBackend struct {
	dial        geminiDialer
	model       string
	temperature float32
	maxTokens   int32
}

func newGeminiBackend(model string, temperature float32, maxTokens int32) *geminiBackend {
	return &geminiBackend{dial: dialGemini, model: model, temperature: temperature, maxTokens: maxTokens}
}

func (b *geminiBackend) generate(ctx context.Context, credential, prompt string) (string, error) {
	models, err := b.dial(ctx, credential)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthInvalid, err)
	}

	temperature := b.temperature
	resp, err := models.GenerateContent(ctx, b.model, googleai.Text(prompt), &googleai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: b.maxTokens,
	})
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, ErrNoChoicesReturned)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != googleai.BlockedReasonUnspecified {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrSafetyBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		// Gemini returns no candidates when every candidate was filtered.
		return "", fmt.Errorf("%w: %w", ErrSafetyBlocked, ErrNoChoicesReturned)
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == googleai.FinishReasonSafety || cand.FinishReason == googleai.FinishReasonProhibitedContent {
		return "", fmt.Errorf("%w: finish reason %s", ErrSafetyBlocked, cand.FinishReason)
	}
	if cand.Content == nil {
		return "", fmt.Errorf("%w: candidate has no content", ErrSafetyBlocked)
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// classifyGeminiError maps SDK errors to the package's failure classes.
func classifyGeminiError(err error) error {
	var apiErr googleai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *googleai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}
		apiErr = *apiErrPtr
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden,
		apiErr.Status == "UNAUTHENTICATED" || apiErr.Status == "PERMISSION_DENIED",
		apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return fmt.Errorf("%w: %w", ErrAuthInvalid, err)
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}
