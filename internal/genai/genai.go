// Package genai provides completion calls against a generative-language-model API.
//
// Every call carries the credential of the session it serves; the client holds no
// credential of its own. Gemini is the default provider and OpenAI is available as an
// alternative.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Failure classes returned by Complete. Callers test them with errors.Is.
var (
	ErrAuthInvalid       = errors.New("credential rejected by the completion service")
	ErrSafetyBlocked     = errors.New("response blocked by the safety filter")
	ErrQuotaExceeded     = errors.New("completion service quota exceeded")
	ErrTransport         = errors.New("completion service unavailable")
	ErrNoChoicesReturned = errors.New("no choices returned")
)

// Provider selects the completion backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ParseProvider maps a configuration value to a Provider; empty selects Gemini.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("unknown LLM provider %q", s)
	}
}

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// DefaultTemperature and DefaultMaxTokens shape every completion.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048
)

// ValidationPrompt is sent once to confirm a credential works.
const ValidationPrompt = "Hello, can you confirm my API key is working?"

// backend performs one completion with the given credential.
type backend interface {
	generate(ctx context.Context, credential, prompt string) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	Provider    Provider
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	DebugMode   bool
	StateDir    string
}

// Option defines a function that modifies Opts.
type Option func(*Opts)

// WithProvider selects the completion backend.
func WithProvider(p Provider) Option {
	return func(o *Opts) { o.Provider = p }
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Opts) { o.Temperature = t }
}

// WithMaxTokens caps the length of each completion.
func WithMaxTokens(n int) Option {
	return func(o *Opts) { o.MaxTokens = n }
}

// WithTimeout bounds each outbound call; zero leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithDebugMode writes one JSON record per call under <stateDir>/debug.
func WithDebugMode(enabled bool) Option {
	return func(o *Opts) { o.DebugMode = enabled }
}

// WithStateDir sets the directory used for debug records.
func WithStateDir(dir string) Option {
	return func(o *Opts) { o.StateDir = dir }
}

// Client sends prompts to the configured provider and classifies its failures.
type Client struct {
	backend     backend
	provider    Provider
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	debugMode   bool
	stateDir    string
}

// NewClient builds a client for the configured provider.
func NewClient(opts ...Option) (*Client, error) {
	o := Opts{
		Provider:    ProviderGemini,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		provider:    o.Provider,
		model:       o.Model,
		temperature: o.Temperature,
		maxTokens:   o.MaxTokens,
		timeout:     o.Timeout,
		debugMode:   o.DebugMode,
		stateDir:    o.StateDir,
	}
	switch o.Provider {
	case ProviderGemini:
		if c.model == "" {
			c.model = DefaultGeminiModel
		}
		c.backend = newGeminiBackend(c.model, float32(c.temperature), int32(c.maxTokens))
	case ProviderOpenAI:
		if c.model == "" {
			c.model = DefaultOpenAIModel
		}
		c.backend = newOpenAIBackend(c.model, c.temperature, int64(c.maxTokens))
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", o.Provider)
	}

	slog.Debug("GenAI client created", "provider", c.provider, "model", c.model, "timeout", c.timeout, "debugMode", c.debugMode)
	return c, nil
}

// Provider returns the backend in use.
func (c *Client) Provider() Provider { return c.provider }

// Model returns the model name sent with each request.
func (c *Client) Model() string { return c.model }

// Complete sends prompt with the given credential and returns the model's text.
// Failures wrap one of ErrAuthInvalid, ErrSafetyBlocked, ErrQuotaExceeded or ErrTransport.
func (c *Client) Complete(ctx context.Context, credential, prompt string) (string, error) {
	return c.complete(ctx, "Complete", credential, prompt)
}

// ValidateCredential makes one live test call; any failure marks the credential invalid.
func (c *Client) ValidateCredential(ctx context.Context, credential string) error {
	_, err := c.complete(ctx, "ValidateCredential", credential, ValidationPrompt)
	if err != nil && !errors.Is(err, ErrAuthInvalid) {
		// A credential that cannot complete a test call is not usable either way.
		return fmt.Errorf("%w: %w", ErrAuthInvalid, err)
	}
	return err
}

func (c *Client) complete(ctx context.Context, method, credential, prompt string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", fmt.Errorf("%w: empty credential", ErrAuthInvalid)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.backend.generate(ctx, credential, prompt)
	elapsed := time.Since(start)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: empty response", ErrSafetyBlocked)
	}

	c.writeDebugRecord(method, prompt, text, err, elapsed)
	if err != nil {
		slog.Warn("GenAI."+method+": completion failed", "provider", c.provider, "model", c.model, "elapsed", elapsed, "error", err)
		return "", err
	}
	slog.Debug("GenAI."+method+": completion succeeded", "provider", c.provider, "model", c.model, "elapsed", elapsed, "chars", len(text))
	return text, nil
}

type debugRecord struct {
	Timestamp string         `json:"timestamp"`
	Method    string         `json:"method"`
	Provider  Provider       `json:"provider"`
	Model     string         `json:"model"`
	Params    map[string]any `json:"params"`
	Response  string         `json:"response"`
	Error     string         `json:"error,omitempty"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

// writeDebugRecord stores the prompt and reply of one call. Credentials are never written.
func (c *Client) writeDebugRecord(method, prompt, response string, callErr error, elapsed time.Duration) {
	if !c.debugMode || c.stateDir == "" {
		return
	}
	dir := filepath.Join(c.stateDir, "debug")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("GenAI.writeDebugRecord: failed to create debug dir", "dir", dir, "error", err)
		return
	}
	now := time.Now().UTC()
	rec := debugRecord{
		Timestamp: now.Format(time.RFC3339Nano),
		Method:    method,
		Provider:  c.provider,
		Model:     c.model,
		Params: map[string]any{
			"prompt":      prompt,
			"temperature": c.temperature,
			"max_tokens":  c.maxTokens,
		},
		Response:  response,
		ElapsedMS: elapsed.Milliseconds(),
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		slog.Warn("GenAI.writeDebugRecord: marshal failed", "error", err)
		return
	}
	name := fmt.Sprintf("%s_%s.json", now.Format("20060102T150405.000000000"), method)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		slog.Warn("GenAI.writeDebugRecord: write failed", "file", name, "error", err)
	}
}
