package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const verifyPrompt = "Test message"

// ErrInvalidKey is returned by VerifyKey when the provider rejects the key.
var ErrInvalidKey = errors.New("llm: api key rejected")

// LLMClient is what the planner and the API need from a model provider.
type LLMClient interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	ListModels(ctx context.Context) ([]string, error)
	VerifyKey(ctx context.Context, model string) error
	GetConfig() *Config
	Close() error
}

// Client talks to an OpenAI-compatible chat endpoint (Groq by default).
type Client struct {
	cfg   *Config
	api   *openai.Client
	log   Logger
	retry *RetryHandler
	http  *http.Client
}

// ClientOption configures optional client behaviour.
type ClientOption func(*Client)

// WithLogger injects a custom logger implementation.
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) { c.log = logger }
}

// WithRetryHandler injects a custom retry handler.
func WithRetryHandler(handler *RetryHandler) ClientOption {
	return func(c *Client) { c.retry = handler }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.http = client }
}

// WithOpenAIClient injects a pre-configured SDK client.
func WithOpenAIClient(client *openai.Client) ClientOption {
	return func(c *Client) { c.api = client }
}

// NewClient validates a copy of cfg and builds a client from it.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("llm: config cannot be nil")
	}
	c := &Client{cfg: cfg.Clone()}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = NewLogger(c.cfg.LogLevel)
	}
	if c.retry == nil {
		c.retry = NewRetryHandler(RetryConfig{MaxRetries: c.cfg.MaxRetries, OnRetry: c.logRetry})
	}
	if c.api == nil {
		// SDK retries stay off so the backoff loop lives in one place.
		reqOpts := []option.RequestOption{
			option.WithAPIKey(c.cfg.APIKey),
			option.WithBaseURL(c.cfg.BaseURL),
			option.WithMaxRetries(0),
		}
		if c.cfg.Timeout > 0 {
			reqOpts = append(reqOpts, option.WithRequestTimeout(c.cfg.Timeout))
		}
		if c.http != nil {
			reqOpts = append(reqOpts, option.WithHTTPClient(c.http))
		}
		api := openai.NewClient(reqOpts...)
		c.api = &api
	}
	return c, nil
}

func (c *Client) logRetry(attempt int, err error, wait time.Duration) {
	c.log.Warn(context.Background(), "llm call retrying", Fields{
		"attempt": attempt,
		"wait_ms": wait.Milliseconds(),
		"error":   err.Error(),
	})
}

// Chat performs a single synchronous completion request.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, errors.New("llm: request cannot be nil")
	}
	params, modelID, err := chatParams(c.cfg, req)
	if err != nil {
		return nil, err
	}

	c.log.Debug(ctx, "llm chat request", Fields{
		"model":    modelID,
		"messages": len(req.Messages),
		"prompt":   summarizeMessages(req.Messages),
	})

	start := time.Now()
	var completion *openai.ChatCompletion
	err = c.retry.Do(ctx, func() (callErr error) {
		completion, callErr = c.api.Chat.Completions.New(ctx, params)
		return callErr
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		c.log.Error(ctx, fmt.Errorf("chat completion failed: %w", err), Fields{"model": modelID, "duration_ms": elapsed})
		return nil, err
	}

	resp := fromCompletion(completion)
	c.log.Info(ctx, "llm chat success", Fields{
		"model":             modelID,
		"duration_ms":       elapsed,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"response_chars":    len(resp.Content()),
	})
	return resp, nil
}

// ListModels returns the sorted, de-duplicated ids visible to the configured key.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	err := c.retry.Do(ctx, func() error {
		page, callErr := c.api.Models.List(ctx)
		if callErr != nil {
			return callErr
		}
		for _, m := range page.Data {
			if id := strings.TrimSpace(m.ID); id != "" {
				seen[id] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		c.log.Error(ctx, fmt.Errorf("list models failed: %w", err), nil)
		return nil, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// VerifyKey sends a five-token probe to confirm the key can use model.
// A 401 or 403 from the provider wraps ErrInvalidKey.
func (c *Client) VerifyKey(ctx context.Context, model string) error {
	_, err := c.Chat(ctx, &ChatRequest{
		Model:       model,
		Messages:    []Message{{Role: RoleUser, Content: verifyPrompt}},
		Temperature: Float(0),
		MaxTokens:   Int(5),
	})
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		return fmt.Errorf("llm: verify key: %w: %w", ErrInvalidKey, err)
	}
	return fmt.Errorf("llm: verify key: %w", err)
}

// GetConfig returns a copy of the client configuration.
func (c *Client) GetConfig() *Config {
	return c.cfg.Clone()
}

// Close drops idle connections of an injected HTTP client.
func (c *Client) Close() error {
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
	return nil
}

func fromCompletion(resp *openai.ChatCompletion) *ChatResponse {
	if resp == nil {
		return &ChatResponse{}
	}
	out := &ChatResponse{
		ID:          resp.ID,
		Model:       resp.Model,
		Created:     resp.Created,
		RawJSON:     resp.RawJSON(),
		Fingerprint: resp.SystemFingerprint,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		Choices: make([]Choice, 0, len(resp.Choices)),
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Index:        int(ch.Index),
			Message:      Message{Role: string(ch.Message.Role), Content: ch.Message.Content},
			FinishReason: ch.FinishReason,
		})
	}
	return out
}
