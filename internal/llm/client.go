// Package llm implements the external semantic comparator on top of a
// locally hosted language model (Ollama or a vLLM OpenAI-compatible server).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/semdiff/internal/semantic"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// Compile-time interface check.
var _ semantic.Comparator = (*Client)(nil)

// Provider selects the wire protocol.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderVLLM   Provider = "vllm"
)

var (
	// ErrUnsupportedProvider is returned by New for unknown providers.
	ErrUnsupportedProvider = errors.New("llm: unsupported provider")

	// ErrModelUnavailable is returned by Available when the server does not
	// list the configured model.
	ErrModelUnavailable = errors.New("llm: model not available")

	// ErrNoChoices is returned when a chat completion carries no choices.
	ErrNoChoices = errors.New("llm: response has no choices")
)

// maxParseWarnings bounds how many unparseable responses are logged.
const maxParseWarnings = 3

// Generation holds sampling parameters.
type Generation struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultGeneration returns the sampling parameters used when none are set.
func DefaultGeneration() Generation {
	return Generation{MaxTokens: 8192, Temperature: 0.1, TopP: 0.9}
}

// Client talks to one model on one server.
type Client struct {
	provider   Provider
	model      string
	baseURL    string
	http       *http.Client
	generation Generation
	logger     *log.Logger

	parseWarnings atomic.Int32
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the server root, e.g. "http://localhost:11434".
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithGeneration overrides the sampling parameters. Zero fields keep their
// defaults.
func WithGeneration(g Generation) Option {
	return func(c *Client) {
		if g.MaxTokens > 0 {
			c.generation.MaxTokens = g.MaxTokens
		}
		if g.Temperature > 0 {
			c.generation.Temperature = g.Temperature
		}
		if g.TopP > 0 {
			c.generation.TopP = g.TopP
		}
	}
}

// WithLogger sets the logger used for request and parse diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for model served by provider.
func New(provider Provider, model string, opts ...Option) (*Client, error) {
	c := &Client{
		provider:   provider,
		model:      model,
		http:       &http.Client{Timeout: 30 * time.Second},
		generation: DefaultGeneration(),
		logger:     log.New(io.Discard, "", 0),
	}
	switch provider {
	case ProviderOllama:
		c.baseURL = "http://localhost:11434"
	case ProviderVLLM:
		c.baseURL = "http://localhost:8000"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Provider reports the wire protocol in use.
func (c *Client) Provider() Provider { return c.provider }

// Model reports the configured model name.
func (c *Client) Model() string { return c.model }

// Available checks that the server answers and lists the configured model.
func (c *Client) Available(ctx context.Context) error {
	var names []string
	switch c.provider {
	case ProviderOllama:
		var tags struct {
			Models []struct {
				Name string `json:"name"`
			} `json:"models"`
		}
		if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
			return err
		}
		for _, m := range tags.Models {
			names = append(names, m.Name)
		}
	case ProviderVLLM:
		var models struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := c.do(ctx, http.MethodGet, "/v1/models", nil, &models); err != nil {
			return err
		}
		for _, m := range models.Data {
			names = append(names, m.ID)
		}
	}
	if !slices.Contains(names, c.model) {
		return fmt.Errorf("%w: %s on %s", ErrModelUnavailable, c.model, c.baseURL)
	}
	return nil
}

// Generate sends prompt and returns the raw completion text.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.generation.MaxTokens
	}
	switch c.provider {
	case ProviderOllama:
		req := ollamaRequest{
			Model:  c.model,
			Prompt: prompt,
			Stream: false,
			Options: ollamaOptions{
				Temperature: c.generation.Temperature,
				TopP:        c.generation.TopP,
				NumPredict:  maxTokens,
			},
		}
		var resp ollamaResponse
		if err := c.do(ctx, http.MethodPost, "/api/generate", req, &resp); err != nil {
			return "", err
		}
		return resp.Response, nil

	case ProviderVLLM:
		req := chatRequest{
			Model:       c.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: c.generation.Temperature,
			TopP:        c.generation.TopP,
			MaxTokens:   maxTokens,
		}
		var resp chatResponse
		if err := c.do(ctx, http.MethodPost, "/v1/chat/completions", req, &resp); err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", ErrNoChoices
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.provider)
}

// Compare asks the model for a semantic comparison of two code versions.
// Unparseable output still yields a result: the similarity is derived from
// the text and the payload is flagged with "error": "json_parse_failed".
func (c *Client) Compare(ctx context.Context, code1, code2 string, lang structure.Language) (*semantic.Result, error) {
	text, err := c.Generate(ctx, ComparePrompt(code1, code2, lang), c.generation.MaxTokens*2)
	if err != nil {
		return nil, err
	}

	payload, ok := ExtractJSON(text)
	if !ok {
		c.warnParse(text)
		payload = map[string]any{
			"analysis":             strings.TrimSpace(text),
			"extracted":            false,
			"confidence":           0.3,
			"error":                "json_parse_failed",
			semantic.KeySimilarity: SimilarityFromText(text),
			"response_length":      len(text),
		}
	}
	if _, ok := payload[semantic.KeySimilarity]; !ok {
		payload[semantic.KeySimilarity] = 0.5
	}
	payload["model_info"] = map[string]any{
		"name":     c.model,
		"type":     string(c.provider),
		"base_url": c.baseURL,
	}
	payload["language"] = string(lang)
	payload["code1_length"] = len(code1)
	payload["code2_length"] = len(code2)

	r := semantic.FromMap(payload)
	if _, ok := r.Similarity(); !ok {
		// The model answered with a score of the wrong type.
		neutral := 0.5
		r.SimilarityScore = &neutral
	}
	return r, nil
}

func (c *Client) warnParse(text string) {
	n := c.parseWarnings.Add(1)
	if n > maxParseWarnings {
		return
	}
	trimmed := strings.TrimSpace(text)
	truncated := strings.HasPrefix(trimmed, "{") && !strings.HasSuffix(trimmed, "}") && len(trimmed) > 100
	c.logger.Printf("llm: unparseable response model=%s len=%d truncated=%t preview=%q",
		c.model, len(trimmed), truncated, preview(trimmed, 200))
	if n == maxParseWarnings {
		c.logger.Printf("llm: further parse warnings suppressed model=%s", c.model)
	}
}

// do performs one JSON request. A nil body sends no payload.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("llm: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("llm: create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("llm: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("llm: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Provider:   c.provider,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("llm: decode response: %w", err)
		}
	}
	return nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// APIError is a non-200 answer from the model server.
type APIError struct {
	Provider   Provider
	Path       string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("llm: %s %s: HTTP %d: %s", e.Provider, e.Path, e.StatusCode, preview(e.Body, 200))
	}
	return fmt.Sprintf("llm: %s %s: HTTP %d", e.Provider, e.Path, e.StatusCode)
}
