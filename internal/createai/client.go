// Package createai provides a client for the CreateAI platform.
// It wraps the /search endpoint used for evidence retrieval and the /query
// endpoint used as a language-model fallback.
package createai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	domerrors "github.com/garyellow/triangulator-go/internal/errors"
	"github.com/garyellow/triangulator-go/internal/stringutil"
)

// Defaults for the public CreateAI deployment.
const (
	DefaultBaseURL       = "https://api-main-poc.aiml.asu.edu"
	DefaultModelProvider = "openai"
	DefaultModelName     = "gpt5_2"
	DefaultTopK          = 10
	DefaultMaxTokens     = 2000
	DefaultTimeout       = 60 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Config holds CreateAI client configuration.
type Config struct {
	BaseURL       string
	Token         string
	Collection    string
	ModelProvider string
	ModelName     string
	TopK          int
	Timeout       time.Duration
}

// Client calls the CreateAI HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a CreateAI client. Zero config fields fall back to defaults.
// A missing token is not an error here; calls report ErrMissingCredential.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ModelProvider == "" {
		cfg.ModelProvider = DefaultModelProvider
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// ModelName returns the model used for /query calls.
func (c *Client) ModelName() string {
	return c.cfg.ModelName
}

// CheckCredentials reports ErrMissingCredential when no token is configured.
func (c *Client) CheckCredentials() error {
	if c == nil || strings.TrimSpace(c.cfg.Token) == "" {
		return domerrors.ErrMissingCredential
	}
	return nil
}

type modelParams struct {
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	SystemPrompt string  `json:"system_prompt"`
	TopK         int     `json:"top_k,omitempty"`
}

type searchParams struct {
	DBType        string   `json:"db_type"`
	Collection    string   `json:"collection"`
	TopK          int      `json:"top_k,omitempty"`
	OutputFields  []string `json:"output_fields"`
	RetrievalType string   `json:"retrieval_type,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type payload struct {
	ModelProvider  string          `json:"model_provider"`
	ModelName      string          `json:"model_name"`
	ModelParams    modelParams     `json:"model_params"`
	Query          string          `json:"query"`
	EnableSearch   bool            `json:"enable_search"`
	SearchParams   searchParams    `json:"search_params"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// Search runs a retrieval-only search and returns the raw response body.
// Hit-shape normalisation is left to the caller.
func (c *Client) Search(ctx context.Context, query string) (json.RawMessage, error) {
	if err := c.CheckCredentials(); err != nil {
		return nil, err
	}

	p := payload{
		ModelProvider: c.cfg.ModelProvider,
		ModelName:     c.cfg.ModelName,
		ModelParams:   modelParams{MaxTokens: DefaultMaxTokens},
		Query:         query,
		EnableSearch:  true,
		SearchParams: searchParams{
			DBType:        "opensearch",
			Collection:    c.cfg.Collection,
			TopK:          c.cfg.TopK,
			OutputFields:  []string{"content", "source_name", "chunk_number"},
			RetrievalType: "neighbor",
		},
	}

	body, err := c.post(ctx, "/search", p)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: search body is not JSON", domerrors.ErrMalformedResponse)
	}
	return body, nil
}

// QueryRequest describes one /query completion.
type QueryRequest struct {
	Query        string
	SystemPrompt string
	MaxTokens    int
	// JSON asks the model for a JSON object response.
	JSON bool
}

// Query runs a completion and returns the model's response text.
func (c *Client) Query(ctx context.Context, req QueryRequest) (string, error) {
	if err := c.CheckCredentials(); err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	p := payload{
		ModelProvider: c.cfg.ModelProvider,
		ModelName:     c.cfg.ModelName,
		ModelParams: modelParams{
			Temperature:  0,
			MaxTokens:    maxTokens,
			SystemPrompt: req.SystemPrompt,
			TopK:         3,
		},
		Query:        req.Query,
		EnableSearch: true,
		SearchParams: searchParams{
			DBType:       "opensearch",
			Collection:   c.cfg.Collection,
			OutputFields: []string{"content", "source_name"},
		},
	}
	if req.JSON {
		p.ResponseFormat = &responseFormat{Type: "json"}
	}

	body, err := c.post(ctx, "/query", p)
	if err != nil {
		return "", err
	}

	var out struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: %w", domerrors.ErrMalformedResponse, err)
	}

	var text string
	if err := json.Unmarshal(out.Response, &text); err != nil {
		return "", fmt.Errorf("%w: response field is not a string", domerrors.ErrMalformedResponse)
	}
	return text, nil
}

// post sends a JSON payload and returns the decoded body of a 2xx response.
// Transport failures and non-2xx statuses are reported as UpstreamError.
func (c *Client) post(ctx context.Context, path string, p payload) ([]byte, error) {
	url := c.cfg.BaseURL + path

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domerrors.NewUpstreamError(url, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	reader := io.Reader(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, domerrors.NewUpstreamError(url, resp.StatusCode, fmt.Errorf("failed to decompress gzip: %w", err))
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxResponseBytes))
	if err != nil {
		return nil, domerrors.NewUpstreamError(url, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := stringutil.Truncate(strings.TrimSpace(string(body)), 200)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, domerrors.NewUpstreamError(url, resp.StatusCode, fmt.Errorf("%s", msg))
	}

	return body, nil
}
