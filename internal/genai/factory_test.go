package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/triangulator-go/internal/createai"
	domerrors "github.com/garyellow/triangulator-go/internal/errors"
)

// fakeQuerier stands in for the CreateAI client.
type fakeQuerier struct {
	text    string
	err     error
	credErr error
	got     createai.QueryRequest
}

func (f *fakeQuerier) Query(_ context.Context, req createai.QueryRequest) (string, error) {
	f.got = req
	return f.text, f.err
}

func (f *fakeQuerier) ModelName() string { return "gpt5_2" }

func (f *fakeQuerier) CheckCredentials() error { return f.credErr }

func TestDefaultLLMConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultLLMConfig()

	assert.Equal(t, DefaultProviders, cfg.Providers)
	assert.Equal(t, DefaultGeminiModels, cfg.Gemini.Models)
	assert.Equal(t, DefaultGroqModels, cfg.Groq.Models)
	assert.Equal(t, DefaultCerebrasModels, cfg.Cerebras.Models)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, DefaultRetryConfig(), cfg.RetryConfig)
}

func TestLLMConfig_HasProvider(t *testing.T) {
	t.Parallel()
	cfg := LLMConfig{Groq: ProviderConfig{APIKey: "k"}}

	assert.True(t, cfg.HasProvider(ProviderGroq))
	assert.False(t, cfg.HasProvider(ProviderGemini))
	assert.False(t, cfg.HasProvider(ProviderCreateAI))
	assert.Nil(t, cfg.GetProviderConfig(ProviderCreateAI))
}

func TestCreateCompleter_NoProviders(t *testing.T) {
	t.Parallel()

	f := CreateCompleter(t.Context(), DefaultLLMConfig(), nil, nil)
	require.NotNil(t, f)
	assert.Equal(t, 0, f.Len())

	_, err := f.Complete(t.Context(), Request{Query: "q"})
	require.ErrorIs(t, err, domerrors.ErrFallbackUnavailable)
}

func TestCreateCompleter_Order(t *testing.T) {
	t.Parallel()

	cfg := DefaultLLMConfig()
	cfg.Providers = []Provider{ProviderCerebras, ProviderCreateAI, ProviderGroq, ProviderCerebras}
	cfg.Groq.APIKey = "groq-key"
	cfg.Groq.Models = []string{"only-one"}
	cfg.Cerebras.APIKey = "cerebras-key"

	f := CreateCompleter(t.Context(), cfg, &fakeQuerier{}, nil)

	var providers []Provider
	for _, c := range f.chain {
		providers = append(providers, c.Provider())
	}
	assert.Equal(t, []Provider{
		ProviderCerebras, ProviderCerebras, // two default models
		ProviderCreateAI,
		ProviderGroq,
	}, providers)
}

func TestCreateCompleter_SkipsCreateAIWithoutToken(t *testing.T) {
	t.Parallel()

	cfg := LLMConfig{Providers: []Provider{ProviderCreateAI}}
	f := CreateCompleter(t.Context(), cfg, &fakeQuerier{credErr: domerrors.ErrMissingCredential}, nil)
	assert.Equal(t, 0, f.Len())

	var nilClient *createai.Client
	f = CreateCompleter(t.Context(), cfg, nilClient, nil)
	assert.Equal(t, 0, f.Len())
}

func TestCreateAICompleter(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{text: `{"catalog_status":"found"}`}
	c := newCreateAICompleter(q, 0)

	got, err := c.Complete(t.Context(), Request{Query: "AVC BIOL 2251", Context: "ignored", Candidate: "cand"})
	require.NoError(t, err)
	assert.Equal(t, ProviderCreateAI, got.Provider)
	assert.Equal(t, "gpt5_2", got.Model)
	assert.Equal(t, "AVC BIOL 2251", q.got.Query)
	assert.True(t, q.got.JSON)
	assert.Equal(t, DefaultMaxTokens, q.got.MaxTokens)
	assert.Contains(t, q.got.SystemPrompt, "cand")

	q.err = domerrors.NewUpstreamError("u", http.StatusBadGateway, errors.New("down"))
	_, err = c.Complete(t.Context(), Request{Query: "q"})
	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusBadGateway, llmErr.StatusCode)
	assert.Equal(t, ActionRetry, ClassifyError(err))
}

func TestOpenAICompleter(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":0,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"subject\":\"BIOL\"}"}}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	c, err := newOpenAICompleter(ProviderGroq, "key", "m", 0, option.WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	got, err := c.Complete(t.Context(), Request{Query: "q", Context: "ctx", Candidate: "cand"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"BIOL"}`, got.Text)
	assert.Equal(t, ProviderGroq, got.Provider)
	assert.Equal(t, "m", body["model"])
	assert.InDelta(t, 0.0, body["temperature"], 0)

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
}

func TestOpenAICompleter_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c, err := newOpenAICompleter(ProviderCerebras, "key", "", 0, option.WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCerebrasModels[0], c.model)

	_, err = c.Complete(t.Context(), Request{Query: "q"})
	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusTooManyRequests, llmErr.StatusCode)
	assert.Equal(t, ActionRetry, ClassifyError(err))
}

func TestNewOpenAICompleter_Disabled(t *testing.T) {
	t.Parallel()

	c, err := newOpenAICompleter(ProviderGroq, "", "m", 0)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = newOpenAICompleter(ProviderGemini, "k", "m", 0)
	require.Error(t, err)
}

func TestProvider(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "createai", ProviderCreateAI.String())
	assert.True(t, ProviderGroq.IsOpenAICompatible())
	assert.True(t, ProviderCerebras.IsOpenAICompatible())
	assert.False(t, ProviderGemini.IsOpenAICompatible())
	assert.False(t, ProviderCreateAI.IsOpenAICompatible())
}
