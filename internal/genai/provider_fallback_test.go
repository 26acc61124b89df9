package genai

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/triangulator-go/internal/errors"
	"github.com/garyellow/triangulator-go/internal/metrics"
)

// mockCompleter is a test mock for the Completer interface.
type mockCompleter struct {
	completeFunc func(ctx context.Context, req Request) (*Completion, error)
	provider     Provider
	calls        atomic.Int32
	closeCalled  atomic.Bool
}

func (m *mockCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	m.calls.Add(1)
	if m.completeFunc != nil {
		return m.completeFunc(ctx, req)
	}
	return &Completion{Text: "{}", Provider: m.provider}, nil
}

func (m *mockCompleter) Provider() Provider { return m.provider }

func (m *mockCompleter) Close() error {
	m.closeCalled.Store(true)
	return nil
}

func failing(provider Provider, err error) *mockCompleter {
	return &mockCompleter{
		provider: provider,
		completeFunc: func(context.Context, Request) (*Completion, error) {
			return nil, err
		},
	}
}

var fastRetry = RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestFallbackCompleter_PrimarySuccess(t *testing.T) {
	t.Parallel()

	primary := &mockCompleter{provider: ProviderCreateAI}
	secondary := &mockCompleter{provider: ProviderGemini}
	f := NewFallbackCompleter(fastRetry, nil, primary, secondary)

	got, err := f.Complete(t.Context(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, ProviderCreateAI, got.Provider)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestFallbackCompleter_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	primary := &mockCompleter{
		provider: ProviderGemini,
		completeFunc: func(context.Context, Request) (*Completion, error) {
			if n.Add(1) == 1 {
				return nil, &LLMError{Err: errors.New("busy"), StatusCode: http.StatusServiceUnavailable}
			}
			return &Completion{Text: "ok", Provider: ProviderGemini}, nil
		},
	}
	f := NewFallbackCompleter(fastRetry, nil, primary)

	got, err := f.Complete(t.Context(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Text)
	assert.Equal(t, int32(2), primary.calls.Load())
}

func TestFallbackCompleter_FallsBackOnPermanentError(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	primary := failing(ProviderCreateAI, &LLMError{Err: errors.New("bad key"), StatusCode: http.StatusUnauthorized})
	secondary := &mockCompleter{provider: ProviderGroq}
	f := NewFallbackCompleter(fastRetry, m, primary, secondary)

	got, err := f.Complete(t.Context(), Request{})
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, got.Provider)
	assert.Equal(t, int32(1), primary.calls.Load(), "permanent errors are not retried")
}

func TestFallbackCompleter_AllFail(t *testing.T) {
	t.Parallel()

	primary := failing(ProviderGemini, errors.New("quota exceeded"))
	secondary := failing(ProviderCerebras, errors.New("503 unavailable"))
	f := NewFallbackCompleter(fastRetry, nil, primary, secondary)

	_, err := f.Complete(t.Context(), Request{})
	require.ErrorIs(t, err, domerrors.ErrFallbackFailed)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(2), secondary.calls.Load())
}

func TestFallbackCompleter_StopsOnCancel(t *testing.T) {
	t.Parallel()

	primary := failing(ProviderGemini, context.Canceled)
	secondary := &mockCompleter{provider: ProviderGroq}
	f := NewFallbackCompleter(fastRetry, nil, primary, secondary)

	_, err := f.Complete(t.Context(), Request{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestFallbackCompleter_Empty(t *testing.T) {
	t.Parallel()

	var nilChain *FallbackCompleter
	_, err := nilChain.Complete(t.Context(), Request{})
	require.ErrorIs(t, err, domerrors.ErrFallbackUnavailable)

	var typedNil Completer
	f := NewFallbackCompleter(fastRetry, nil, typedNil)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, Provider(""), f.Provider())
	_, err = f.Complete(t.Context(), Request{})
	require.ErrorIs(t, err, domerrors.ErrFallbackUnavailable)
}

func TestFallbackCompleter_Close(t *testing.T) {
	t.Parallel()

	a := &mockCompleter{provider: ProviderGemini}
	b := &mockCompleter{provider: ProviderGroq}
	f := NewFallbackCompleter(fastRetry, nil, a, b)

	require.NoError(t, f.Close())
	assert.True(t, a.closeCalled.Load())
	assert.True(t, b.closeCalled.Load())
	assert.NoError(t, (*FallbackCompleter)(nil).Close())
}
