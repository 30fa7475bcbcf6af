package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/contract-spam-filter/internal/core"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "timeout", err: core.NewProviderError("moralis", core.ErrTimeout, nil), want: true},
		{name: "rate limited", err: core.NewProviderError("moralis", core.ErrRateLimited, nil), want: true},
		{name: "unavailable", err: core.NewClassifierError(core.ErrUnavailable, nil), want: true},
		{name: "not found", err: core.NewProviderError("pinax", core.ErrNotFound, nil), want: false},
		{name: "unauthorized", err: core.NewProviderError("pinax", core.ErrUnauthorized, nil), want: false},
		{name: "parse failure", err: core.NewClassifierError(core.ErrParseFailure, nil), want: false},
		{name: "plain error counts as unavailable", err: errors.New("boom"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	out, err := Do(context.Background(), 3, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", core.NewProviderError("moralis", core.ErrUnavailable, errors.New("try again"))
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnTerminalError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 5, func(ctx context.Context) (string, error) {
		calls++
		return "", core.NewProviderError("moralis", core.ErrUnauthorized, errors.New("bad key"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, core.IsUnauthorized(err))
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 3, func(ctx context.Context) (string, error) {
		calls++
		return "", core.NewProviderError("moralis", core.ErrTimeout, errors.New("slow"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, core.ErrTimeout, core.KindOf(err))
}

func TestDoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, 5, func(ctx context.Context) (string, error) {
		calls++
		return "", core.NewProviderError("moralis", core.ErrTimeout, errors.New("slow"))
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}
