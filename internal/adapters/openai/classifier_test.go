package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
)

func completionBody(content string) string {
	out, _ := json.Marshal(map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			},
		},
	})
	return string(out)
}

func testClassifier(t *testing.T, baseURL string) *Classifier {
	t.Helper()
	c, err := NewClassifier(
		"test-key",
		baseURL,
		"test-model",
		"Respond with spam or not spam.",
		10,
		0,
		3,
		time.Second,
		zap.NewNop(),
	)
	require.NoError(t, err)
	return c
}

func testMetadata() *core.ContractMetadata {
	return &core.ContractMetadata{
		Address:      "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Name:         "Free Airdrop Mint",
		Symbol:       "FREE",
		ContractType: core.ContractTypeERC1155,
	}
}

func TestNewClassifierRequiresAPIKey(t *testing.T) {
	_, err := NewClassifier("", "", "m", "p", 10, 0, 3, time.Second, zap.NewNop())
	require.Error(t, err)
}

func TestClassifyVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{name: "spam", response: "spam", want: true},
		{name: "not spam", response: "not spam", want: false},
		{name: "sentence", response: "This contract is spam.", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(completionBody(tt.response)))
			}))
			defer srv.Close()

			result, err := testClassifier(t, srv.URL).Classify(context.Background(), 1, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.IsSpam)
			assert.Equal(t, "test-model", result.ModelUsed)
			assert.False(t, result.Cached)
		})
	}
}

func TestClassifyAmbiguousResponseIsParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("I am not sure about this one.")))
	}))
	defer srv.Close()

	_, err := testClassifier(t, srv.URL).Classify(context.Background(), 1, testMetadata())
	require.Error(t, err)
	assert.Equal(t, core.ErrParseFailure, core.KindOf(err))
}

func TestClassifySendsMetadataPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "Free Airdrop Mint")
		assert.Contains(t, req.Messages[1].Content, `"chain_id": 1`)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("spam")))
	}))
	defer srv.Close()

	_, err := testClassifier(t, srv.URL).Classify(context.Background(), 1, testMetadata())
	require.NoError(t, err)
}

func TestClassifyRateLimitIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("not spam")))
	}))
	defer srv.Close()

	result, err := testClassifier(t, srv.URL).Classify(context.Background(), 1, testMetadata())
	require.NoError(t, err)
	assert.False(t, result.IsSpam)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
