package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
)

type stubValidator struct{ err error }

func (s *stubValidator) EnabledProvidersFor(id core.ChainID) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []string{"moralis"}, nil
}

type stubProvider struct{ health core.ProviderHealth }

func (s *stubProvider) Name() string { return "moralis" }

func (s *stubProvider) FetchMetadata(ctx context.Context, chainID core.ChainID, address core.Address) (*core.ContractMetadata, error) {
	return &core.ContractMetadata{
		Address:      address,
		Name:         "Token",
		ContractType: core.ContractTypeERC721,
		Source:       "moralis",
	}, nil
}

func (s *stubProvider) HealthCheck(ctx context.Context) core.ProviderHealth { return s.health }

type stubClassifier struct{ verdict bool }

func (s *stubClassifier) Classify(ctx context.Context, chainID core.ChainID, metadata *core.ContractMetadata) (*core.ClassificationResult, error) {
	return &core.ClassificationResult{IsSpam: s.verdict, Message: "classified"}, nil
}

func (s *stubClassifier) HealthCheck(ctx context.Context) core.ProviderHealth {
	return core.ProviderHealth{Name: "classifier", Up: true}
}

func testServer(t *testing.T, validator core.ChainValidator, providerHealth core.ProviderHealth) *Server {
	t.Helper()
	provider := &stubProvider{health: providerHealth}
	service := core.NewAggregatorService(
		validator,
		map[string]core.MetadataProvider{"moralis": provider},
		&stubClassifier{verdict: true},
		nil,
		[]string{"moralis"},
		4,
		core.NopMetrics{},
		zap.NewNop(),
	)
	health := core.NewHealthAggregator(
		[]core.MetadataProvider{provider},
		&stubClassifier{},
		time.Second,
		zap.NewNop(),
	)
	return NewServer(service, health, zap.NewNop(), "127.0.0.1:0", 5*time.Second)
}

func TestHandleContractStatusOK(t *testing.T) {
	srv := testServer(t, &stubValidator{}, core.ProviderHealth{Name: "moralis", Up: true})
	router := srv.Router()

	body := `{"chain_id":1,"addresses":["0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB","0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/contract/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ChainID uint64                      `json:"chain_id"`
		Results []core.ContractStatusResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.ChainID)
	require.Len(t, resp.Results, 2)
	// Sorted by address.
	assert.Equal(t, core.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), resp.Results[0].Address)
	require.NotNil(t, resp.Results[0].Spam)
	assert.True(t, *resp.Results[0].Spam)
}

func TestHandleContractStatusBadRequest(t *testing.T) {
	srv := testServer(t, &stubValidator{}, core.ProviderHealth{Name: "moralis", Up: true})
	router := srv.Router()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "missing addresses", body: `{"chain_id":1}`},
		{name: "invalid address", body: `{"chain_id":1,"addresses":["nope"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/contract/status", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleContractStatusRejectedChain(t *testing.T) {
	srv := testServer(t,
		&stubValidator{err: core.NewRequestError("unsupported chain id 999")},
		core.ProviderHealth{Name: "moralis", Up: true})
	router := srv.Router()

	body := `{"chain_id":999,"addresses":["0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/contract/status", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported chain id 999")
}

func TestHandleHealth(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		srv := testServer(t, &stubValidator{}, core.ProviderHealth{Name: "moralis", Up: true})
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"up"`)
	})

	t.Run("degraded", func(t *testing.T) {
		srv := testServer(t, &stubValidator{}, core.ProviderHealth{Name: "moralis", Up: false, Reason: "down"})
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, &stubValidator{}, core.ProviderHealth{Name: "moralis", Up: true})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
