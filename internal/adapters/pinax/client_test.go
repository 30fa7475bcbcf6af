package pinax

import (
	"context"
	"io"
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

const testAddr = core.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func testClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Endpoint:      endpoint,
		APIUser:       "user",
		APIAuth:       "secret",
		Timeout:       2 * time.Second,
		HealthTimeout: time.Second,
		MaxRetries:    3,
	}, map[core.ChainID]ChainOverride{
		1: {Database: "mainnet:evm-nft-tokens@v0.6.2"},
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "https://example.com"}, nil, zap.NewNop())
	require.Error(t, err)
}

func TestFetchMetadataSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "secret", pass)

		body, _ := io.ReadAll(r.Body)
		query := string(body)
		assert.Contains(t, query, "`mainnet:evm-nft-tokens@v0.6.2`.erc1155_metadata_by_contract")
		assert.Contains(t, query, "`mainnet:evm-nft-tokens@v0.6.2`.erc721_metadata_by_contract")
		assert.Contains(t, query, string(testAddr))
		assert.Contains(t, query, "FORMAT JSON")

		w.Write([]byte(`{"data":[{"symbol":"COOL","name":"Cool Cats","description":"cats"}]}`))
	}))
	defer srv.Close()

	md, err := testClient(t, srv.URL).FetchMetadata(context.Background(), 1, testAddr)
	require.NoError(t, err)
	assert.Equal(t, "Cool Cats", md.Name)
	assert.Equal(t, "COOL", md.Symbol)
	assert.Equal(t, "cats", md.Description)
	assert.Equal(t, core.ContractTypeUnknown, md.ContractType)
	assert.Equal(t, ProviderName, md.Source)
}

func TestFetchMetadataEmptyDataIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchMetadata(context.Background(), 1, testAddr)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestFetchMetadataQueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"error":"table does not exist"}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchMetadata(context.Background(), 1, testAddr)
	require.Error(t, err)
	assert.Equal(t, core.ErrUnavailable, core.KindOf(err))
}

func TestFetchMetadataNoDatabaseForChain(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchMetadata(context.Background(), 137, testAddr)
	require.Error(t, err)
	assert.Equal(t, core.ErrUnavailable, core.KindOf(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFetchMetadataUnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchMetadata(context.Background(), 1, testAddr)
	require.Error(t, err)
	assert.True(t, core.IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchMetadataRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[{"symbol":"X","name":"X","description":""}]}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchMetadata(context.Background(), 1, testAddr)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "SELECT 1 FORMAT JSON", string(body))
			w.Write([]byte(`{"data":[{"1":1}]}`))
		}))
		defer srv.Close()

		health := testClient(t, srv.URL).HealthCheck(context.Background())
		assert.True(t, health.Up)
	})

	t.Run("bad credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		health := testClient(t, srv.URL).HealthCheck(context.Background())
		assert.False(t, health.Up)
		assert.Equal(t, "authentication failed", health.Reason)
	})
}
