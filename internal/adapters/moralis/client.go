// Package moralis implements the MetadataProvider interface against the
// Moralis Web3 API.
package moralis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
	"github.com/mikey/contract-spam-filter/internal/retry"
	"github.com/mikey/contract-spam-filter/internal/utils"
)

// ProviderName is the stable identifier used in priority lists, diagnostics
// and health snapshots.
const ProviderName = "moralis"

const defaultBaseURL = "https://deep-index.moralis.io/api/v2"

// Config is the base configuration for the Moralis client.
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	HealthTimeout time.Duration
	MaxRetries    int
}

// ChainOverride carries per-chain settings that take precedence over the
// base configuration.
type ChainOverride struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Client is the Moralis API client.
type Client struct {
	httpClient *http.Client
	cfg        Config
	overrides  map[core.ChainID]ChainOverride
	logger     *zap.Logger
	text       *utils.TextProcessor
}

// NewClient creates a new Moralis client.
func NewClient(cfg Config, overrides map[core.ChainID]ChainOverride, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("moralis: API key cannot be empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if overrides == nil {
		overrides = map[core.ChainID]ChainOverride{}
	}

	return &Client{
		// Per-request timeouts come from contexts so chain overrides apply.
		httpClient: &http.Client{},
		cfg:        cfg,
		overrides:  overrides,
		logger:     logger,
		text:       utils.NewTextProcessor(logger),
	}, nil
}

// Name implements core.MetadataProvider.
func (c *Client) Name() string { return ProviderName }

// chainSlugs maps chain ids to the identifiers Moralis expects.
var chainSlugs = map[core.ChainID]string{
	1:     "eth",
	137:   "polygon",
	8453:  "base",
	42161: "arbitrum",
	43114: "avalanche",
}

type effectiveConfig struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
}

func (c *Client) chainConfig(chainID core.ChainID) effectiveConfig {
	eff := effectiveConfig{
		baseURL:    c.cfg.BaseURL,
		timeout:    c.cfg.Timeout,
		maxRetries: c.cfg.MaxRetries,
	}
	if o, ok := c.overrides[chainID]; ok {
		if o.BaseURL != "" {
			eff.baseURL = o.BaseURL
		}
		if o.Timeout > 0 {
			eff.timeout = o.Timeout
		}
		if o.MaxRetries > 0 {
			eff.maxRetries = o.MaxRetries
		}
	}
	return eff
}

type nftItem struct {
	TokenAddress string `json:"token_address"`
	ContractType string `json:"contract_type"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
}

type contractNftsResponse struct {
	Result []nftItem `json:"result"`
}

// FetchMetadata implements core.MetadataProvider. One GET against the
// contract NFTs endpoint, retried on transient failures with exponential
// backoff.
func (c *Client) FetchMetadata(ctx context.Context, chainID core.ChainID, address core.Address) (*core.ContractMetadata, error) {
	slug, ok := chainSlugs[chainID]
	if !ok {
		return nil, core.NewProviderError(ProviderName, core.ErrUnavailable,
			fmt.Errorf("chain %d is not supported by the Moralis integration", chainID))
	}

	eff := c.chainConfig(chainID)

	return retry.Do(ctx, eff.maxRetries, func(ctx context.Context) (*core.ContractMetadata, error) {
		return c.fetchOnce(ctx, eff, slug, address)
	})
}

func (c *Client) fetchOnce(ctx context.Context, eff effectiveConfig, slug string, address core.Address) (*core.ContractMetadata, error) {
	reqCtx, cancel := context.WithTimeout(ctx, eff.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/nft/%s", eff.baseURL, address)
	query := url.Values{
		"chain":             {slug},
		"format":            {"decimal"},
		"limit":             {"1"},
		"normalizeMetadata": {"true"},
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, core.NewProviderError(ProviderName, core.ErrUnavailable, err)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err, eff.timeout)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var nfts contractNftsResponse
		if err := json.NewDecoder(resp.Body).Decode(&nfts); err != nil {
			return nil, core.NewProviderError(ProviderName, core.ErrUnavailable,
				fmt.Errorf("failed to decode response: %w", err))
		}
		if len(nfts.Result) == 0 {
			return nil, core.NewProviderError(ProviderName, core.ErrNotFound,
				fmt.Errorf("no NFTs found for contract %s", address.Short()))
		}
		return c.convertItem(address, nfts.Result[0]), nil
	case http.StatusNotFound:
		return nil, core.NewProviderError(ProviderName, core.ErrNotFound,
			fmt.Errorf("contract %s unknown to Moralis", address.Short()))
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, core.NewProviderError(ProviderName, core.ErrUnauthorized,
			errors.New("authentication failed"))
	case http.StatusTooManyRequests:
		return nil, core.NewProviderError(ProviderName, core.ErrRateLimited,
			errors.New("rate limit exceeded"))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Moralis API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, core.NewProviderError(ProviderName, core.ErrUnavailable,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

func (c *Client) convertItem(address core.Address, item nftItem) *core.ContractMetadata {
	contractType := core.ContractTypeUnknown
	switch item.ContractType {
	case "ERC721":
		contractType = core.ContractTypeERC721
	case "ERC1155":
		contractType = core.ContractTypeERC1155
	}

	return &core.ContractMetadata{
		Address:      address,
		Name:         c.text.SanitizeUTF8(item.Name),
		Symbol:       c.text.SanitizeUTF8(item.Symbol),
		ContractType: contractType,
		Source:       ProviderName,
	}
}

func (c *Client) transportError(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewProviderError(ProviderName, core.ErrTimeout,
			fmt.Errorf("request exceeded %s", timeout))
	}
	return core.NewProviderError(ProviderName, core.ErrUnavailable, err)
}

// HealthCheck implements core.MetadataProvider. It hits the endpoint
// weights route, which is cheap and exercises authentication.
func (c *Client) HealthCheck(ctx context.Context) core.ProviderHealth {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/info/endpointWeights", c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.ProviderHealth{Name: ProviderName, Up: false, Reason: err.Error()}
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.ProviderHealth{Name: ProviderName, Up: false, Reason: "health check timed out"}
		}
		return core.ProviderHealth{Name: ProviderName, Up: false, Reason: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return core.ProviderHealth{Name: ProviderName, Up: true}
	case http.StatusUnauthorized, http.StatusForbidden:
		return core.ProviderHealth{Name: ProviderName, Up: false, Reason: "authentication failed"}
	default:
		return core.ProviderHealth{Name: ProviderName, Up: false,
			Reason: fmt.Sprintf("API returned status %d", resp.StatusCode)}
	}
}
