// Package pinax implements the MetadataProvider interface against the
// Pinax Token API, which serves blockchain data through SQL-over-HTTP
// queries against per-chain databases.
package pinax

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
	"github.com/mikey/contract-spam-filter/internal/retry"
	"github.com/mikey/contract-spam-filter/internal/utils"
)

// ProviderName is the stable identifier used in priority lists, diagnostics
// and health snapshots.
const ProviderName = "pinax"

// Config is the base configuration for the Pinax client.
type Config struct {
	Endpoint      string
	APIUser       string
	APIAuth       string
	Database      string
	Timeout       time.Duration
	HealthTimeout time.Duration
	MaxRetries    int
}

// ChainOverride carries per-chain settings, most importantly the database
// name that selects which chain's token tables the query runs against.
type ChainOverride struct {
	Database   string
	Timeout    time.Duration
	MaxRetries int
}

// Client is the Pinax API client.
type Client struct {
	httpClient *http.Client
	cfg        Config
	overrides  map[core.ChainID]ChainOverride
	logger     *zap.Logger
	text       *utils.TextProcessor
}

// maxDescriptionSize bounds on-chain descriptions before they reach the
// prompt payload.
const maxDescriptionSize = 2048

// NewClient creates a new Pinax client.
func NewClient(cfg Config, overrides map[core.ChainID]ChainOverride, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("pinax: endpoint cannot be empty")
	}
	if cfg.APIUser == "" || cfg.APIAuth == "" {
		return nil, fmt.Errorf("pinax: credentials cannot be empty")
	}
	if overrides == nil {
		overrides = map[core.ChainID]ChainOverride{}
	}

	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		overrides:  overrides,
		logger:     logger,
		text:       utils.NewTextProcessor(logger),
	}, nil
}

// Name implements core.MetadataProvider.
func (c *Client) Name() string { return ProviderName }

type effectiveConfig struct {
	database   string
	timeout    time.Duration
	maxRetries int
}

func (c *Client) chainConfig(chainID core.ChainID) effectiveConfig {
	eff := effectiveConfig{
		database:   c.cfg.Database,
		timeout:    c.cfg.Timeout,
		maxRetries: c.cfg.MaxRetries,
	}
	if o, ok := c.overrides[chainID]; ok {
		if o.Database != "" {
			eff.database = o.Database
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

type nftMetadataRow struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type queryResponse struct {
	Data  []nftMetadataRow `json:"data"`
	Error string           `json:"error"`
}

// FetchMetadata implements core.MetadataProvider. The query unions the
// ERC-721 and ERC-1155 metadata tables of the chain's database; an empty
// result set means the contract is unknown to Pinax.
func (c *Client) FetchMetadata(ctx context.Context, chainID core.ChainID, address core.Address) (*core.ContractMetadata, error) {
	eff := c.chainConfig(chainID)
	if eff.database == "" {
		return nil, core.NewProviderError(ProviderName, core.ErrUnavailable,
			fmt.Errorf("no Pinax database configured for chain %d", chainID))
	}

	return retry.Do(ctx, eff.maxRetries, func(ctx context.Context) (*core.ContractMetadata, error) {
		return c.fetchOnce(ctx, eff, address)
	})
}

func metadataQuery(database string, address core.Address) string {
	return fmt.Sprintf(`
		WITH contract_metadata AS (
			SELECT symbol, name, contract FROM `+"`%s`"+`.erc1155_metadata_by_contract
			WHERE contract = '%s'

			UNION ALL

			SELECT symbol, name, contract FROM `+"`%s`"+`.erc721_metadata_by_contract
			WHERE contract = '%s'
		)
		SELECT
			cm.symbol,
			cm.name,
			nm.description
		FROM contract_metadata cm
		LEFT JOIN `+"`%s`"+`.nft_metadata nm
		ON cm.contract = nm.contract
		LIMIT 1
		FORMAT JSON
	`, database, address, database, address, database)
}

func (c *Client) fetchOnce(ctx context.Context, eff effectiveConfig, address core.Address) (*core.ContractMetadata, error) {
	reqCtx, cancel := context.WithTimeout(ctx, eff.timeout)
	defer cancel()

	query := metadataQuery(eff.database, address)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(query))
	if err != nil {
		return nil, core.NewProviderError(ProviderName, core.ErrUnavailable, err)
	}
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIAuth)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.NewProviderError(ProviderName, core.ErrTimeout,
				fmt.Errorf("request exceeded %s", eff.timeout))
		}
		return nil, core.NewProviderError(ProviderName, core.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var parsed queryResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, core.NewProviderError(ProviderName, core.ErrUnavailable,
				fmt.Errorf("failed to decode response: %w", err))
		}
		if parsed.Error != "" {
			return nil, core.NewProviderError(ProviderName, core.ErrUnavailable,
				fmt.Errorf("query error: %s", parsed.Error))
		}
		if len(parsed.Data) == 0 {
			return nil, core.NewProviderError(ProviderName, core.ErrNotFound,
				fmt.Errorf("contract %s unknown to Pinax", address.Short()))
		}
		return c.convertRow(address, parsed.Data[0]), nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, core.NewProviderError(ProviderName, core.ErrUnauthorized,
			errors.New("authentication failed"))
	case http.StatusTooManyRequests:
		return nil, core.NewProviderError(ProviderName, core.ErrRateLimited,
			errors.New("rate limit exceeded"))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Pinax API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, core.NewProviderError(ProviderName, core.ErrUnavailable,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

func (c *Client) convertRow(address core.Address, row nftMetadataRow) *core.ContractMetadata {
	return &core.ContractMetadata{
		Address:      address,
		Name:         c.text.SanitizeUTF8(row.Name),
		Symbol:       c.text.SanitizeUTF8(row.Symbol),
		Description:  c.text.ProcessText(row.Description, maxDescriptionSize),
		ContractType: core.ContractTypeUnknown,
		Source:       ProviderName,
	}
}

// HealthCheck implements core.MetadataProvider with a trivial SELECT.
func (c *Client) HealthCheck(ctx context.Context) core.ProviderHealth {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.Endpoint, strings.NewReader("SELECT 1 FORMAT JSON"))
	if err != nil {
		return core.ProviderHealth{Name: ProviderName, Up: false, Reason: err.Error()}
	}
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIAuth)
	req.Header.Set("Content-Type", "text/plain")

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
