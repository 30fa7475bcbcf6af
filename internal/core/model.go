package core

import (
	"time"
)

// ChainID identifies a blockchain network by its numeric chain id.
type ChainID uint64

// ContractType classifies the token standard a contract implements.
type ContractType string

const (
	ContractTypeERC20   ContractType = "ERC20"
	ContractTypeERC721  ContractType = "ERC721"
	ContractTypeERC1155 ContractType = "ERC1155"
	ContractTypeUnknown ContractType = "UNKNOWN"
)

// ContractMetadata holds the descriptive attributes of a contract as
// reported by a single metadata provider.
type ContractMetadata struct {
	Address      Address
	Name         string
	Symbol       string
	Description  string
	ContractType ContractType
	TotalSupply  string
	HolderCount  int64
	// Source identifies the provider that produced this metadata. It is
	// diagnostic only and excluded from the classification fingerprint.
	Source string
}

// ClassificationResult is the outcome of one spam classification.
type ClassificationResult struct {
	IsSpam       bool
	Message      string
	ModelUsed    string
	Cached       bool
	ClassifiedAt time.Time
}

// CacheEntry is a cached spam verdict keyed by classification fingerprint.
type CacheEntry struct {
	Fingerprint Fingerprint
	IsSpam      bool
	Message     string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// MetadataLookup is the merged outcome of one provider fan-out for one
// contract. Metadata is nil when every enabled provider reported a clean
// miss; Provider names the provider whose metadata won the merge.
type MetadataLookup struct {
	Metadata *ContractMetadata
	Provider string
}

// ContractStatusResult is the per-address output of a contract status
// request. Spam is nil when the verdict could not be determined.
type ContractStatusResult struct {
	ChainID ChainID `json:"chain_id"`
	Address Address `json:"address"`
	Spam    *bool   `json:"contract_spam_status"`
	Message string  `json:"message"`
}

// ServiceStatus is the overall health of the process.
type ServiceStatus string

const (
	StatusUp       ServiceStatus = "up"
	StatusDegraded ServiceStatus = "degraded"
)

// ProviderHealth is a transient health snapshot of one dependency.
type ProviderHealth struct {
	Name   string `json:"name"`
	Up     bool   `json:"up"`
	Reason string `json:"reason,omitempty"`
}

// ServiceHealth aggregates the health of every enabled dependency.
type ServiceHealth struct {
	Status       ServiceStatus    `json:"status"`
	Dependencies []ProviderHealth `json:"dependencies"`
	CheckedAt    time.Time        `json:"checked_at"`
}
