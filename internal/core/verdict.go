package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseVerdict reads a completion response as a spam verdict. The second
// return value is false when the output is ambiguous; callers must surface
// that as a ParseFailure instead of assuming either verdict.
func ParseVerdict(raw string) (bool, bool) {
	response := strings.ToLower(strings.TrimSpace(raw))

	switch response {
	case "true", "yes", "spam":
		return true, true
	case "false", "no", "not spam", "legitimate":
		return false, true
	}

	// Negative phrasings first: "not spam" contains "is spam".
	switch {
	case strings.Contains(response, "not spam"),
		strings.Contains(response, "spam: false"),
		strings.Contains(response, `"spam": false`),
		strings.Contains(response, "classification: legitimate"):
		return false, true
	case strings.Contains(response, "is spam"),
		strings.Contains(response, "spam: true"),
		strings.Contains(response, `"spam": true`),
		strings.Contains(response, "classification: spam"):
		return true, true
	}

	return false, false
}

// promptPayload is the provider-independent view of a contract handed to
// the completion model.
type promptPayload struct {
	ChainID      ChainID      `json:"chain_id"`
	Address      Address      `json:"address"`
	Name         string       `json:"name"`
	Symbol       string       `json:"symbol"`
	Description  string       `json:"description,omitempty"`
	ContractType ContractType `json:"contract_type"`
	TotalSupply  string       `json:"total_supply,omitempty"`
	HolderCount  int64        `json:"holder_count,omitempty"`
}

// RenderPromptPayload serializes contract metadata for the classification
// prompt. The provider source tag is deliberately omitted so prompts, like
// fingerprints, do not depend on which provider answered.
func RenderPromptPayload(chainID ChainID, metadata *ContractMetadata) (string, error) {
	payload := promptPayload{
		ChainID:      chainID,
		Address:      metadata.Address,
		Name:         metadata.Name,
		Symbol:       metadata.Symbol,
		Description:  metadata.Description,
		ContractType: metadata.ContractType,
		TotalSupply:  metadata.TotalSupply,
		HolderCount:  metadata.HolderCount,
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize contract data: %w", err)
	}
	return string(out), nil
}
