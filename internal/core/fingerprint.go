package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fingerprint is a deterministic digest of the classification-relevant
// subset of contract metadata plus the chain id. Two payloads that are
// semantically identical for classification hash identically no matter
// which provider produced them.
type Fingerprint string

var fingerprintFolder = cases.Fold()

// ComputeFingerprint derives the cache key for a classification.
// Only provider-independent fields participate: name, symbol and contract
// type, each unicode-normalized and case-folded. The provider source tag,
// description and collection stats are excluded because providers disagree
// on them for the same contract.
func ComputeFingerprint(chainID ChainID, metadata *ContractMetadata) Fingerprint {
	h := sha256.New()
	fmt.Fprintf(h, "chain:%d\n", chainID)
	fmt.Fprintf(h, "address:%s\n", metadata.Address)
	fmt.Fprintf(h, "name:%s\n", normalizeField(metadata.Name))
	fmt.Fprintf(h, "symbol:%s\n", normalizeField(metadata.Symbol))
	fmt.Fprintf(h, "type:%s\n", normalizeField(string(metadata.ContractType)))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func normalizeField(s string) string {
	s = norm.NFC.String(s)
	s = fingerprintFolder.String(s)
	return strings.Join(strings.Fields(s), " ")
}
