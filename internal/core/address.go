package core

import (
	"strings"
)

// Address is a normalized EVM contract address: "0x" followed by 40
// lowercase hex digits.
type Address string

const addressHexLen = 40

// ParseAddress validates and normalizes a contract address.
// Normalization is lowercase; validation accepts mixed case input.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return "", NewRequestError("invalid address %q: missing 0x prefix", s)
	}
	hex := trimmed[2:]
	if len(hex) != addressHexLen {
		return "", NewRequestError("invalid address %q: expected %d hex digits, got %d", s, addressHexLen, len(hex))
	}
	for _, r := range hex {
		if !isHexDigit(r) {
			return "", NewRequestError("invalid address %q: non-hex character %q", s, r)
		}
	}
	return Address("0x" + strings.ToLower(hex)), nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (a Address) String() string { return string(a) }

// Short returns an abbreviated form for log messages.
func (a Address) Short() string {
	if len(a) < 12 {
		return string(a)
	}
	return string(a[:6]) + "..." + string(a[len(a)-4:])
}

// DedupAddresses parses, normalizes and deduplicates raw address strings,
// preserving first-seen order. Any invalid address fails the whole batch.
func DedupAddresses(raw []string) ([]Address, error) {
	seen := make(map[Address]struct{}, len(raw))
	out := make([]Address, 0, len(raw))
	for _, s := range raw {
		addr, err := ParseAddress(s)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out, nil
}
