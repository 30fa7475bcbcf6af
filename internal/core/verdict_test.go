package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   bool
		parsed bool
	}{
		{name: "bare true", raw: "true", want: true, parsed: true},
		{name: "bare false", raw: "false", want: false, parsed: true},
		{name: "spam word", raw: "spam", want: true, parsed: true},
		{name: "not spam phrase", raw: "not spam", want: false, parsed: true},
		{name: "uppercase with whitespace", raw: "  SPAM\n", want: true, parsed: true},
		{name: "sentence positive", raw: "This contract is spam.", want: true, parsed: true},
		{name: "sentence negative", raw: "The contract is not spam.", want: false, parsed: true},
		{name: "json positive", raw: `{"spam": true}`, want: true, parsed: true},
		{name: "json negative", raw: `{"spam": false}`, want: false, parsed: true},
		{name: "legitimate", raw: "legitimate", want: false, parsed: true},
		{name: "empty", raw: "", parsed: false},
		{name: "refusal", raw: "I cannot determine this.", parsed: false},
		{name: "unrelated", raw: "hello world", parsed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseVerdict(tt.raw)
			assert.Equal(t, tt.parsed, ok)
			if tt.parsed {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRenderPromptPayload(t *testing.T) {
	out, err := RenderPromptPayload(137, &ContractMetadata{
		Address:      "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Name:         "Free Mint!!!",
		Symbol:       "FREE",
		ContractType: ContractTypeERC1155,
		Source:       "moralis",
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(137), decoded["chain_id"])
	assert.Equal(t, "Free Mint!!!", decoded["name"])
	assert.NotContains(t, decoded, "source")
}
