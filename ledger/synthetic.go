package ledger

import "strings"

var syntheticTokens = map[string]struct{}{
	"test_reply_token":  {},
	"mock_reply_token":  {},
	"fake_reply_token":  {},
	"dummy_reply_token": {},
}

var syntheticPrefixes = []string{"test_", "mock_"}

// IsSyntheticToken reports whether a reply token is a placeholder emitted by
// platform simulators and smoke tests. Synthetic tokens are acknowledged but
// never spent against the messaging API.
func IsSyntheticToken(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	if _, ok := syntheticTokens[token]; ok {
		return true
	}
	for _, prefix := range syntheticPrefixes {
		if strings.HasPrefix(token, prefix) {
			return true
		}
	}
	return false
}
