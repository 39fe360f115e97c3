package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/goliatone/go-chatbridge/core"
)

const LineSignatureHeader = "X-Line-Signature"

const TeamsTokenParam = "token"

// ComputeLineSignature returns the base64 HMAC-SHA256 digest the LINE
// platform sends for a given body and channel secret. Exported so tests and
// tooling can produce valid signatures.
func ComputeLineSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyLineSignature checks a provided signature against the expected digest
// of the raw body. Pure function of its inputs.
func VerifyLineSignature(body []byte, secret string, provided string) core.SignatureVerdict {
	provided = strings.TrimSpace(provided)
	if provided == "" {
		return core.SignatureMissing
	}
	decoded, err := base64.StdEncoding.DecodeString(provided)
	if err != nil {
		return core.SignatureInvalid
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	if subtle.ConstantTimeCompare(decoded, mac.Sum(nil)) != 1 {
		return core.SignatureInvalid
	}
	return core.SignatureValid
}

// LineSignatureVerifier authenticates LINE webhook calls. SkipVerify exists
// for non-production testing and must be enabled explicitly.
type LineSignatureVerifier struct {
	Secret     string
	SkipVerify bool
}

func (v LineSignatureVerifier) Verify(_ context.Context, req core.InboundRequest) core.SignatureVerdict {
	if v.SkipVerify {
		return core.SignatureSkippedByConfig
	}
	return VerifyLineSignature(req.Body, v.Secret, headerValue(req.Headers, LineSignatureHeader))
}

// TeamsTokenVerifier authenticates Teams webhook calls via the token query
// parameter. There is no body signature on this channel.
type TeamsTokenVerifier struct {
	Token string
}

func (v TeamsTokenVerifier) Verify(_ context.Context, req core.InboundRequest) core.SignatureVerdict {
	provided := strings.TrimSpace(queryValue(req.Query, TeamsTokenParam))
	if provided == "" {
		return core.SignatureMissing
	}
	expected := strings.TrimSpace(v.Token)
	if expected == "" {
		return core.SignatureInvalid
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		return core.SignatureInvalid
	}
	return core.SignatureValid
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func queryValue(query map[string]string, key string) string {
	if len(query) == 0 {
		return ""
	}
	for existing, value := range query {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var (
	_ core.SignatureVerifier = (*LineSignatureVerifier)(nil)
	_ core.SignatureVerifier = (*TeamsTokenVerifier)(nil)
)
