package core

import (
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestBridgeErrorMapperNilPassesThrough(t *testing.T) {
	if mapped := BridgeErrorMapper(nil); mapped != nil {
		t.Fatalf("expected nil for nil error, got %+v", mapped)
	}
}

func TestBridgeErrorMapperKeepsRichEnvelope(t *testing.T) {
	rich := goerrors.New("downstream refused", goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(BridgeErrorDownstreamFailed)

	mapped := BridgeErrorMapper(rich)
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("expected code preserved, got %d", mapped.Code)
	}
	if mapped.TextCode != BridgeErrorDownstreamFailed {
		t.Fatalf("expected text code preserved, got %q", mapped.TextCode)
	}
}

func TestBridgeErrorMapperFillsMissingCodeAndTextCode(t *testing.T) {
	bare := goerrors.New("signature mismatch", goerrors.CategoryAuth)
	mapped := BridgeErrorMapper(bare)
	if mapped.Code != http.StatusUnauthorized {
		t.Fatalf("expected auth category to map to 401, got %d", mapped.Code)
	}
	if mapped.TextCode != BridgeErrorSignatureDenied {
		t.Fatalf("expected signature text code, got %q", mapped.TextCode)
	}
}

func TestBridgeErrorMapperClassifiesPlainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		textCode string
		code     int
	}{
		{"signature wording", fmt.Errorf("signature check failed"), BridgeErrorSignatureDenied, http.StatusUnauthorized},
		{"unmarshal wording", fmt.Errorf("cannot unmarshal payload"), BridgeErrorMalformedPayload, http.StatusBadRequest},
		{"required wording", fmt.Errorf("reply token is required"), BridgeErrorBadInput, http.StatusBadRequest},
	}
	for _, tc := range cases {
		mapped := BridgeErrorMapper(tc.err)
		if mapped.TextCode != tc.textCode {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.textCode, mapped.TextCode)
		}
		if mapped.Code != tc.code {
			t.Fatalf("%s: expected code %d, got %d", tc.name, tc.code, mapped.Code)
		}
	}
}

func TestBridgeHTTPStatusRateLimit(t *testing.T) {
	mapped := BridgeErrorMapper(goerrors.New("slow down", goerrors.CategoryRateLimit))
	if mapped.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for rate limit category, got %d", mapped.Code)
	}
	if mapped.TextCode != BridgeErrorRateLimited {
		t.Fatalf("expected rate limited text code, got %q", mapped.TextCode)
	}
}
