package webhooks

import (
	"context"
	"testing"

	"github.com/goliatone/go-chatbridge/core"
)

func TestVerifyLineSignature_AcceptsExactDigestOnly(t *testing.T) {
	body := []byte(`{"events":[]}`)
	secret := "channel-secret"

	signature := ComputeLineSignature(body, secret)
	if verdict := VerifyLineSignature(body, secret, signature); verdict != core.SignatureValid {
		t.Fatalf("expected valid verdict for exact digest, got %q", verdict)
	}

	mutated := append([]byte(nil), body...)
	mutated[0] ^= 0x01
	if verdict := VerifyLineSignature(mutated, secret, signature); verdict != core.SignatureInvalid {
		t.Fatalf("expected invalid verdict for mutated body, got %q", verdict)
	}

	badSignature := []byte(signature)
	badSignature[0] ^= 0x01
	if verdict := VerifyLineSignature(body, secret, string(badSignature)); verdict != core.SignatureInvalid {
		t.Fatalf("expected invalid verdict for mutated signature, got %q", verdict)
	}
}

func TestVerifyLineSignature_MissingSignature(t *testing.T) {
	if verdict := VerifyLineSignature([]byte("{}"), "secret", ""); verdict != core.SignatureMissing {
		t.Fatalf("expected missing verdict, got %q", verdict)
	}
	if verdict := VerifyLineSignature([]byte("{}"), "secret", "   "); verdict != core.SignatureMissing {
		t.Fatalf("expected missing verdict for blank signature, got %q", verdict)
	}
}

func TestVerifyLineSignature_RejectsNonBase64(t *testing.T) {
	if verdict := VerifyLineSignature([]byte("{}"), "secret", "not-base64!!"); verdict != core.SignatureInvalid {
		t.Fatalf("expected invalid verdict for undecodable signature, got %q", verdict)
	}
}

func TestLineSignatureVerifier_SkipVerifyIsExplicit(t *testing.T) {
	req := core.InboundRequest{
		Channel: core.ChannelLine,
		Body:    []byte(`{"events":[]}`),
	}

	verifier := LineSignatureVerifier{Secret: "secret"}
	if verdict := verifier.Verify(context.Background(), req); verdict != core.SignatureMissing {
		t.Fatalf("expected missing verdict without skip flag, got %q", verdict)
	}

	verifier.SkipVerify = true
	if verdict := verifier.Verify(context.Background(), req); verdict != core.SignatureSkippedByConfig {
		t.Fatalf("expected skipped verdict with explicit flag, got %q", verdict)
	}
}

func TestLineSignatureVerifier_ReadsHeaderCaseInsensitively(t *testing.T) {
	body := []byte(`{"events":[]}`)
	verifier := LineSignatureVerifier{Secret: "secret"}
	req := core.InboundRequest{
		Channel: core.ChannelLine,
		Body:    body,
		Headers: map[string]string{
			"x-line-signature": ComputeLineSignature(body, "secret"),
		},
	}
	if verdict := verifier.Verify(context.Background(), req); verdict != core.SignatureValid {
		t.Fatalf("expected valid verdict via lowercase header, got %q", verdict)
	}
}

func TestTeamsTokenVerifier(t *testing.T) {
	verifier := TeamsTokenVerifier{Token: "flow-token"}

	cases := []struct {
		name    string
		query   map[string]string
		verdict core.SignatureVerdict
	}{
		{name: "missing", query: nil, verdict: core.SignatureMissing},
		{name: "blank", query: map[string]string{"token": "  "}, verdict: core.SignatureMissing},
		{name: "mismatch", query: map[string]string{"token": "other"}, verdict: core.SignatureInvalid},
		{name: "match", query: map[string]string{"token": "flow-token"}, verdict: core.SignatureValid},
	}
	for _, tc := range cases {
		req := core.InboundRequest{Channel: core.ChannelTeams, Query: tc.query}
		if verdict := verifier.Verify(context.Background(), req); verdict != tc.verdict {
			t.Fatalf("%s: expected verdict %q, got %q", tc.name, tc.verdict, verdict)
		}
	}
}
