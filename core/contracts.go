package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// InboundRequest is the raw material of one webhook call: exact body bytes,
// headers, and query parameters. It is created at request entry and consumed
// synchronously within a single dispatch.
type InboundRequest struct {
	Channel   Channel
	Headers   map[string]string
	Query     map[string]string
	Body      []byte
	RequestID string
	Metadata  map[string]any
}

// InboundResult carries the response decision back to the HTTP surface.
type InboundResult struct {
	Accepted   bool
	StatusCode int
	Body       string
	Metadata   map[string]any
}

// SignatureVerifier authenticates an inbound request and reports a verdict.
// Verification is a pure function of the request and configured secret.
type SignatureVerifier interface {
	Verify(ctx context.Context, req InboundRequest) SignatureVerdict
}

// LedgerStats is a read-only diagnostic snapshot of the reply-token ledger.
type LedgerStats struct {
	ActiveCount      int     `json:"active_tokens_count"`
	LifetimeMinutes  float64 `json:"token_lifetime_minutes"`
	OldestAgeMinutes float64 `json:"oldest_token_age_minutes"`
}

// ReplyTokenLedger is the only cross-request shared state in the system. It
// records one-time delivery tokens as consumed so redelivered webhook calls
// cannot trigger a second reply. TryConsume must be linearizable per token:
// exactly one concurrent caller may succeed for a fresh token.
type ReplyTokenLedger interface {
	IsConsumed(ctx context.Context, token string) (bool, error)
	TryConsume(ctx context.Context, token string) (bool, error)
	Stats(ctx context.Context) (LedgerStats, error)
}

// Translator converts a text payload along the selected direction. A failed
// translation yields a fixed user-visible fallback string, not an error that
// aborts dispatch.
type Translator interface {
	Translate(ctx context.Context, text string, direction Direction) (string, error)
}

// Notifier delivers outbound messages to the messaging platform. Reply spends
// a one-time reply token; PushMeetingNotice is a fire-and-forget push to the
// configured group target.
type Notifier interface {
	Reply(ctx context.Context, replyToken string, text string) error
	PushMeetingNotice(ctx context.Context, targetID string, meeting MeetingInfo) error
}

// TransportRequest describes one outbound HTTP call to a collaborator API.
type TransportRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    []byte
	Timeout time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
