package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/goliatone/go-chatbridge/core"
	"github.com/goliatone/go-chatbridge/ratelimit"
)

func TestLINENotifier_ReplySendsTextMessage(t *testing.T) {
	adapter := &stubAdapter{response: core.TransportResponse{StatusCode: http.StatusOK}}
	notifier := newTestNotifier(t, adapter)

	if err := notifier.Reply(context.Background(), "token-1", "hello"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if !strings.HasSuffix(adapter.lastRequest.URL, "/v2/bot/message/reply") {
		t.Fatalf("expected reply endpoint, got %q", adapter.lastRequest.URL)
	}
	if adapter.lastRequest.Headers["Authorization"] != "Bearer channel-token" {
		t.Fatalf("expected bearer auth, got %q", adapter.lastRequest.Headers["Authorization"])
	}

	var sent replyRequest
	if err := json.Unmarshal(adapter.lastRequest.Body, &sent); err != nil {
		t.Fatalf("decode reply payload: %v", err)
	}
	if sent.ReplyToken != "token-1" {
		t.Fatalf("expected reply token, got %q", sent.ReplyToken)
	}
	if len(sent.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sent.Messages))
	}
}

func TestLINENotifier_ReplyRequiresToken(t *testing.T) {
	notifier := newTestNotifier(t, &stubAdapter{response: core.TransportResponse{StatusCode: http.StatusOK}})
	if err := notifier.Reply(context.Background(), " ", "hello"); err == nil {
		t.Fatalf("expected error for blank reply token")
	}
}

func TestLINENotifier_ReplySurfacesAPIFailure(t *testing.T) {
	cases := []struct {
		name    string
		adapter *stubAdapter
	}{
		{"transport error", &stubAdapter{err: fmt.Errorf("connection reset")}},
		{"non-2xx status", &stubAdapter{response: core.TransportResponse{StatusCode: http.StatusBadRequest, Body: []byte(`{"message":"Invalid reply token"}`)}}},
	}
	for _, tc := range cases {
		notifier := newTestNotifier(t, tc.adapter)
		if err := notifier.Reply(context.Background(), "token-1", "hello"); err == nil {
			t.Fatalf("%s: expected reply failure", tc.name)
		}
	}
}

func TestLINENotifier_PushMeetingNoticeRendersFlexCard(t *testing.T) {
	adapter := &stubAdapter{response: core.TransportResponse{StatusCode: http.StatusOK}}
	notifier := newTestNotifier(t, adapter)

	meeting := core.MeetingInfo{
		Title:   "Weekly sync",
		Time:    "2025-03-14 09:30",
		JoinURL: "https://teams.microsoft.com/l/meetup-join/abc",
	}
	if err := notifier.PushMeetingNotice(context.Background(), "C123", meeting); err != nil {
		t.Fatalf("push meeting notice: %v", err)
	}
	if !strings.HasSuffix(adapter.lastRequest.URL, "/v2/bot/message/push") {
		t.Fatalf("expected push endpoint, got %q", adapter.lastRequest.URL)
	}

	var sent struct {
		To       string        `json:"to"`
		Messages []flexMessage `json:"messages"`
	}
	if err := json.Unmarshal(adapter.lastRequest.Body, &sent); err != nil {
		t.Fatalf("decode push payload: %v", err)
	}
	if sent.To != "C123" {
		t.Fatalf("expected push target, got %q", sent.To)
	}
	if len(sent.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sent.Messages))
	}
	msg := sent.Messages[0]
	if msg.Type != "flex" {
		t.Fatalf("expected flex message, got %q", msg.Type)
	}
	if msg.AltText != "會議通知：Weekly sync 2025-03-14 09:30" {
		t.Fatalf("unexpected alt text %q", msg.AltText)
	}
	if msg.Contents.Footer == nil {
		t.Fatalf("expected join button footer when join url present")
	}
}

func TestLINENotifier_PushOmitsFooterWithoutJoinURL(t *testing.T) {
	adapter := &stubAdapter{response: core.TransportResponse{StatusCode: http.StatusOK}}
	notifier := newTestNotifier(t, adapter)

	meeting := core.MeetingInfo{Title: "Teams 會議", Time: core.TimeUnparsed}
	if err := notifier.PushMeetingNotice(context.Background(), "C123", meeting); err != nil {
		t.Fatalf("push meeting notice: %v", err)
	}
	var sent struct {
		Messages []flexMessage `json:"messages"`
	}
	if err := json.Unmarshal(adapter.lastRequest.Body, &sent); err != nil {
		t.Fatalf("decode push payload: %v", err)
	}
	if sent.Messages[0].Contents.Footer != nil {
		t.Fatalf("expected no footer without join url")
	}
}

func TestLINENotifier_PushRequiresTarget(t *testing.T) {
	notifier := newTestNotifier(t, &stubAdapter{response: core.TransportResponse{StatusCode: http.StatusOK}})
	if err := notifier.PushMeetingNotice(context.Background(), "", core.MeetingInfo{Title: "x"}); err == nil {
		t.Fatalf("expected error for blank push target")
	}
}

func TestLINENotifier_ThrottleHoldsCallsAfter429(t *testing.T) {
	adapter := &stubAdapter{response: core.TransportResponse{
		StatusCode: http.StatusTooManyRequests,
		Headers:    map[string]string{"Retry-After": "30"},
		Body:       []byte(`{"message":"Too many requests"}`),
	}}
	notifier := newTestNotifier(t, adapter)
	notifier.Throttle = ratelimit.NewAdaptivePolicy(ratelimit.NewMemoryStateStore())

	meeting := core.MeetingInfo{Title: "Weekly sync", Time: "2025-03-14 09:30"}
	if err := notifier.PushMeetingNotice(context.Background(), "C123", meeting); err == nil {
		t.Fatalf("expected failure on 429 response")
	}
	if err := notifier.PushMeetingNotice(context.Background(), "C123", meeting); err == nil {
		t.Fatalf("expected throttled error inside retry window")
	}
	if adapter.calls != 1 {
		t.Fatalf("expected second call held back from the api, got %d calls", adapter.calls)
	}
}

func newTestNotifier(t *testing.T, adapter core.TransportAdapter) *LINENotifier {
	t.Helper()
	notifier, err := NewLINENotifier(adapter, core.LineConfig{
		AccessToken: "channel-token",
		APIBaseURL:  "https://api.line.me",
	}, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	return notifier
}

type stubAdapter struct {
	response    core.TransportResponse
	err         error
	lastRequest core.TransportRequest
	calls       int
}

func (s *stubAdapter) Kind() string { return "stub" }

func (s *stubAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	s.lastRequest = req
	s.calls++
	if s.err != nil {
		return core.TransportResponse{}, s.err
	}
	return s.response, nil
}
