package events

import (
	"testing"

	"github.com/goliatone/go-chatbridge/core"
)

func TestNormalizeLine_TextMessageEvent(t *testing.T) {
	body := []byte(`{
		"destination": "U000",
		"events": [
			{
				"type": "message",
				"replyToken": "token-1",
				"message": {"type": "text", "id": "m1", "text": "hello"},
				"source": {"type": "group", "groupId": "g1"},
				"deliveryContext": {"isRedelivery": true}
			}
		]
	}`)

	normalized, err := NormalizeLine(body)
	if err != nil {
		t.Fatalf("normalize line body: %v", err)
	}
	if len(normalized) != 1 {
		t.Fatalf("expected one event, got %d", len(normalized))
	}
	event, ok := normalized[0].(core.TextMessageEvent)
	if !ok {
		t.Fatalf("expected text message event, got %T", normalized[0])
	}
	if event.ReplyToken != "token-1" {
		t.Fatalf("expected reply token token-1, got %q", event.ReplyToken)
	}
	if event.Text != "hello" {
		t.Fatalf("expected text hello, got %q", event.Text)
	}
	if event.Source != core.SourceTypeGroup {
		t.Fatalf("expected group source, got %q", event.Source)
	}
	if !event.IsRedelivery {
		t.Fatalf("expected redelivery flag to carry through")
	}
}

func TestNormalizeLine_EmptyEventsIsVerificationPing(t *testing.T) {
	normalized, err := NormalizeLine([]byte(`{"events":[]}`))
	if err != nil {
		t.Fatalf("normalize empty events: %v", err)
	}
	if len(normalized) != 0 {
		t.Fatalf("expected zero events, got %d", len(normalized))
	}
}

func TestNormalizeLine_MissingEventsKey(t *testing.T) {
	normalized, err := NormalizeLine([]byte(`{"destination":"U000"}`))
	if err != nil {
		t.Fatalf("normalize body without events: %v", err)
	}
	if len(normalized) != 0 {
		t.Fatalf("expected zero events, got %d", len(normalized))
	}
}

func TestNormalizeLine_MalformedJSON(t *testing.T) {
	if _, err := NormalizeLine([]byte(`{"events": [`)); err == nil {
		t.Fatalf("expected parse error for malformed body")
	}
}

func TestNormalizeLine_DegradedEventsBecomeIgnored(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			name: "non message event",
			body: `{"events":[{"type":"follow","replyToken":"t","source":{"type":"user"}}]}`,
		},
		{
			name: "sticker message",
			body: `{"events":[{"type":"message","replyToken":"t","message":{"type":"sticker"},"source":{"type":"user"}}]}`,
		},
		{
			name: "missing reply token",
			body: `{"events":[{"type":"message","message":{"type":"text","text":"hi"},"source":{"type":"user"}}]}`,
		},
		{
			name: "missing text",
			body: `{"events":[{"type":"message","replyToken":"t","message":{"type":"text"},"source":{"type":"user"}}]}`,
		},
		{
			name: "missing source",
			body: `{"events":[{"type":"message","replyToken":"t","message":{"type":"text","text":"hi"}}]}`,
		},
		{
			name: "unknown source type",
			body: `{"events":[{"type":"message","replyToken":"t","message":{"type":"text","text":"hi"},"source":{"type":"bot"}}]}`,
		},
	}

	for _, tc := range cases {
		normalized, err := NormalizeLine([]byte(tc.body))
		if err != nil {
			t.Fatalf("%s: unexpected parse error: %v", tc.name, err)
		}
		if len(normalized) != 1 {
			t.Fatalf("%s: expected one event, got %d", tc.name, len(normalized))
		}
		if _, ok := normalized[0].(core.IgnoredEvent); !ok {
			t.Fatalf("%s: expected ignored event, got %T", tc.name, normalized[0])
		}
	}
}

func TestNormalizeLine_MixedBatchKeepsSiblings(t *testing.T) {
	body := []byte(`{"events":[
		{"type":"follow"},
		{"type":"message","replyToken":"t1","message":{"type":"text","text":"hi"},"source":{"type":"user"}},
		{"type":"message","replyToken":"t2","message":{"type":"image"},"source":{"type":"user"}}
	]}`)

	normalized, err := NormalizeLine(body)
	if err != nil {
		t.Fatalf("normalize mixed batch: %v", err)
	}
	if len(normalized) != 3 {
		t.Fatalf("expected three events, got %d", len(normalized))
	}
	if _, ok := normalized[0].(core.IgnoredEvent); !ok {
		t.Fatalf("expected first event ignored, got %T", normalized[0])
	}
	if _, ok := normalized[1].(core.TextMessageEvent); !ok {
		t.Fatalf("expected second event text message, got %T", normalized[1])
	}
	if _, ok := normalized[2].(core.IgnoredEvent); !ok {
		t.Fatalf("expected third event ignored, got %T", normalized[2])
	}
}
