package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-chatbridge/core"
)

type lineWebhookBody struct {
	Destination string          `json:"destination"`
	Events      []lineRawEvent  `json:"events"`
}

type lineRawEvent struct {
	Type            string               `json:"type"`
	ReplyToken      string               `json:"replyToken"`
	Message         *lineRawMessage      `json:"message"`
	Source          *lineRawSource       `json:"source"`
	DeliveryContext *lineDeliveryContext `json:"deliveryContext"`
}

type lineRawMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

type lineRawSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	RoomID  string `json:"roomId"`
}

type lineDeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// NormalizeLine parses a LINE webhook body into typed events. An empty or
// absent events array is the platform's verification ping and yields a zero
// length sequence, not an error.
func NormalizeLine(rawBody []byte) ([]core.Event, error) {
	var body lineWebhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, fmt.Errorf("events: parse line webhook body: %w", err)
	}

	normalized := make([]core.Event, 0, len(body.Events))
	for _, raw := range body.Events {
		normalized = append(normalized, normalizeLineEvent(raw))
	}
	return normalized, nil
}

func normalizeLineEvent(raw lineRawEvent) core.Event {
	if raw.Type != "message" {
		return core.IgnoredEvent{Reason: fmt.Sprintf("unsupported event type %q", raw.Type)}
	}
	if raw.Message == nil || raw.Message.Type != "text" {
		messageType := ""
		if raw.Message != nil {
			messageType = raw.Message.Type
		}
		return core.IgnoredEvent{Reason: fmt.Sprintf("unsupported message type %q", messageType)}
	}
	if strings.TrimSpace(raw.ReplyToken) == "" {
		return core.IgnoredEvent{Reason: "missing reply token"}
	}
	if strings.TrimSpace(raw.Message.Text) == "" {
		return core.IgnoredEvent{Reason: "missing message text"}
	}
	source, ok := normalizeLineSource(raw.Source)
	if !ok {
		return core.IgnoredEvent{Reason: "missing source type"}
	}

	event := core.TextMessageEvent{
		ReplyToken: strings.TrimSpace(raw.ReplyToken),
		Text:       raw.Message.Text,
		Source:     source,
	}
	if raw.DeliveryContext != nil {
		event.IsRedelivery = raw.DeliveryContext.IsRedelivery
	}
	return event
}

func normalizeLineSource(raw *lineRawSource) (core.SourceType, bool) {
	if raw == nil {
		return "", false
	}
	switch strings.TrimSpace(strings.ToLower(raw.Type)) {
	case "user":
		return core.SourceTypeUser, true
	case "group":
		return core.SourceTypeGroup, true
	case "room":
		return core.SourceTypeRoom, true
	default:
		return "", false
	}
}
