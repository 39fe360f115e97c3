package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-chatbridge/core"
	"github.com/goliatone/go-chatbridge/ratelimit"
	goerrors "github.com/goliatone/go-errors"
)

const replyPath = "/v2/bot/message/reply"
const pushPath = "/v2/bot/message/push"

const defaultNotifyTimeout = 10 * time.Second

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string `json:"replyToken"`
	Messages   []any  `json:"messages"`
}

type pushRequest struct {
	To       string `json:"to"`
	Messages []any  `json:"messages"`
}

// LINENotifier delivers outbound messages through the LINE Messaging API with
// channel-token bearer auth.
type LINENotifier struct {
	adapter     core.TransportAdapter
	accessToken string
	baseURL     string
	timeout     time.Duration
	logger      core.Logger

	// Throttle, when set, holds calls back while the messaging API reports a
	// rate-limit window. Optional.
	Throttle *ratelimit.AdaptivePolicy
}

func NewLINENotifier(adapter core.TransportAdapter, cfg core.LineConfig, logger core.Logger) (*LINENotifier, error) {
	if adapter == nil {
		return nil, notifyInternal("notify: transport adapter is required")
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, notifyBadInput("notify: line access token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.line.me"
	}
	return &LINENotifier{
		adapter:     adapter,
		accessToken: strings.TrimSpace(cfg.AccessToken),
		baseURL:     baseURL,
		timeout:     defaultNotifyTimeout,
		logger:      logger,
	}, nil
}

// Reply spends the one-time token on a single text message.
func (n *LINENotifier) Reply(ctx context.Context, replyToken string, text string) error {
	if n == nil || n.adapter == nil {
		return notifyInternal("notify: notifier is not configured")
	}
	if strings.TrimSpace(replyToken) == "" {
		return notifyBadInput("notify: reply token is required")
	}
	payload := replyRequest{
		ReplyToken: replyToken,
		Messages:   []any{textMessage{Type: "text", Text: text}},
	}
	return n.post(ctx, replyPath, "reply", payload)
}

// PushMeetingNotice sends the rendered flex card to the group target.
func (n *LINENotifier) PushMeetingNotice(ctx context.Context, targetID string, meeting core.MeetingInfo) error {
	if n == nil || n.adapter == nil {
		return notifyInternal("notify: notifier is not configured")
	}
	if strings.TrimSpace(targetID) == "" {
		return notifyBadInput("notify: push target id is required")
	}
	payload := pushRequest{
		To:       strings.TrimSpace(targetID),
		Messages: []any{buildMeetingFlexMessage(meeting)},
	}
	return n.post(ctx, pushPath, "push", payload)
}

func (n *LINENotifier) post(ctx context.Context, path string, bucket string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return notifyWrapError(err, goerrors.CategoryInternal, "notify: encode message payload", http.StatusInternalServerError)
	}

	key := ratelimit.Key{Service: "line", Bucket: bucket}
	if err := n.Throttle.BeforeCall(ctx, key); err != nil {
		var throttled ratelimit.ThrottledError
		if errors.As(err, &throttled) {
			return throttled.ToBridgeError()
		}
		core.LogWarn(ctx, n.logger, "notify: throttle state read failed", map[string]any{"error": err.Error()})
	}

	res, err := n.adapter.Do(ctx, core.TransportRequest{
		Method: http.MethodPost,
		URL:    n.baseURL + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + n.accessToken,
			"Content-Type":  "application/json",
		},
		Body:    body,
		Timeout: n.timeout,
	})
	if err != nil {
		return notifyWrapError(err, goerrors.CategoryExternal, "notify: messaging api call failed", http.StatusBadGateway)
	}
	if err := n.Throttle.AfterCall(ctx, key, ratelimit.ResponseMeta{
		StatusCode: res.StatusCode,
		Headers:    res.Headers,
	}); err != nil {
		core.LogWarn(ctx, n.logger, "notify: throttle state update failed", map[string]any{"error": err.Error()})
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return notifyError(
			fmt.Sprintf("notify: messaging api returned %d: %s", res.StatusCode, truncateForLog(res.Body)),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
		)
	}
	return nil
}

func truncateForLog(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return fmt.Sprintf("%s... (%d bytes)", body[:limit], len(body))
}

var _ core.Notifier = (*LINENotifier)(nil)
