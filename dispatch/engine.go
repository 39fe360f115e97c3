package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-chatbridge/command"
	"github.com/goliatone/go-chatbridge/core"
	"github.com/goliatone/go-chatbridge/events"
	"github.com/goliatone/go-chatbridge/language"
	"github.com/goliatone/go-chatbridge/ledger"
)

// Engine runs the per-call state machine: signature gate, normalization,
// ledger gate per event, side-effect commands, response decision. One engine
// serves both channels and is safe for concurrent dispatch; the ledger is the
// only shared state it touches.
type Engine struct {
	verifiers map[core.Channel]core.SignatureVerifier
	tokens    core.ReplyTokenLedger
	replyCmd  gocmd.Commander[command.ReplyTranslationMessage]
	noticeCmd gocmd.Commander[command.MeetingNoticeMessage]
	targetID  string
	logger    core.Logger
}

type EngineConfig struct {
	Verifiers  map[core.Channel]core.SignatureVerifier
	Ledger     core.ReplyTokenLedger
	Translator core.Translator
	Notifier   core.Notifier
	// TargetID receives the meeting notice push. Blank makes every Teams
	// meeting event a processing failure.
	TargetID string
	Logger   core.Logger
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Ledger == nil {
		return nil, dispatchInternal("dispatch: reply token ledger is required", nil)
	}
	if cfg.Translator == nil || cfg.Notifier == nil {
		return nil, dispatchInternal("dispatch: translator and notifier are required", nil)
	}
	verifiers := make(map[core.Channel]core.SignatureVerifier, len(cfg.Verifiers))
	for channel, verifier := range cfg.Verifiers {
		verifiers[core.NormalizeChannel(channel)] = verifier
	}
	return &Engine{
		verifiers: verifiers,
		tokens:    cfg.Ledger,
		replyCmd:  command.NewReplyTranslationCommand(cfg.Translator, cfg.Notifier),
		noticeCmd: command.NewMeetingNoticeCommand(cfg.Notifier),
		targetID:  strings.TrimSpace(cfg.TargetID),
		logger:    cfg.Logger,
	}, nil
}

// Dispatch consumes one inbound request and decides the HTTP response. Every
// per-event failure is isolated; the returned error is reserved for engine
// misconfiguration, never for payload or downstream trouble.
func (e *Engine) Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if e == nil {
		return core.InboundResult{}, dispatchInternal("dispatch: engine is nil", nil)
	}
	channel := core.NormalizeChannel(req.Channel)
	if !core.IsSupportedChannel(channel) {
		return core.InboundResult{}, dispatchBadInput(
			fmt.Sprintf("dispatch: unsupported channel %q", req.Channel),
			map[string]any{"request_id": req.RequestID},
		)
	}
	req.Channel = channel
	fields := map[string]any{
		"channel":    string(channel),
		"request_id": req.RequestID,
	}

	if result, rejected := e.checkSignature(ctx, req, fields); rejected {
		return result, nil
	}

	if channel == core.ChannelLine && len(bytes.TrimSpace(req.Body)) == 0 {
		core.LogInfo(ctx, e.logger, "dispatch: empty body treated as verification ping", fields)
		return okResult("OK", fields), nil
	}

	normalized, err := events.Normalize(req.Body, channel)
	if err != nil {
		if channel == core.ChannelLine {
			// Swallowed on purpose: a non-200 here makes the platform
			// redeliver the same broken payload indefinitely.
			core.LogWarn(ctx, e.logger, "dispatch: malformed body swallowed", withField(fields, "error", err.Error()))
			return okResult("OK", fields), nil
		}
		core.LogWarn(ctx, e.logger, "dispatch: malformed body rejected", withField(fields, "error", err.Error()))
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusBadRequest,
			Body:       "invalid payload",
			Metadata:   core.CloneFields(fields),
		}, nil
	}

	outcome := e.processEvents(ctx, normalized, fields)
	return e.decideResponse(ctx, channel, outcome, fields), nil
}

type batchOutcome struct {
	processed  int
	ignored    int
	deduped    int
	synthetic  int
	failures   []string
	teamsFatal bool
}

func (e *Engine) processEvents(
	ctx context.Context,
	normalized []core.Event,
	fields map[string]any,
) batchOutcome {
	outcome := batchOutcome{}
	for _, event := range normalized {
		switch typed := event.(type) {
		case core.TextMessageEvent:
			e.processTextMessage(ctx, typed, fields, &outcome)
		case core.MeetingReferenceEvent:
			e.processMeetingReference(ctx, typed, fields, &outcome)
		case core.IgnoredEvent:
			outcome.ignored++
			core.LogInfo(ctx, e.logger, "dispatch: event ignored", withField(fields, "reason", typed.Reason))
		default:
			outcome.ignored++
			core.LogWarn(ctx, e.logger, "dispatch: unknown event kind ignored", withField(fields, "kind", string(event.Kind())))
		}
	}
	return outcome
}

func (e *Engine) processTextMessage(
	ctx context.Context,
	event core.TextMessageEvent,
	fields map[string]any,
	outcome *batchOutcome,
) {
	if event.IsRedelivery {
		// Observed only. Dedup stays token-based.
		core.LogInfo(ctx, e.logger, "dispatch: redelivered event received", fields)
	}
	token := event.ReplyToken
	if ledger.IsSyntheticToken(token) {
		outcome.synthetic++
		core.LogInfo(ctx, e.logger, "dispatch: synthetic token skipped", fields)
		return
	}

	consumed, err := e.tokens.IsConsumed(ctx, token)
	if err != nil {
		outcome.failures = append(outcome.failures, err.Error())
		core.LogError(ctx, e.logger, "dispatch: ledger lookup failed", withField(fields, "error", err.Error()))
		return
	}
	if consumed {
		outcome.deduped++
		core.LogInfo(ctx, e.logger, "dispatch: token already consumed", fields)
		return
	}
	claimed, err := e.tokens.TryConsume(ctx, token)
	if err != nil {
		outcome.failures = append(outcome.failures, err.Error())
		core.LogError(ctx, e.logger, "dispatch: ledger claim failed", withField(fields, "error", err.Error()))
		return
	}
	if !claimed {
		outcome.deduped++
		core.LogInfo(ctx, e.logger, "dispatch: token claimed by concurrent call", fields)
		return
	}

	msg := command.ReplyTranslationMessage{
		ReplyToken: token,
		Text:       event.Text,
		Direction:  language.SelectDirection(event.Text),
	}
	if err := e.replyCmd.Execute(ctx, msg); err != nil {
		// Token stays consumed. A failed reply is lost, never retried.
		outcome.failures = append(outcome.failures, err.Error())
		core.LogError(ctx, e.logger, "dispatch: reply command failed", withField(fields, "error", err.Error()))
		return
	}
	outcome.processed++
}

func (e *Engine) processMeetingReference(
	ctx context.Context,
	event core.MeetingReferenceEvent,
	fields map[string]any,
	outcome *batchOutcome,
) {
	if e.targetID == "" {
		outcome.failures = append(outcome.failures, "push target id is not configured")
		outcome.teamsFatal = true
		core.LogError(ctx, e.logger, "dispatch: push target id is not configured", fields)
		return
	}
	msg := command.MeetingNoticeMessage{
		TargetID: e.targetID,
		Meeting:  event.Meeting,
	}
	if err := e.noticeCmd.Execute(ctx, msg); err != nil {
		outcome.failures = append(outcome.failures, err.Error())
		outcome.teamsFatal = true
		core.LogError(ctx, e.logger, "dispatch: meeting notice command failed", withField(fields, "error", err.Error()))
		return
	}
	outcome.processed++
	core.LogInfo(ctx, e.logger, "dispatch: meeting notice pushed", withField(fields, "meeting_title", event.Meeting.Title))
}

func (e *Engine) decideResponse(
	ctx context.Context,
	channel core.Channel,
	outcome batchOutcome,
	fields map[string]any,
) core.InboundResult {
	metadata := core.CloneFields(fields)
	metadata["processed"] = outcome.processed
	metadata["ignored"] = outcome.ignored
	metadata["deduped"] = outcome.deduped
	metadata["synthetic"] = outcome.synthetic
	metadata["failures"] = len(outcome.failures)
	core.LogInfo(ctx, e.logger, "dispatch: batch complete", metadata)

	if channel == core.ChannelTeams {
		if outcome.teamsFatal {
			detail := "meeting notice failed"
			if len(outcome.failures) > 0 {
				detail = outcome.failures[len(outcome.failures)-1]
			}
			return core.InboundResult{
				Accepted:   false,
				StatusCode: http.StatusInternalServerError,
				Body:       detail,
				Metadata:   metadata,
			}
		}
		if outcome.processed == 0 {
			return core.InboundResult{
				Accepted:   true,
				StatusCode: http.StatusNoContent,
				Body:       "ignored",
				Metadata:   metadata,
			}
		}
	}
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Body:       "OK",
		Metadata:   metadata,
	}
}

func (e *Engine) checkSignature(
	ctx context.Context,
	req core.InboundRequest,
	fields map[string]any,
) (core.InboundResult, bool) {
	verifier := e.verifiers[core.NormalizeChannel(req.Channel)]
	if verifier == nil {
		core.LogError(ctx, e.logger, "dispatch: no verifier configured for channel", fields)
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusInternalServerError,
			Body:       "verifier not configured",
			Metadata:   core.CloneFields(fields),
		}, true
	}
	verdict := verifier.Verify(ctx, req)
	switch verdict {
	case core.SignatureValid:
		return core.InboundResult{}, false
	case core.SignatureSkippedByConfig:
		core.LogWarn(ctx, e.logger, "dispatch: signature verification skipped by config", fields)
		return core.InboundResult{}, false
	}

	status := http.StatusBadRequest
	if req.Channel == core.ChannelTeams && verdict == core.SignatureInvalid {
		status = http.StatusUnauthorized
	}
	core.LogWarn(ctx, e.logger, "dispatch: request rejected by signature gate",
		withField(fields, "verdict", string(verdict)))
	return core.InboundResult{
		Accepted:   false,
		StatusCode: status,
		Body:       "signature verification failed",
		Metadata:   core.CloneFields(fields),
	}, true
}

func okResult(body string, fields map[string]any) core.InboundResult {
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Body:       body,
		Metadata:   core.CloneFields(fields),
	}
}

func withField(fields map[string]any, key string, value any) map[string]any {
	merged := core.CloneFields(fields)
	merged[key] = value
	return merged
}
