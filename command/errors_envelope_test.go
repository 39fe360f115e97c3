package command

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-chatbridge/core"
)

func TestReplyTranslationCommand_NilDependenciesReturnRichError(t *testing.T) {
	var cmd *ReplyTranslationCommand
	err := cmd.Execute(context.Background(), ReplyTranslationMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.BridgeErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.BridgeErrorInternal, rich.TextCode)
	}
}

func TestReplyTranslationCommand_InvalidMessageReturnsRichError(t *testing.T) {
	cmd := NewReplyTranslationCommand(&stubTranslator{}, &stubNotifier{})
	err := cmd.Execute(context.Background(), ReplyTranslationMessage{})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %q", rich.Category)
	}
	if rich.TextCode != core.BridgeErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.BridgeErrorBadInput, rich.TextCode)
	}
}

func TestMeetingNoticeCommand_NilNotifierReturnsRichError(t *testing.T) {
	var cmd *MeetingNoticeCommand
	err := cmd.Execute(context.Background(), MeetingNoticeMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
