package command

import (
	"context"

	"github.com/goliatone/go-chatbridge/core"
)

// ReplyTranslationCommand translates the inbound text along the selected
// direction and spends the reply token on the result. The translator already
// degrades failures to a fallback string, so Execute only fails when the
// reply delivery itself fails.
type ReplyTranslationCommand struct {
	translator core.Translator
	notifier   core.Notifier
}

func NewReplyTranslationCommand(translator core.Translator, notifier core.Notifier) *ReplyTranslationCommand {
	return &ReplyTranslationCommand{translator: translator, notifier: notifier}
}

func (c *ReplyTranslationCommand) Execute(ctx context.Context, msg ReplyTranslationMessage) error {
	if c == nil || c.translator == nil || c.notifier == nil {
		return commandDependencyError("command: translator and notifier are required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	translated, err := c.translator.Translate(ctx, msg.Text, msg.Direction)
	if err != nil {
		return commandWrapDownstream(err, "command: translation failed")
	}
	if err := c.notifier.Reply(ctx, msg.ReplyToken, translated); err != nil {
		return commandWrapDownstream(err, "command: reply delivery failed")
	}
	return nil
}

// MeetingNoticeCommand pushes a meeting card to the configured group target.
type MeetingNoticeCommand struct {
	notifier core.Notifier
}

func NewMeetingNoticeCommand(notifier core.Notifier) *MeetingNoticeCommand {
	return &MeetingNoticeCommand{notifier: notifier}
}

func (c *MeetingNoticeCommand) Execute(ctx context.Context, msg MeetingNoticeMessage) error {
	if c == nil || c.notifier == nil {
		return commandDependencyError("command: notifier is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	if err := c.notifier.PushMeetingNotice(ctx, msg.TargetID, msg.Meeting); err != nil {
		return commandWrapDownstream(err, "command: meeting notice delivery failed")
	}
	return nil
}
