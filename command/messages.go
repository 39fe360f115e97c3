package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-chatbridge/core"
)

const (
	TypeReplyTranslation = "chatbridge.command.reply.translation"
	TypeMeetingNotice    = "chatbridge.command.meeting.notice"
)

type ReplyTranslationMessage struct {
	ReplyToken string
	Text       string
	Direction  core.Direction
}

func (ReplyTranslationMessage) Type() string { return TypeReplyTranslation }

func (m ReplyTranslationMessage) Validate() error {
	if strings.TrimSpace(m.ReplyToken) == "" {
		return fmt.Errorf("command: reply token is required")
	}
	if strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("command: message text is required")
	}
	switch m.Direction {
	case core.DirectionChineseToEnglish, core.DirectionEnglishToChinese:
	default:
		return fmt.Errorf("command: unsupported translation direction %q", m.Direction)
	}
	return nil
}

type MeetingNoticeMessage struct {
	TargetID string
	Meeting  core.MeetingInfo
}

func (MeetingNoticeMessage) Type() string { return TypeMeetingNotice }

func (m MeetingNoticeMessage) Validate() error {
	if strings.TrimSpace(m.TargetID) == "" {
		return fmt.Errorf("command: push target id is required")
	}
	if strings.TrimSpace(m.Meeting.Title) == "" {
		return fmt.Errorf("command: meeting title is required")
	}
	return nil
}
