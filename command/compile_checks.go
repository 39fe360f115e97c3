package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ReplyTranslationMessage] = (*ReplyTranslationCommand)(nil)
	_ gocmd.Commander[MeetingNoticeMessage]    = (*MeetingNoticeCommand)(nil)
)
