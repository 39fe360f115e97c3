package core

import "strings"

// Channel identifies the upstream platform that originated an inbound call.
type Channel string

const (
	ChannelLine  Channel = "line"
	ChannelTeams Channel = "teams"
)

func NormalizeChannel(channel Channel) Channel {
	return Channel(strings.TrimSpace(strings.ToLower(string(channel))))
}

func IsSupportedChannel(channel Channel) bool {
	switch NormalizeChannel(channel) {
	case ChannelLine, ChannelTeams:
		return true
	default:
		return false
	}
}

// SignatureVerdict is the outcome of authenticating an inbound request body.
// It is derived per call and never persisted.
type SignatureVerdict string

const (
	SignatureValid           SignatureVerdict = "valid"
	SignatureMissing         SignatureVerdict = "missing"
	SignatureInvalid         SignatureVerdict = "invalid"
	SignatureSkippedByConfig SignatureVerdict = "skipped_by_config"
)

// Direction selects which way a text payload is translated. It is derived per
// message and never persisted.
type Direction string

const (
	DirectionChineseToEnglish Direction = "zh_to_en"
	DirectionEnglishToChinese Direction = "en_to_zh"
)

type EventKind string

const (
	EventKindTextMessage      EventKind = "text_message"
	EventKindMeetingReference EventKind = "meeting_reference"
	EventKindIgnored          EventKind = "ignored"
)

// Event is the closed set of shapes normalization can produce. Every raw
// webhook event maps to exactly one variant; malformed events become
// IgnoredEvent instead of failing the batch.
type Event interface {
	Kind() EventKind
}

type SourceType string

const (
	SourceTypeUser  SourceType = "user"
	SourceTypeGroup SourceType = "group"
	SourceTypeRoom  SourceType = "room"
)

type TextMessageEvent struct {
	ReplyToken   string
	Text         string
	Source       SourceType
	IsRedelivery bool
}

func (TextMessageEvent) Kind() EventKind { return EventKindTextMessage }

// MeetingInfo is the rendered summary extracted from a Teams meeting payload.
// Time carries the sentinel TimeUnparsed when no timestamp could be located.
type MeetingInfo struct {
	Title   string
	Time    string
	JoinURL string
}

// TimeUnparsed is the user-visible sentinel for a meeting time that could not
// be extracted from the HTML body.
const TimeUnparsed = "時間未解析"

type MeetingReferenceEvent struct {
	Title       string
	RawHTMLBody string
	JoinURL     string
	Meeting     MeetingInfo
}

func (MeetingReferenceEvent) Kind() EventKind { return EventKindMeetingReference }

type IgnoredEvent struct {
	Reason string
}

func (IgnoredEvent) Kind() EventKind { return EventKindIgnored }
