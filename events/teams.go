package events

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-chatbridge/core"
)

const defaultMeetingTitle = "Teams 會議"

var meetingTimePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}`)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

type teamsWebhookBody struct {
	MessageType string            `json:"messageType"`
	Attachments []teamsAttachment `json:"attachments"`
	Body        *teamsMessageBody `json:"body"`
}

type teamsAttachment struct {
	ContentType string `json:"contentType"`
	Name        string `json:"name"`
	Content     string `json:"content"`
}

type teamsMessageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// NormalizeTeams parses a Teams webhook payload. It yields exactly one event:
// a MeetingReferenceEvent when the payload is a message carrying a
// meetingReference attachment, an IgnoredEvent otherwise.
func NormalizeTeams(rawBody []byte) ([]core.Event, error) {
	var body teamsWebhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, fmt.Errorf("events: parse teams webhook body: %w", err)
	}

	if body.MessageType != "message" {
		return []core.Event{core.IgnoredEvent{
			Reason: fmt.Sprintf("not a message: %q", body.MessageType),
		}}, nil
	}
	hasMeetingReference := false
	for _, attachment := range body.Attachments {
		if attachment.ContentType == "meetingReference" {
			hasMeetingReference = true
			break
		}
	}
	if !hasMeetingReference {
		return []core.Event{core.IgnoredEvent{Reason: "no meeting reference"}}, nil
	}

	rawHTML := ""
	if body.Body != nil {
		rawHTML = body.Body.Content
	}
	event := core.MeetingReferenceEvent{
		RawHTMLBody: rawHTML,
		Meeting:     extractMeetingInfo(body.Attachments, rawHTML),
	}
	event.Title = event.Meeting.Title
	event.JoinURL = event.Meeting.JoinURL
	return []core.Event{event}, nil
}

// ExtractMeetingTime locates the first yyyy-mm-dd HH:MM timestamp in the
// visible text of an HTML fragment. Best effort: absence yields the
// TimeUnparsed sentinel.
func ExtractMeetingTime(rawHTML string) string {
	text := stripHTMLTags(rawHTML)
	if match := meetingTimePattern.FindString(text); match != "" {
		return match
	}
	return core.TimeUnparsed
}

func extractMeetingInfo(attachments []teamsAttachment, rawHTML string) core.MeetingInfo {
	info := core.MeetingInfo{
		Title: defaultMeetingTitle,
		Time:  ExtractMeetingTime(rawHTML),
	}
	if len(attachments) == 0 {
		return info
	}

	first := attachments[0]
	if title := strings.TrimSpace(first.Name); title != "" {
		info.Title = title
	}
	// The attachment content is itself a JSON document; a broken one
	// degrades to an empty join url, never a failed event.
	var content struct {
		MeetingJoinURL string `json:"meetingJoinUrl"`
	}
	if err := json.Unmarshal([]byte(first.Content), &content); err == nil {
		info.JoinURL = strings.TrimSpace(content.MeetingJoinURL)
	}
	return info
}

func stripHTMLTags(rawHTML string) string {
	text := htmlTagPattern.ReplaceAllString(rawHTML, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	return strings.Join(strings.Fields(text), " ")
}
