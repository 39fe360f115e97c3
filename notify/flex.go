package notify

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-chatbridge/core"
)

type flexText struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Weight string `json:"weight,omitempty"`
	Size   string `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
}

type flexURIAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

type flexButton struct {
	Type   string        `json:"type"`
	Style  string        `json:"style"`
	Action flexURIAction `json:"action"`
}

type flexBox struct {
	Type     string `json:"type"`
	Layout   string `json:"layout"`
	Contents []any  `json:"contents"`
}

type flexBubble struct {
	Type   string   `json:"type"`
	Body   flexBox  `json:"body"`
	Footer *flexBox `json:"footer,omitempty"`
}

type flexMessage struct {
	Type     string     `json:"type"`
	AltText  string     `json:"altText"`
	Contents flexBubble `json:"contents"`
}

// buildMeetingFlexMessage renders the meeting card: bold title, a dim time
// line, and a join button only when a join url was extracted.
func buildMeetingFlexMessage(meeting core.MeetingInfo) flexMessage {
	bubble := flexBubble{
		Type: "bubble",
		Body: flexBox{
			Type:   "box",
			Layout: "vertical",
			Contents: []any{
				flexText{Type: "text", Text: meeting.Title, Weight: "bold", Size: "xl"},
				flexText{Type: "text", Text: "時間：" + meeting.Time, Size: "sm", Color: "#666666"},
			},
		},
	}
	if strings.TrimSpace(meeting.JoinURL) != "" {
		bubble.Footer = &flexBox{
			Type:   "box",
			Layout: "vertical",
			Contents: []any{
				flexButton{
					Type:  "button",
					Style: "primary",
					Action: flexURIAction{
						Type:  "uri",
						Label: "加入 Teams 會議",
						URI:   meeting.JoinURL,
					},
				},
			},
		}
	}
	return flexMessage{
		Type:     "flex",
		AltText:  fmt.Sprintf("會議通知：%s %s", meeting.Title, meeting.Time),
		Contents: bubble,
	}
}
