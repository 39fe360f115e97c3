package events

import (
	"fmt"

	"github.com/goliatone/go-chatbridge/core"
)

// Normalize maps a raw webhook body to typed events for the given channel.
func Normalize(rawBody []byte, channel core.Channel) ([]core.Event, error) {
	switch core.NormalizeChannel(channel) {
	case core.ChannelLine:
		return NormalizeLine(rawBody)
	case core.ChannelTeams:
		return NormalizeTeams(rawBody)
	default:
		return nil, fmt.Errorf("events: unsupported channel %q", channel)
	}
}
