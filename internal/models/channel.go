package models

import "fmt"

// Channel is one of the fixed sales outlets tracked by the dashboard.
type Channel string

const (
	ChannelTrendyol    Channel = "Trendyol"
	ChannelHepsiburada Channel = "Hepsiburada"
)

// Channels lists every tracked channel in display order.
var Channels = []Channel{ChannelTrendyol, ChannelHepsiburada}

// ParseChannel matches name exactly against the known channels.
func ParseChannel(name string) (Channel, error) {
	for _, ch := range Channels {
		if string(ch) == name {
			return ch, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q", name)
}

func (c Channel) Valid() bool {
	_, err := ParseChannel(string(c))
	return err == nil
}
