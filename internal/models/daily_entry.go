package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyEntry is one immutable contribution for a single day and channel.
// Changing a value means deleting the entry and adding a new one.
type DailyEntry struct {
	ID      string          `json:"id"`
	Date    string          `json:"date"`
	Channel Channel         `json:"channel"`
	Revenue decimal.Decimal `json:"revenue"`
	Spend   decimal.Decimal `json:"spend"`
	Units   decimal.Decimal `json:"units"`
}

func (e DailyEntry) Datum() ChannelDatum {
	return ChannelDatum{Revenue: e.Revenue, Spend: e.Spend, Units: e.Units}
}

func (e DailyEntry) Day() (time.Time, error) {
	return ParseDate(e.Date)
}
