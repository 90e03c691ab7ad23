package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ChannelMetrics holds the derived values of one channel in one period.
// A field with Valid == false means there is no value, which is not the same as zero.
type ChannelMetrics struct {
	ROAS          decimal.NullDecimal `json:"roas"`
	RevenueChange decimal.NullDecimal `json:"revenue_change_pct"`
	SpendChange   decimal.NullDecimal `json:"spend_change_pct"`
	UnitsChange   decimal.NullDecimal `json:"units_change_pct"`
	ROASChange    decimal.NullDecimal `json:"roas_change_pct"`
}

type PeriodMetrics struct {
	ID          string                     `json:"id"`
	Label       string                     `json:"label"`
	Granularity Granularity                `json:"granularity"`
	Data        map[Channel]ChannelDatum   `json:"data"`
	Metrics     map[Channel]ChannelMetrics `json:"metrics"`
}

// PeriodTotals sums every channel of one period.
type PeriodTotals struct {
	ID      string          `json:"id"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Spend   decimal.Decimal `json:"spend"`
	Units   decimal.Decimal `json:"units"`
}

type SeriesField string

const (
	FieldRevenue SeriesField = "revenue"
	FieldSpend   SeriesField = "spend"
	FieldUnits   SeriesField = "units"
	FieldROAS    SeriesField = "roas"
)

// SeriesPoint is one chart point: a period label and a value per channel.
type SeriesPoint struct {
	Period string                          `json:"period"`
	Values map[Channel]decimal.NullDecimal `json:"values"`
}

func ParseSeriesField(s string) (SeriesField, error) {
	switch f := SeriesField(s); f {
	case FieldRevenue, FieldSpend, FieldUnits, FieldROAS:
		return f, nil
	default:
		return "", fmt.Errorf("unknown series field %q", s)
	}
}
