package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Granularity string

const (
	Monthly Granularity = "Monthly"
	Weekly  Granularity = "Weekly"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Monthly:
		return Monthly, nil
	case Weekly:
		return Weekly, nil
	default:
		return "", fmt.Errorf("unknown granularity %q, must be Monthly or Weekly", s)
	}
}

const (
	// MaxAmountScale is the most decimal places an input amount may carry.
	MaxAmountScale    = 10
	maxAmountExponent = 15
	maxAmountBits     = 128
)

// CheckAmount rejects input amounts whose exponent or coefficient would make
// adding them to a running total rescale into an enormous integer.
func CheckAmount(d decimal.Decimal) error {
	switch {
	case d.Exponent() < -MaxAmountScale:
		return fmt.Errorf("more than %d decimal places", MaxAmountScale)
	case d.Exponent() > maxAmountExponent, d.Coefficient().BitLen() > maxAmountBits:
		return fmt.Errorf("magnitude out of range")
	}
	return nil
}

// ChannelDatum is the running total of one channel inside one period.
// Values may go negative after reversals; they are never clamped.
type ChannelDatum struct {
	Revenue decimal.Decimal `json:"revenue"`
	Spend   decimal.Decimal `json:"spend"`
	Units   decimal.Decimal `json:"units"`
}

// Scale returns d multiplied by sign.
func (d ChannelDatum) Scale(sign int64) ChannelDatum {
	s := decimal.NewFromInt(sign)
	return ChannelDatum{
		Revenue: d.Revenue.Mul(s),
		Spend:   d.Spend.Mul(s),
		Units:   d.Units.Mul(s),
	}
}

func (d ChannelDatum) Add(o ChannelDatum) ChannelDatum {
	return ChannelDatum{
		Revenue: d.Revenue.Add(o.Revenue),
		Spend:   d.Spend.Add(o.Spend),
		Units:   d.Units.Add(o.Units),
	}
}

// Equal compares numerically, ignoring exponent differences.
func (d ChannelDatum) Equal(o ChannelDatum) bool {
	return d.Revenue.Equal(o.Revenue) && d.Spend.Equal(o.Spend) && d.Units.Equal(o.Units)
}

// PeriodKey is the identity of a Period.
type PeriodKey struct {
	ID          string
	Granularity Granularity
}

func (k PeriodKey) String() string {
	return string(k.Granularity) + "/" + k.ID
}

type Period struct {
	ID          string                   `json:"id"`
	Label       string                   `json:"label"`
	Granularity Granularity              `json:"granularity"`
	Data        map[Channel]ChannelDatum `json:"data"`
}

// NewPeriod returns a period with a zero datum for every channel.
func NewPeriod(g Granularity, id, label string) *Period {
	data := make(map[Channel]ChannelDatum, len(Channels))
	for _, ch := range Channels {
		data[ch] = ChannelDatum{}
	}
	return &Period{ID: id, Label: label, Granularity: g, Data: data}
}

func (p *Period) Key() PeriodKey {
	return PeriodKey{ID: p.ID, Granularity: p.Granularity}
}

// Clone deep-copies the period so callers never share the data map.
func (p *Period) Clone() Period {
	data := make(map[Channel]ChannelDatum, len(p.Data))
	for ch, d := range p.Data {
		data[ch] = d
	}
	return Period{ID: p.ID, Label: p.Label, Granularity: p.Granularity, Data: data}
}

// Normalize fills missing channels with zero data, as stored rows may predate a channel.
func (p *Period) Normalize() {
	if p.Data == nil {
		p.Data = make(map[Channel]ChannelDatum, len(Channels))
	}
	for _, ch := range Channels {
		if _, ok := p.Data[ch]; !ok {
			p.Data[ch] = ChannelDatum{}
		}
	}
}
