package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod_ZeroesEveryChannel(t *testing.T) {
	p := NewPeriod(Weekly, "2025-W31", "2025 W31")

	require.Len(t, p.Data, len(Channels))
	for _, ch := range Channels {
		assert.True(t, p.Data[ch].Equal(ChannelDatum{}), ch)
	}
	assert.Equal(t, PeriodKey{ID: "2025-W31", Granularity: Weekly}, p.Key())
}

func TestPeriod_CloneDoesNotShareData(t *testing.T) {
	p := NewPeriod(Monthly, "2025-07", "2025-07")
	c := p.Clone()

	c.Data[ChannelTrendyol] = ChannelDatum{Revenue: decimal.NewFromInt(5)}
	assert.True(t, p.Data[ChannelTrendyol].Revenue.IsZero())
}

func TestPeriod_Normalize(t *testing.T) {
	p := &Period{ID: "2025-07", Granularity: Monthly, Data: map[Channel]ChannelDatum{
		ChannelTrendyol: {Revenue: decimal.NewFromInt(10)},
	}}
	p.Normalize()

	require.Len(t, p.Data, 2)
	assert.True(t, p.Data[ChannelTrendyol].Revenue.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.Data[ChannelHepsiburada].Equal(ChannelDatum{}))
}

func TestChannelDatum_ScaleAndAdd(t *testing.T) {
	d := ChannelDatum{
		Revenue: decimal.RequireFromString("120.10"),
		Spend:   decimal.RequireFromString("0.3"),
		Units:   decimal.NewFromInt(4),
	}

	assert.True(t, d.Add(d.Scale(-1)).Equal(ChannelDatum{}))
	assert.True(t, d.Scale(1).Equal(d))
}

func TestParseChannelAndGranularity(t *testing.T) {
	ch, err := ParseChannel("Trendyol")
	require.NoError(t, err)
	assert.Equal(t, ChannelTrendyol, ch)

	_, err = ParseChannel("trendyol")
	assert.Error(t, err, "channel match is exact")

	g, err := ParseGranularity("Weekly")
	require.NoError(t, err)
	assert.Equal(t, Weekly, g)

	_, err = ParseGranularity("Daily")
	assert.Error(t, err)
}

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"-12000.50", true},
		{"0.0000000001", true},
		{"0.00000000001", false},
		{"1e-400000000", false},
		{"1e15", true},
		{"1e16", false},
		{"1e400000000", false},
		{"340282366920938463463374607431768211455", true},
		{"340282366920938463463374607431768211456", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := CheckAmount(decimal.RequireFromString(tt.in))
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
