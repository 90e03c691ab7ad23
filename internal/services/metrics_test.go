package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func some(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func TestROAS(t *testing.T) {
	tests := []struct {
		name  string
		datum models.ChannelDatum
		want  decimal.NullDecimal
	}{
		{"positive spend", datum(200, 50, 1), some("4")},
		{"zero spend has no value", datum(200, 0, 1), decimal.NullDecimal{}},
		{"negative spend has no value", datum(200, -10, 1), decimal.NullDecimal{}},
		{"zero revenue is zero", datum(0, 10, 0), some("0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ROAS(tt.datum)
			require.Equal(t, tt.want.Valid, got.Valid)
			if tt.want.Valid {
				assert.True(t, tt.want.Decimal.Equal(got.Decimal), got.Decimal.String())
			}
		})
	}
}

func TestPeriodOverPeriod(t *testing.T) {
	tests := []struct {
		name       string
		curr, prev decimal.NullDecimal
		want       decimal.NullDecimal
	}{
		{"growth", some("110"), some("100"), some("10")},
		{"decline", some("50"), some("200"), some("-75")},
		{"prev zero", some("5"), some("0"), decimal.NullDecimal{}},
		{"prev missing", some("5"), decimal.NullDecimal{}, decimal.NullDecimal{}},
		{"curr missing", decimal.NullDecimal{}, some("5"), decimal.NullDecimal{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeriodOverPeriod(tt.curr, tt.prev)
			require.Equal(t, tt.want.Valid, got.Valid)
			if tt.want.Valid {
				assert.True(t, tt.want.Decimal.Equal(got.Decimal), got.Decimal.String())
			}
		})
	}
}

func TestDeriveMetrics(t *testing.T) {
	june := models.NewPeriod(models.Monthly, "2025-06", "2025-06")
	june.Data[models.ChannelTrendyol] = datum(100, 50, 10)
	june.Data[models.ChannelHepsiburada] = datum(80, 0, 4)

	july := models.NewPeriod(models.Monthly, "2025-07", "2025-07")
	july.Data[models.ChannelTrendyol] = datum(110, 50, 5)
	july.Data[models.ChannelHepsiburada] = datum(40, 20, 4)

	// Input order must not matter.
	out := DeriveMetrics([]models.Period{*july, *june})
	require.Len(t, out, 2)
	assert.Equal(t, "2025-06", out[0].ID)
	assert.Equal(t, "2025-07", out[1].ID)

	first := out[0].Metrics[models.ChannelTrendyol]
	assert.True(t, first.ROAS.Valid)
	assert.False(t, first.RevenueChange.Valid, "first period has no predecessor")
	assert.False(t, first.ROASChange.Valid)
	assert.False(t, out[0].Metrics[models.ChannelHepsiburada].ROAS.Valid, "zero spend")

	ty := out[1].Metrics[models.ChannelTrendyol]
	assert.True(t, ty.RevenueChange.Decimal.Equal(dec("10")))
	assert.True(t, ty.SpendChange.Decimal.Equal(dec("0")))
	assert.True(t, ty.UnitsChange.Decimal.Equal(dec("-50")))
	assert.True(t, ty.ROASChange.Decimal.Equal(dec("10")))

	hb := out[1].Metrics[models.ChannelHepsiburada]
	assert.True(t, hb.ROAS.Decimal.Equal(dec("2")))
	assert.False(t, hb.SpendChange.Valid, "previous spend was zero")
	assert.False(t, hb.ROASChange.Valid, "previous ROAS had no value")
	assert.True(t, hb.RevenueChange.Decimal.Equal(dec("-50")))
}

func TestTimelineAndSeries(t *testing.T) {
	p := models.NewPeriod(models.Weekly, "2025-W31", "2025 W31")
	p.Data[models.ChannelTrendyol] = datum(100, 25, 3)
	p.Data[models.ChannelHepsiburada] = datum(50, 0, 2)

	timeline := Timeline([]models.Period{*p})
	require.Len(t, timeline, 1)
	assert.True(t, timeline[0].Revenue.Equal(dec("150")))
	assert.True(t, timeline[0].Spend.Equal(dec("25")))
	assert.True(t, timeline[0].Units.Equal(dec("5")))

	roas := Series([]models.Period{*p}, models.FieldROAS)
	require.Len(t, roas, 1)
	assert.Equal(t, "2025 W31", roas[0].Period)
	assert.True(t, roas[0].Values[models.ChannelTrendyol].Decimal.Equal(dec("4")))
	assert.False(t, roas[0].Values[models.ChannelHepsiburada].Valid)

	units := Series([]models.Period{*p}, models.FieldUnits)
	assert.True(t, units[0].Values[models.ChannelHepsiburada].Decimal.Equal(dec("2")))
}
