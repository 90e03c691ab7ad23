package services

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

func someValue(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ROAS is revenue/spend, or no value when spend is not positive.
func ROAS(d models.ChannelDatum) decimal.NullDecimal {
	if !d.Spend.IsPositive() {
		return decimal.NullDecimal{}
	}
	return someValue(d.Revenue.Div(d.Spend))
}

// PeriodOverPeriod is the percentage change from prev to curr. It has no value
// when either side is missing or prev is zero.
func PeriodOverPeriod(curr, prev decimal.NullDecimal) decimal.NullDecimal {
	if !curr.Valid || !prev.Valid || prev.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return someValue(curr.Decimal.Sub(prev.Decimal).Div(prev.Decimal).Mul(hundred))
}

// DeriveMetrics computes per-channel metrics for each period against its
// predecessor in id order. The first period has no predecessor.
func DeriveMetrics(periods []models.Period) []models.PeriodMetrics {
	sorted := slices.Clone(periods)
	slices.SortFunc(sorted, func(a, b models.Period) int {
		return strings.Compare(a.ID, b.ID)
	})

	out := make([]models.PeriodMetrics, 0, len(sorted))
	for i, p := range sorted {
		var prev *models.Period
		if i > 0 {
			prev = &sorted[i-1]
		}

		metrics := make(map[models.Channel]models.ChannelMetrics, len(models.Channels))
		for _, ch := range models.Channels {
			metrics[ch] = channelMetrics(p, prev, ch)
		}

		out = append(out, models.PeriodMetrics{
			ID:          p.ID,
			Label:       p.Label,
			Granularity: p.Granularity,
			Data:        p.Clone().Data,
			Metrics:     metrics,
		})
	}
	return out
}

func channelMetrics(p models.Period, prev *models.Period, ch models.Channel) models.ChannelMetrics {
	cur := p.Data[ch]
	m := models.ChannelMetrics{ROAS: ROAS(cur)}
	if prev == nil {
		return m
	}

	prv, ok := prev.Data[ch]
	if !ok {
		return m
	}
	m.RevenueChange = PeriodOverPeriod(someValue(cur.Revenue), someValue(prv.Revenue))
	m.SpendChange = PeriodOverPeriod(someValue(cur.Spend), someValue(prv.Spend))
	m.UnitsChange = PeriodOverPeriod(someValue(cur.Units), someValue(prv.Units))
	m.ROASChange = PeriodOverPeriod(m.ROAS, ROAS(prv))
	return m
}

// Timeline sums every channel per period, in id order.
func Timeline(periods []models.Period) []models.PeriodTotals {
	out := make([]models.PeriodTotals, 0, len(periods))
	for _, p := range periods {
		t := models.PeriodTotals{ID: p.ID, Label: p.Label}
		for _, ch := range models.Channels {
			d := p.Data[ch]
			t.Revenue = t.Revenue.Add(d.Revenue)
			t.Spend = t.Spend.Add(d.Spend)
			t.Units = t.Units.Add(d.Units)
		}
		out = append(out, t)
	}
	return out
}

// Series projects one field per channel for charting. ROAS keeps its
// no-value points; presentation decides how to draw them.
func Series(periods []models.Period, field models.SeriesField) []models.SeriesPoint {
	out := make([]models.SeriesPoint, 0, len(periods))
	for _, p := range periods {
		values := make(map[models.Channel]decimal.NullDecimal, len(models.Channels))
		for _, ch := range models.Channels {
			d := p.Data[ch]
			switch field {
			case models.FieldRevenue:
				values[ch] = someValue(d.Revenue)
			case models.FieldSpend:
				values[ch] = someValue(d.Spend)
			case models.FieldUnits:
				values[ch] = someValue(d.Units)
			case models.FieldROAS:
				values[ch] = ROAS(d)
			}
		}
		out = append(out, models.SeriesPoint{Period: p.Label, Values: values})
	}
	return out
}
