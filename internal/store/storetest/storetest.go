// Package storetest holds the behaviour every services.Store adapter must share.
package storetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) services.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("EmptyStore", func(t *testing.T) { testEmpty(t, newStore(t)) })
	t.Run("UpsertPeriod", func(t *testing.T) { testUpsertPeriod(t, newStore(t)) })
	t.Run("GranularitiesAreSeparate", func(t *testing.T) { testGranularities(t, newStore(t)) })
	t.Run("DailyEntries", func(t *testing.T) { testDailyEntries(t, newStore(t)) })
	t.Run("ResetPeriods", func(t *testing.T) { testReset(t, newStore(t)) })
}

func datum(revenue, spend, units string) models.ChannelDatum {
	return models.ChannelDatum{
		Revenue: decimal.RequireFromString(revenue),
		Spend:   decimal.RequireFromString(spend),
		Units:   decimal.RequireFromString(units),
	}
}

func period(g models.Granularity, id, label string, trendyol models.ChannelDatum) models.Period {
	p := models.NewPeriod(g, id, label)
	p.Data[models.ChannelTrendyol] = trendyol
	return *p
}

func find(periods []models.Period, g models.Granularity, id string) (models.Period, bool) {
	for _, p := range periods {
		if p.ID == id && p.Granularity == g {
			return p, true
		}
	}
	return models.Period{}, false
}

func testEmpty(t *testing.T, s services.Store) {
	ctx := context.Background()

	periods, err := s.LoadPeriods(ctx)
	require.NoError(t, err)
	assert.Empty(t, periods)

	entries, err := s.LoadDailyEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testUpsertPeriod(t *testing.T, s services.Store) {
	ctx := context.Background()

	require.NoError(t, s.UpsertPeriod(ctx, period(models.Monthly, "2025-07", "2025-07", datum("1200.50", "300", "4"))))
	require.NoError(t, s.UpsertPeriod(ctx, period(models.Monthly, "2025-07", "2025-07 (to date)", datum("1300.25", "310", "5"))))

	periods, err := s.LoadPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 1)

	got := periods[0]
	assert.Equal(t, "2025-07", got.ID)
	assert.Equal(t, "2025-07 (to date)", got.Label)
	assert.Equal(t, models.Monthly, got.Granularity)
	assert.True(t, got.Data[models.ChannelTrendyol].Equal(datum("1300.25", "310", "5")), "%v", got.Data)
	assert.True(t, got.Data[models.ChannelHepsiburada].Equal(models.ChannelDatum{}))
}

func testGranularities(t *testing.T, s services.Store) {
	ctx := context.Background()

	require.NoError(t, s.UpsertPeriod(ctx, period(models.Monthly, "2025-07", "2025-07", datum("1", "1", "1"))))
	require.NoError(t, s.UpsertPeriod(ctx, period(models.Weekly, "2025-07", "2025-07", datum("2", "2", "2"))))

	periods, err := s.LoadPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	m, ok := find(periods, models.Monthly, "2025-07")
	require.True(t, ok)
	assert.True(t, m.Data[models.ChannelTrendyol].Equal(datum("1", "1", "1")))

	w, ok := find(periods, models.Weekly, "2025-07")
	require.True(t, ok)
	assert.True(t, w.Data[models.ChannelTrendyol].Equal(datum("2", "2", "2")))
}

func testDailyEntries(t *testing.T, s services.Store) {
	ctx := context.Background()

	a := models.DailyEntry{ID: "a", Date: "2025-07-28", Channel: models.ChannelTrendyol,
		Revenue: decimal.RequireFromString("99.99"), Spend: decimal.RequireFromString("10"), Units: decimal.RequireFromString("1")}
	b := models.DailyEntry{ID: "b", Date: "2025-07-01", Channel: models.ChannelHepsiburada,
		Revenue: decimal.RequireFromString("5"), Spend: decimal.Zero, Units: decimal.RequireFromString("2")}

	require.NoError(t, s.InsertDailyEntry(ctx, a))
	require.NoError(t, s.InsertDailyEntry(ctx, b))
	require.NoError(t, s.InsertDailyEntry(ctx, a), "inserting the same entry again is a no-op")

	entries, err := s.LoadDailyEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := make(map[string]models.DailyEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	got := byID["a"]
	assert.Equal(t, "2025-07-28", got.Date)
	assert.Equal(t, models.ChannelTrendyol, got.Channel)
	assert.True(t, got.Datum().Equal(a.Datum()))
	assert.Equal(t, models.ChannelHepsiburada, byID["b"].Channel)

	require.NoError(t, s.DeleteDailyEntry(ctx, "a"))
	require.NoError(t, s.DeleteDailyEntry(ctx, "a"), "deleting a missing entry is not an error")

	entries, err = s.LoadDailyEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ID)
}

func testReset(t *testing.T, s services.Store) {
	ctx := context.Background()

	require.NoError(t, s.UpsertPeriod(ctx, period(models.Monthly, "2025-07", "2025-07", datum("1", "1", "1"))))
	require.NoError(t, s.UpsertPeriod(ctx, period(models.Weekly, "2025-W30", "2025 W30", datum("1", "1", "1"))))
	require.NoError(t, s.UpsertPeriod(ctx, period(models.Weekly, "2025-W31", "2025 W31", datum("1", "1", "1"))))
	require.NoError(t, s.InsertDailyEntry(ctx, models.DailyEntry{ID: "a", Date: "2025-07-28", Channel: models.ChannelTrendyol}))

	require.NoError(t, s.ResetPeriods(ctx, models.Weekly))

	periods, err := s.LoadPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, models.Monthly, periods[0].Granularity)

	entries, err := s.LoadDailyEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "reset leaves the ledger alone")

	require.NoError(t, s.ResetPeriods(ctx, models.Weekly), "resetting an empty granularity is fine")
}
