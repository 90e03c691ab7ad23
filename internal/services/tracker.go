package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperrors "sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

// Tracker is the rollup engine. It owns the period totals and the daily ledger,
// applies every mutation in memory first and then writes it through the Store.
// Mutations are serialised; reads may run concurrently with each other.
type Tracker struct {
	mu      sync.RWMutex
	store   Store
	periods PeriodSet
	ledger  *Ledger
	pending *pendingWrites
	logger  *slog.Logger
	newID   func() string
	loaded  time.Time
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithIDGenerator replaces the uuid generator for daily entry ids.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}

func NewTracker(store Store, opts ...Option) *Tracker {
	ledger, _ := NewLedger(nil)
	t := &Tracker{
		store:   store,
		periods: make(PeriodSet),
		ledger:  ledger,
		pending: newPendingWrites(),
		logger:  slog.Default(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load replaces the in-memory state with what the store holds. Stored periods
// already include every stored entry, so entries are not re-applied.
func (t *Tracker) Load(ctx context.Context) error {
	var (
		periods []models.Period
		entries []models.DailyEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		periods, err = t.store.LoadPeriods(gctx)
		if err != nil {
			return fmt.Errorf("load periods: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = t.store.LoadDailyEntries(gctx)
		if err != nil {
			return fmt.Errorf("load daily entries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return apperrors.Wrap(err, apperrors.CodePersistence, "load from store")
	}

	set := make(PeriodSet, len(periods))
	for i := range periods {
		p := periods[i]
		p.Normalize()
		set[p.Key()] = &p
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ledger, err := NewLedger(entries)
	if err != nil {
		t.logger.Warn("stored daily entries contain duplicate ids, keeping the first of each", "error", err)
	}

	t.periods = set
	t.ledger = ledger
	t.pending = newPendingWrites()
	t.loaded = time.Now()
	observability.PendingWrites.Set(0)

	t.logger.Info("tracker loaded",
		"periods", len(set),
		"daily_entries", t.ledger.Len(),
	)
	return nil
}

// SeedIfEmpty installs historical periods when nothing has been loaded.
// It reports false when periods already exist.
func (t *Tracker) SeedIfEmpty(ctx context.Context, seed []models.Period) (bool, WriteResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res WriteResult
	if len(t.periods) > 0 {
		return false, res, nil
	}

	for i := range seed {
		p := seed[i].Clone()
		p.Normalize()
		t.periods[p.Key()] = &p
		t.persistPeriod(ctx, &res, StepPeriodUpsert, &p)
	}

	t.logger.Info("seeded empty store", "periods", len(seed), "diverged", res.Diverged)
	return true, res, res.Err()
}

// AddDailyEntry records a contribution for one day and channel and adds it to
// the month and ISO week containing that day.
func (t *Tracker) AddDailyEntry(ctx context.Context, date time.Time, ch models.Channel, revenue, spend, units decimal.Decimal) (models.DailyEntry, WriteResult, error) {
	if !ch.Valid() {
		return models.DailyEntry{}, WriteResult{}, apperrors.Validation(fmt.Sprintf("unknown channel %q", ch))
	}
	for _, amount := range []struct {
		name  string
		value decimal.Decimal
	}{{"revenue", revenue}, {"spend", spend}, {"units", units}} {
		if err := models.CheckAmount(amount.value); err != nil {
			return models.DailyEntry{}, WriteResult{}, apperrors.ValidationWrap(err, fmt.Sprintf("%s: %v", amount.name, err))
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry := models.DailyEntry{
		ID:      t.newID(),
		Date:    date.Format(models.DateLayout),
		Channel: ch,
		Revenue: revenue,
		Spend:   spend,
		Units:   units,
	}
	if err := t.ledger.Append(entry); err != nil {
		return models.DailyEntry{}, WriteResult{}, apperrors.InternalWrap(err, "record daily entry")
	}
	monthly, weekly := t.applyEntry(entry, date, SignAdd)
	observability.ContributionsTotal.WithLabelValues("add").Inc()

	res := WriteResult{EntryID: entry.ID}
	t.persistPeriod(ctx, &res, StepMonthlyUpsert, monthly)
	t.persistPeriod(ctx, &res, StepWeeklyUpsert, weekly)
	t.persistInsert(ctx, &res, entry)

	t.logger.Debug("daily entry added",
		"entry_id", entry.ID,
		"date", entry.Date,
		"channel", entry.Channel,
		"diverged", res.Diverged,
	)
	return entry, res, res.Err()
}

// DeleteDailyEntry reverses exactly the contribution of the entry with id.
func (t *Tracker) DeleteDailyEntry(ctx context.Context, id string) (WriteResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.ledger.Get(id)
	if !ok {
		return WriteResult{}, apperrors.NotFound(fmt.Sprintf("daily entry %q not found", id))
	}
	day, err := entry.Day()
	if err != nil {
		return WriteResult{}, apperrors.InternalWrap(err, "stored daily entry has an invalid date")
	}

	t.ledger.Remove(id)
	monthly, weekly := t.applyEntry(entry, day, SignRemove)
	observability.ContributionsTotal.WithLabelValues("delete").Inc()

	res := WriteResult{EntryID: id}
	t.persistPeriod(ctx, &res, StepMonthlyUpsert, monthly)
	t.persistPeriod(ctx, &res, StepWeeklyUpsert, weekly)
	t.persistDelete(ctx, &res, id)

	t.logger.Debug("daily entry deleted", "entry_id", id, "diverged", res.Diverged)
	return res, res.Err()
}

// ImportWeekly adds every valid line of text to its weekly period. Imported
// totals are not ledgered, so they cannot be deleted individually; only a
// weekly reset removes them.
func (t *Tracker) ImportWeekly(ctx context.Context, text string) (ImportResult, error) {
	rows, lineErrs := ParseWeeklyImport(text)

	t.mu.Lock()
	defer t.mu.Unlock()

	var touched []*models.Period
	seen := make(map[models.PeriodKey]bool)
	for _, row := range rows {
		p := ApplyDelta(t.periods, models.Weekly, row.PeriodID, models.LabelFromID(row.PeriodID), row.Channel, row.Datum, SignAdd)
		if !seen[p.Key()] {
			seen[p.Key()] = true
			touched = append(touched, p)
		}
	}

	result := ImportResult{
		Succeeded: len(rows),
		Failed:    len(lineErrs),
		Errors:    lineErrs,
	}
	for _, p := range touched {
		t.persistPeriod(ctx, &result.Write, StepPeriodUpsert, p)
	}

	observability.ImportLinesTotal.WithLabelValues("succeeded").Add(float64(result.Succeeded))
	observability.ImportLinesTotal.WithLabelValues("failed").Add(float64(result.Failed))
	t.logger.Info("weekly import processed",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"periods", len(touched),
		"diverged", result.Write.Diverged,
	)
	return result, result.Write.Err()
}

// ResetPeriods drops every period of granularity g. Ledger entries are kept.
func (t *Tracker) ResetPeriods(ctx context.Context, g models.Granularity) (WriteResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := t.periods.Clear(g)
	t.pending.dropGranularity(g)

	var res WriteResult
	err := t.store.ResetPeriods(ctx, g)
	if err != nil {
		t.pending.resets[g] = struct{}{}
		t.writeFailed(StepReset, string(g), err)
	} else {
		delete(t.pending.resets, g)
	}
	res.record(StepReset, string(g), err)
	t.syncPendingGauge()

	t.logger.Info("periods reset", "granularity", g, "removed", removed, "diverged", res.Diverged)
	return res, res.Err()
}

// Flush retries every queued write. Resets go first so that periods created
// after a reset are not wiped by its replay.
func (t *Tracker) Flush(ctx context.Context) (WriteResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res WriteResult
	for g := range t.pending.resets {
		err := t.store.ResetPeriods(ctx, g)
		res.record(StepReset, string(g), err)
		if err != nil {
			t.writeFailed(StepReset, string(g), err)
			continue
		}
		delete(t.pending.resets, g)

		// The replay also wiped periods persisted after the original reset.
		for key, p := range t.periods {
			if key.Granularity == g {
				t.persistPeriod(ctx, &res, StepPeriodUpsert, p)
			}
		}
	}
	// A reset that still failed would be undone by upserting stale periods later.
	if len(t.pending.resets) == 0 {
		for key := range t.pending.periods {
			p, ok := t.periods[key]
			if !ok {
				delete(t.pending.periods, key)
				continue
			}
			t.persistPeriod(ctx, &res, StepPeriodUpsert, p)
		}
	}
	for _, e := range t.pending.inserts {
		t.persistInsert(ctx, &res, e)
	}
	for id := range t.pending.deletes {
		t.persistDelete(ctx, &res, id)
	}
	t.syncPendingGauge()

	t.logger.Info("pending writes flushed", "attempted", len(res.Steps), "remaining", t.pending.len())
	return res, res.Err()
}

func (t *Tracker) Pending() PendingSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pending.summary()
}

// Periods returns the periods of granularity g sorted by id.
func (t *Tracker) Periods(g models.Granularity) []models.Period {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.periods.Sorted(g)
}

func (t *Tracker) DerivedMetrics(g models.Granularity) []models.PeriodMetrics {
	return DeriveMetrics(t.Periods(g))
}

func (t *Tracker) Timeline(g models.Granularity) []models.PeriodTotals {
	return Timeline(t.Periods(g))
}

func (t *Tracker) Series(g models.Granularity, field models.SeriesField) []models.SeriesPoint {
	return Series(t.Periods(g), field)
}

func (t *Tracker) DailyEntries() []models.DailyEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ledger.Entries()
}

func (t *Tracker) Stats() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	monthly, weekly := 0, 0
	for key := range t.periods {
		if key.Granularity == models.Monthly {
			monthly++
		} else {
			weekly++
		}
	}
	return map[string]any{
		"monthly_periods": monthly,
		"weekly_periods":  weekly,
		"daily_entries":   t.ledger.Len(),
		"pending_writes":  t.pending.len(),
		"loaded_at":       t.loaded,
	}
}

func (t *Tracker) applyEntry(e models.DailyEntry, day time.Time, sign Sign) (monthly, weekly *models.Period) {
	monthID := models.MonthID(day)
	monthly = ApplyDelta(t.periods, models.Monthly, monthID, monthID, e.Channel, e.Datum(), sign)
	weekly = ApplyDelta(t.periods, models.Weekly, models.WeekID(day), models.WeekLabel(day), e.Channel, e.Datum(), sign)
	return monthly, weekly
}

func (t *Tracker) persistPeriod(ctx context.Context, res *WriteResult, step Step, p *models.Period) {
	key := p.Key()
	err := t.store.UpsertPeriod(ctx, p.Clone())
	if err != nil {
		t.pending.periods[key] = struct{}{}
		t.writeFailed(step, key.String(), err)
	} else {
		delete(t.pending.periods, key)
	}
	res.record(step, key.String(), err)
	t.syncPendingGauge()
}

func (t *Tracker) persistInsert(ctx context.Context, res *WriteResult, e models.DailyEntry) {
	err := t.store.InsertDailyEntry(ctx, e)
	if err != nil {
		t.pending.inserts[e.ID] = e
		t.writeFailed(StepLedgerInsert, e.ID, err)
	} else {
		delete(t.pending.inserts, e.ID)
	}
	res.record(StepLedgerInsert, e.ID, err)
	t.syncPendingGauge()
}

func (t *Tracker) persistDelete(ctx context.Context, res *WriteResult, id string) {
	// The store never saw the entry, so cancelling the queued insert is the delete.
	if _, ok := t.pending.inserts[id]; ok {
		delete(t.pending.inserts, id)
		res.record(StepLedgerDelete, id, nil)
		t.syncPendingGauge()
		return
	}

	err := t.store.DeleteDailyEntry(ctx, id)
	if err != nil {
		t.pending.deletes[id] = struct{}{}
		t.writeFailed(StepLedgerDelete, id, err)
	} else {
		delete(t.pending.deletes, id)
	}
	res.record(StepLedgerDelete, id, err)
	t.syncPendingGauge()
}

func (t *Tracker) writeFailed(step Step, target string, err error) {
	observability.StoreWriteFailures.WithLabelValues(string(step)).Inc()
	t.logger.Warn("store write failed, queued for retry",
		"step", step,
		"target", target,
		"error", err,
	)
}

func (t *Tracker) syncPendingGauge() {
	observability.PendingWrites.Set(float64(t.pending.len()))
}
