package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/store/memory"
)

var errUnavailable = errors.New("store unavailable")

// flakyStore wraps the memory store and fails the named methods on demand.
type flakyStore struct {
	*memory.Store

	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		Store: memory.New(),
		fail:  make(map[string]bool),
		calls: make(map[string]int),
	}
}

func (f *flakyStore) failOn(methods ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range methods {
		f.fail[m] = true
	}
}

func (f *flakyStore) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = make(map[string]bool)
}

func (f *flakyStore) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *flakyStore) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if f.fail[method] {
		return fmt.Errorf("%s: %w", method, errUnavailable)
	}
	return nil
}

func (f *flakyStore) LoadPeriods(ctx context.Context) ([]models.Period, error) {
	if err := f.check("LoadPeriods"); err != nil {
		return nil, err
	}
	return f.Store.LoadPeriods(ctx)
}

func (f *flakyStore) UpsertPeriod(ctx context.Context, p models.Period) error {
	if err := f.check("UpsertPeriod"); err != nil {
		return err
	}
	return f.Store.UpsertPeriod(ctx, p)
}

func (f *flakyStore) InsertDailyEntry(ctx context.Context, e models.DailyEntry) error {
	if err := f.check("InsertDailyEntry"); err != nil {
		return err
	}
	return f.Store.InsertDailyEntry(ctx, e)
}

func (f *flakyStore) DeleteDailyEntry(ctx context.Context, id string) error {
	if err := f.check("DeleteDailyEntry"); err != nil {
		return err
	}
	return f.Store.DeleteDailyEntry(ctx, id)
}

func (f *flakyStore) ResetPeriods(ctx context.Context, g models.Granularity) error {
	if err := f.check("ResetPeriods"); err != nil {
		return err
	}
	return f.Store.ResetPeriods(ctx, g)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sequentialIDs returns an id generator yielding e-1, e-2, ...
func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("e-%d", n)
	}
}

func newTestTracker(t *testing.T, store Store) *Tracker {
	t.Helper()
	tr := NewTracker(store, WithLogger(discardLogger()), WithIDGenerator(sequentialIDs()))
	if err := tr.Load(context.Background()); err != nil {
		t.Fatalf("load tracker: %v", err)
	}
	return tr
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func findPeriod(periods []models.Period, id string) (models.Period, bool) {
	for _, p := range periods {
		if p.ID == id {
			return p, true
		}
	}
	return models.Period{}, false
}
