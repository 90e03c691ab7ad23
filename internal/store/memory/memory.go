// Package memory is a process-local Store used for tests and throwaway runs.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"sales-dashboard/internal/models"
)

type Store struct {
	mu      sync.RWMutex
	periods map[models.PeriodKey]models.Period
	entries map[string]models.DailyEntry
}

func New() *Store {
	return &Store{
		periods: make(map[models.PeriodKey]models.Period),
		entries: make(map[string]models.DailyEntry),
	}
}

func (s *Store) LoadPeriods(ctx context.Context) ([]models.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Period, 0, len(s.periods))
	for _, p := range s.periods {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b models.Period) int {
		if c := strings.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return strings.Compare(string(a.Granularity), string(b.Granularity))
	})
	return out, nil
}

func (s *Store) LoadDailyEntries(ctx context.Context) ([]models.DailyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DailyEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.DailyEntry) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) UpsertPeriod(ctx context.Context, p models.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[p.Key()] = p.Clone()
	return nil
}

func (s *Store) InsertDailyEntry(ctx context.Context, e models.DailyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}

func (s *Store) DeleteDailyEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *Store) ResetPeriods(ctx context.Context, g models.Granularity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.periods {
		if key.Granularity == g {
			delete(s.periods, key)
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }
