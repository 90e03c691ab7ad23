package services

import (
	"errors"
	"fmt"
	"slices"

	"sales-dashboard/internal/models"
)

// Ledger holds the live daily entries by id, remembering insertion order.
type Ledger struct {
	order   []string
	entries map[string]models.DailyEntry
}

// NewLedger appends entries in order. Duplicate ids keep the first entry and
// are reported in the joined error; the ledger is usable either way.
func NewLedger(entries []models.DailyEntry) (*Ledger, error) {
	l := &Ledger{entries: make(map[string]models.DailyEntry, len(entries))}
	var errs []error
	for _, e := range entries {
		if err := l.Append(e); err != nil {
			errs = append(errs, err)
		}
	}
	return l, errors.Join(errs...)
}

func (l *Ledger) Append(e models.DailyEntry) error {
	if _, ok := l.entries[e.ID]; ok {
		return fmt.Errorf("daily entry %q already recorded", e.ID)
	}
	l.entries[e.ID] = e
	l.order = append(l.order, e.ID)
	return nil
}

func (l *Ledger) Get(id string) (models.DailyEntry, bool) {
	e, ok := l.entries[id]
	return e, ok
}

func (l *Ledger) Remove(id string) (models.DailyEntry, bool) {
	e, ok := l.entries[id]
	if !ok {
		return models.DailyEntry{}, false
	}
	delete(l.entries, id)
	l.order = slices.DeleteFunc(l.order, func(v string) bool { return v == id })
	return e, true
}

// Entries returns the live entries ordered by date, ties kept in insertion order.
func (l *Ledger) Entries() []models.DailyEntry {
	out := make([]models.DailyEntry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.entries[id])
	}
	slices.SortStableFunc(out, func(a, b models.DailyEntry) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	return out
}

func (l *Ledger) Len() int {
	return len(l.entries)
}
