package services

import (
	"slices"
	"strings"

	"sales-dashboard/internal/models"
)

// Sign selects whether a delta is applied or reversed.
type Sign int64

const (
	SignAdd    Sign = 1
	SignRemove Sign = -1
)

// PeriodSet is the in-memory period store keyed by (id, granularity).
type PeriodSet map[models.PeriodKey]*models.Period

// ApplyDelta adds sign*datum to data[ch] of the period identified by (g, id),
// creating it with zeroed channels and the given label when absent. The
// returned period is the only one mutated and is what must be persisted.
func ApplyDelta(set PeriodSet, g models.Granularity, id, label string, ch models.Channel, datum models.ChannelDatum, sign Sign) *models.Period {
	key := models.PeriodKey{ID: id, Granularity: g}
	p, ok := set[key]
	if !ok {
		p = models.NewPeriod(g, id, label)
		set[key] = p
	}
	p.Data[ch] = p.Data[ch].Add(datum.Scale(int64(sign)))
	return p
}

// Sorted returns copies of every period of granularity g ordered by id.
func (s PeriodSet) Sorted(g models.Granularity) []models.Period {
	out := make([]models.Period, 0, len(s))
	for key, p := range s {
		if key.Granularity == g {
			out = append(out, p.Clone())
		}
	}
	sortPeriods(out)
	return out
}

// Clear removes every period of granularity g and reports how many were dropped.
func (s PeriodSet) Clear(g models.Granularity) int {
	n := 0
	for key := range s {
		if key.Granularity == g {
			delete(s, key)
			n++
		}
	}
	return n
}

func sortPeriods(periods []models.Period) {
	slices.SortFunc(periods, func(a, b models.Period) int {
		return strings.Compare(a.ID, b.ID)
	})
}
