package services

import (
	"slices"

	"sales-dashboard/internal/models"
)

// pendingWrites remembers store writes that failed so they can be replayed.
// Period upserts are replayed from the live in-memory snapshot, so only the key
// is kept.
type pendingWrites struct {
	periods map[models.PeriodKey]struct{}
	inserts map[string]models.DailyEntry
	deletes map[string]struct{}
	resets  map[models.Granularity]struct{}
}

func newPendingWrites() *pendingWrites {
	return &pendingWrites{
		periods: make(map[models.PeriodKey]struct{}),
		inserts: make(map[string]models.DailyEntry),
		deletes: make(map[string]struct{}),
		resets:  make(map[models.Granularity]struct{}),
	}
}

func (p *pendingWrites) len() int {
	return len(p.periods) + len(p.inserts) + len(p.deletes) + len(p.resets)
}

// dropGranularity forgets queued upserts for periods a reset has removed.
func (p *pendingWrites) dropGranularity(g models.Granularity) {
	for key := range p.periods {
		if key.Granularity == g {
			delete(p.periods, key)
		}
	}
}

// PendingSummary is the observable backlog of writes the store has not accepted.
type PendingSummary struct {
	Periods []string             `json:"periods"`
	Inserts []string             `json:"inserts"`
	Deletes []string             `json:"deletes"`
	Resets  []models.Granularity `json:"resets"`
	Count   int                  `json:"count"`
}

func (p *pendingWrites) summary() PendingSummary {
	s := PendingSummary{
		Periods: make([]string, 0, len(p.periods)),
		Inserts: make([]string, 0, len(p.inserts)),
		Deletes: make([]string, 0, len(p.deletes)),
		Resets:  make([]models.Granularity, 0, len(p.resets)),
		Count:   p.len(),
	}
	for key := range p.periods {
		s.Periods = append(s.Periods, key.String())
	}
	for id := range p.inserts {
		s.Inserts = append(s.Inserts, id)
	}
	for id := range p.deletes {
		s.Deletes = append(s.Deletes, id)
	}
	for g := range p.resets {
		s.Resets = append(s.Resets, g)
	}
	slices.Sort(s.Periods)
	slices.Sort(s.Inserts)
	slices.Sort(s.Deletes)
	slices.Sort(s.Resets)
	return s
}
