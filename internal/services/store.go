package services

import (
	"context"

	"sales-dashboard/internal/models"
)

// Store is the persistence boundary the Tracker writes through after every
// mutation. Implementations own their own timeouts.
type Store interface {
	LoadPeriods(ctx context.Context) ([]models.Period, error)
	LoadDailyEntries(ctx context.Context) ([]models.DailyEntry, error)
	UpsertPeriod(ctx context.Context, p models.Period) error
	InsertDailyEntry(ctx context.Context, e models.DailyEntry) error
	DeleteDailyEntry(ctx context.Context, id string) error
	ResetPeriods(ctx context.Context, g models.Granularity) error
	Close() error
}
