package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"sales-dashboard/internal/models"
)

type Config struct {
	DSN string
	// Timeout bounds every single store call.
	Timeout time.Duration
	// AutoMigrate creates or updates the two tables on open.
	AutoMigrate bool
	Logger      *slog.Logger
}

type periodRow struct {
	ID          string         `gorm:"column:id;primaryKey"`
	Granularity string         `gorm:"column:granularity;primaryKey"`
	Label       string         `gorm:"column:label;not null"`
	Data        datatypes.JSON `gorm:"column:data;type:jsonb;not null"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (periodRow) TableName() string { return "periods" }

type dailyEntryRow struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Date      time.Time       `gorm:"column:date;type:date;index;not null"`
	Channel   string          `gorm:"column:channel;not null"`
	Revenue   decimal.Decimal `gorm:"column:revenue;type:numeric;not null"`
	Spend     decimal.Decimal `gorm:"column:spend;type:numeric;not null"`
	Units     decimal.Decimal `gorm:"column:units;type:numeric;not null"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (dailyEntryRow) TableName() string { return "daily_entries" }

// Store keeps periods and daily entries in Postgres.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
	log     *slog.Logger
}

func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	storeLog := logger.With("store", "postgres")

	gormLog := gormLogger.New(
		slog.NewLogLogger(storeLog.Handler(), slog.LevelWarn),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	s := New(db, cfg.Timeout, storeLog)
	if cfg.AutoMigrate {
		if err := s.Migrate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *gorm.DB, timeout time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, timeout: timeout, log: logger}
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&periodRow{}, &dailyEntryRow{}); err != nil {
		return fmt.Errorf("migrate sales tables: %w", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) LoadPeriods(ctx context.Context) ([]models.Period, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []periodRow
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select periods: %w", err)
	}

	out := make([]models.Period, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) LoadDailyEntries(ctx context.Context) ([]models.DailyEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []dailyEntryRow
	if err := s.db.WithContext(ctx).Order("date ASC").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select daily entries: %w", err)
	}

	out := make([]models.DailyEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Store) UpsertPeriod(ctx context.Context, p models.Period) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row, err := newPeriodRow(p)
	if err != nil {
		return err
	}
	row.UpdatedAt = time.Now().UTC()

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}, {Name: "granularity"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "data", "updated_at"}),
	}).Create(&row).Error
}

func (s *Store) InsertDailyEntry(ctx context.Context, e models.DailyEntry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row, err := newDailyEntryRow(e)
	if err != nil {
		return err
	}
	// Entries are immutable, so a replayed insert that already committed is a no-op.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *Store) DeleteDailyEntry(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&dailyEntryRow{}).Error
}

func (s *Store) ResetPeriods(ctx context.Context, g models.Granularity) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Where("granularity = ?", string(g)).Delete(&periodRow{})
	if res.Error != nil {
		return res.Error
	}
	s.log.Info("periods deleted", "granularity", g, "rows", res.RowsAffected)
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newPeriodRow(p models.Period) (periodRow, error) {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return periodRow{}, fmt.Errorf("encode period %s data: %w", p.Key(), err)
	}
	return periodRow{
		ID:          p.ID,
		Granularity: string(p.Granularity),
		Label:       p.Label,
		Data:        datatypes.JSON(data),
	}, nil
}

func (r periodRow) toModel() (models.Period, error) {
	p := models.Period{
		ID:          r.ID,
		Label:       r.Label,
		Granularity: models.Granularity(r.Granularity),
	}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &p.Data); err != nil {
			return models.Period{}, fmt.Errorf("decode period %s data: %w", p.Key(), err)
		}
	}
	p.Normalize()
	return p, nil
}

func newDailyEntryRow(e models.DailyEntry) (dailyEntryRow, error) {
	day, err := e.Day()
	if err != nil {
		return dailyEntryRow{}, err
	}
	return dailyEntryRow{
		ID:      e.ID,
		Date:    day,
		Channel: string(e.Channel),
		Revenue: e.Revenue,
		Spend:   e.Spend,
		Units:   e.Units,
	}, nil
}

func (r dailyEntryRow) toModel() models.DailyEntry {
	return models.DailyEntry{
		ID:      r.ID,
		Date:    r.Date.Format(models.DateLayout),
		Channel: models.Channel(r.Channel),
		Revenue: r.Revenue,
		Spend:   r.Spend,
		Units:   r.Units,
	}
}
