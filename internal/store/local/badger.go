// Package local persists periods and daily entries in an embedded BadgerDB.
//
// It is the fallback used when no remote database is configured: data stays
// on the machine running the dashboard, the way a browser keeps local storage.
//
// Key layout:
//
//	period/<granularity>/<id>  -> JSON models.Period
//	daily/<id>                 -> JSON models.DailyEntry
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"sales-dashboard/internal/models"
)

const (
	periodPrefix = "period/"
	dailyPrefix  = "daily/"
)

// Config holds configuration for the local store.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration

	// Logger receives BadgerDB's own log lines. Nil silences them.
	Logger *slog.Logger
}

func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
		GCInterval: 5 * time.Minute,
	}
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

type Store struct {
	db     *badger.DB
	logger *slog.Logger
	stop   chan struct{}
	wg     sync.WaitGroup
}

// Open opens (creating if needed) the BadgerDB described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
		logger = slog.Default()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Store{db: db, logger: logger, stop: make(chan struct{})}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.wg.Add(1)
		go s.runGC(cfg.GCInterval)
	}
	return s, nil
}

func (s *Store) runGC(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.logger.Warn("badger value log gc failed", "error", err)
					}
					break
				}
			}
		}
	}
}

func periodKey(g models.Granularity, id string) []byte {
	return []byte(periodPrefix + string(g) + "/" + id)
}

func dailyKey(id string) []byte {
	return []byte(dailyPrefix + id)
}

func (s *Store) LoadPeriods(ctx context.Context) ([]models.Period, error) {
	var out []models.Period
	err := s.scan(ctx, periodPrefix, func(val []byte) error {
		var p models.Period
		if err := json.Unmarshal(val, &p); err != nil {
			return fmt.Errorf("decode period: %w", err)
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (s *Store) LoadDailyEntries(ctx context.Context) ([]models.DailyEntry, error) {
	var out []models.DailyEntry
	err := s.scan(ctx, dailyPrefix, func(val []byte) error {
		var e models.DailyEntry
		if err := json.Unmarshal(val, &e); err != nil {
			return fmt.Errorf("decode daily entry: %w", err)
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

func (s *Store) scan(ctx context.Context, prefix string, fn func(val []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) UpsertPeriod(ctx context.Context, p models.Period) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode period %s: %w", p.Key(), err)
	}
	return s.set(ctx, periodKey(p.Granularity, p.ID), val)
}

func (s *Store) InsertDailyEntry(ctx context.Context, e models.DailyEntry) error {
	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode daily entry %s: %w", e.ID, err)
	}
	return s.set(ctx, dailyKey(e.ID), val)
}

func (s *Store) set(ctx context.Context, key, val []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (s *Store) DeleteDailyEntry(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dailyKey(id))
	})
}

func (s *Store) ResetPeriods(ctx context.Context, g models.Granularity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(periodPrefix + string(g) + "/")); err != nil {
		return fmt.Errorf("drop %s periods: %w", g, err)
	}
	return nil
}

func (s *Store) Close() error {
	close(s.stop)
	s.wg.Wait()
	return s.db.Close()
}
