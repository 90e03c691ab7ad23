package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/store"
)

// withTracker loads the configured store into a tracker, runs fn and then
// retries anything the store refused before closing it.
func withTracker(cmd *cobra.Command, fn func(ctx context.Context, tracker *services.Tracker) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := observability.NewLogger(cfg.Logger, cmd.ErrOrStderr())

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tracker := services.NewTracker(st, services.WithLogger(logger))
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Store.LoadTimeout)
	err = tracker.Load(loadCtx)
	cancel()
	if err != nil {
		return err
	}

	runErr := fn(ctx, tracker)
	return errors.Join(runErr, settle(ctx, tracker, logger))
}

// settle flushes queued writes once. Anything still pending is lost when the
// process exits, so it is reported as an error.
func settle(ctx context.Context, tracker *services.Tracker, logger *slog.Logger) error {
	if tracker.Pending().Count == 0 {
		return nil
	}
	if _, err := tracker.Flush(ctx); err != nil {
		logger.Warn("flush before exit failed", "error", err)
	}
	if remaining := tracker.Pending(); remaining.Count > 0 {
		return fmt.Errorf("%d write(s) were not persisted", remaining.Count)
	}
	return nil
}

func runImport(cmd *cobra.Command, path string) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	return withTracker(cmd, func(ctx context.Context, tracker *services.Tracker) error {
		result, err := tracker.ImportWeekly(ctx, string(data))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported %d line(s), skipped %d\n", result.Succeeded, result.Failed)
		for _, le := range result.Errors {
			fmt.Fprintf(out, "  line %d: %s (%q)\n", le.Line, le.Reason, le.Text)
		}
		return err
	})
}

func runReset(cmd *cobra.Command, f *cliFlags) error {
	g, err := models.ParseGranularity(f.resetGranularity)
	if err != nil {
		return err
	}

	return withTracker(cmd, func(ctx context.Context, tracker *services.Tracker) error {
		before := len(tracker.Periods(g))
		if _, err := tracker.ResetPeriods(ctx, g); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d %s period(s)\n", before, g)
		return nil
	})
}

func runPeriods(cmd *cobra.Command, f *cliFlags) error {
	g, err := models.ParseGranularity(f.periodsGranularity)
	if err != nil {
		return err
	}

	return withTracker(cmd, func(ctx context.Context, tracker *services.Tracker) error {
		out := cmd.OutOrStdout()
		if f.metrics {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(tracker.DerivedMetrics(g))
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLABEL\tCHANNEL\tREVENUE\tSPEND\tUNITS")
		for _, p := range tracker.Periods(g) {
			for _, ch := range models.Channels {
				d := p.Data[ch]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Label, ch, d.Revenue, d.Spend, d.Units)
			}
		}
		return tw.Flush()
	})
}

func runAdd(cmd *cobra.Command, f *cliFlags) error {
	day, err := models.ParseDate(f.date)
	if err != nil {
		return err
	}
	ch, err := models.ParseChannel(f.channel)
	if err != nil {
		return err
	}
	amounts := make([]decimal.Decimal, 0, 3)
	for _, field := range []struct{ name, value string }{
		{"revenue", f.revenue}, {"spend", f.spend}, {"units", f.units},
	} {
		d, err := decimal.NewFromString(field.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q", field.name, field.value)
		}
		amounts = append(amounts, d)
	}

	return withTracker(cmd, func(ctx context.Context, tracker *services.Tracker) error {
		entry, _, err := tracker.AddDailyEntry(ctx, day, ch, amounts[0], amounts[1], amounts[2])
		if entry.ID != "" {
			fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
		}
		return err
	})
}

func runDelete(cmd *cobra.Command, id string) error {
	return withTracker(cmd, func(ctx context.Context, tracker *services.Tracker) error {
		if _, err := tracker.DeleteDailyEntry(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	})
}

func runEntries(cmd *cobra.Command) error {
	return withTracker(cmd, func(ctx context.Context, tracker *services.Tracker) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tCHANNEL\tREVENUE\tSPEND\tUNITS")
		for _, e := range tracker.DailyEntries() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Channel, e.Revenue, e.Spend, e.Units)
		}
		return tw.Flush()
	})
}
