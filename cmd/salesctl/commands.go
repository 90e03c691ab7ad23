package main

import (
	"github.com/spf13/cobra"

	"sales-dashboard/internal/models"
)

// cliFlags holds every flag value so each root command gets its own copy.
type cliFlags struct {
	resetGranularity   string
	periodsGranularity string
	metrics            bool

	date    string
	channel string
	revenue string
	spend   string
	units   string
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:           "salesctl",
		Short:         "Maintain the sales dashboard store from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Add weekly totals from a periodId,channel,revenue,spend,units file ('-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0])
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "DANGER: Delete every period of one granularity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, f)
		},
	}
	resetCmd.Flags().StringVar(&f.resetGranularity, "granularity", string(models.Weekly), "Monthly or Weekly")

	periodsCmd := &cobra.Command{
		Use:   "periods",
		Short: "Print period totals in id order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeriods(cmd, f)
		},
	}
	periodsCmd.Flags().StringVar(&f.periodsGranularity, "granularity", string(models.Monthly), "Monthly or Weekly")
	periodsCmd.Flags().BoolVar(&f.metrics, "metrics", false, "Print derived metrics as JSON instead of the totals table")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a daily entry and add it to its month and ISO week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, f)
		},
	}
	addCmd.Flags().StringVar(&f.date, "date", "", "Day in YYYY-MM-DD")
	addCmd.Flags().StringVar(&f.channel, "channel", "", "Trendyol or Hepsiburada")
	addCmd.Flags().StringVar(&f.revenue, "revenue", "0", "Revenue")
	addCmd.Flags().StringVar(&f.spend, "spend", "0", "Ad spend")
	addCmd.Flags().StringVar(&f.units, "units", "0", "Units sold")
	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("channel")

	deleteCmd := &cobra.Command{
		Use:   "delete [entry_id]",
		Short: "Delete a daily entry and reverse its contribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0])
		},
	}

	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "List daily entries by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntries(cmd)
		},
	}

	rootCmd.AddCommand(importCmd, resetCmd, periodsCmd, addCmd, deleteCmd, entriesCmd)
	return rootCmd
}
