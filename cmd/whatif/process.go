package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one ingestion pass and print its summary",
	Long: `Poll every active feed source once, classify its newest items, store the
relevant ones and sweep aged logs and items. The command blocks until the run
finishes and exits non-zero when the run failed.`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	pipeline, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}

	if !pipeline.Start(ctx) {
		return errors.New("an ingestion run is already in progress")
	}
	pipeline.Wait()

	stats := pipeline.LastRun()
	if stats == nil {
		return errors.New("ingestion run produced no result")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", stats.RunID)
	if stats.TotalSources == 0 && !stats.Failed {
		fmt.Fprintln(out, "No active feed sources.")
		return nil
	}
	fmt.Fprintln(out, stats.Summary(a.cfg.Retention.LogDays, a.cfg.Retention.ItemDays))

	if stats.Failed {
		return fmt.Errorf("ingestion run %s failed, see run logs", stats.RunID)
	}
	return nil
}
