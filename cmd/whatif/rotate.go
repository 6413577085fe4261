package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Advance the active feed source once",
	Long: `Move the active flag to the source with the next higher priority, wrapping
to the lowest priority after the last one. This is the same step the daily
schedule in "serve" performs.`,
	RunE: runRotate,
}

func init() {
	rootCmd.AddCommand(rotateCmd)
}

func runRotate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.rotator.Rotate(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Next == nil {
		fmt.Fprintln(out, "No feed sources configured.")
		return nil
	}
	if res.Previous != nil {
		fmt.Fprintf(out, "Previous: %s (priority %d)\n", res.Previous.Name, res.Previous.Priority)
	}
	fmt.Fprintf(out, "Active:   %s (priority %d)\n", res.Next.Name, res.Next.Priority)
	if res.Wrapped {
		fmt.Fprintln(out, "Rotation wrapped to the lowest priority.")
	}
	return nil
}
