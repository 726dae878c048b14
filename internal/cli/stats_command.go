package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"pcmflow.dev/internal/tracking"
)

// newStatsCommand creates the stats subcommand
func newStatsCommand() *cobra.Command {
	var limit int
	var jsonOutput bool

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show conversion history",
		Long: `Show conversion history recorded by previous runs.

Prints an aggregate summary followed by the most recent conversions,
newest first.

Examples:
  pcmflow stats
  pcmflow stats --limit 50
  pcmflow stats --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, limit, jsonOutput)
		},
	}

	statsCmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of recent runs to show")
	statsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return statsCmd
}

// statsReport is the JSON shape produced by stats --json
type statsReport struct {
	Summary *tracking.Summary        `json:"summary"`
	Recent  []tracking.ConversionRun `json:"recent"`
}

// runStats implements the stats subcommand
func runStats(cmd *cobra.Command, limit int, jsonOutput bool) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		slog.Error("CLI instance not found in context")
		return fmt.Errorf("CLI instance not found in context")
	}

	// Piped output gets JSON without asking
	if !jsonOutput && cli.isPipedOutput(cmd.OutOrStdout()) {
		jsonOutput = true
		slog.Debug("non-interactive stdout, switching to JSON output")
	}

	cli.initializeHistory()
	if cli.historyDB == nil {
		cmd.PrintErrln("Error: conversion history is unavailable")
		return fmt.Errorf("conversion history is unavailable")
	}

	recorder, err := tracking.NewRecorder(cli.historyDB)
	if err != nil {
		return fmt.Errorf("failed to create history recorder: %w", err)
	}

	summary, err := recorder.Summarize()
	if err != nil {
		cmd.PrintErrf("Error reading history: %v\n", err)
		return fmt.Errorf("error reading history: %w", err)
	}

	recent, err := recorder.RecentRuns(limit)
	if err != nil {
		cmd.PrintErrf("Error reading history: %v\n", err)
		return fmt.Errorf("error reading history: %w", err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(statsReport{Summary: summary, Recent: recent}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("total runs:      %d\n", summary.TotalRuns)
	cmd.Printf("failed runs:     %d\n", summary.FailedRuns)
	cmd.Printf("total frames:    %d\n", summary.TotalFrames)
	cmd.Printf("total bytes:     %d\n", summary.TotalBytes)
	cmd.Printf("total fallbacks: %d\n", summary.TotalFallbacks)

	if len(recent) > 0 {
		cmd.Println()
		cmd.Println("recent conversions:")
		for _, run := range recent {
			status := "ok"
			if run.Failed() {
				status = "failed: " + run.Error
			}
			cmd.Printf("  %s  %s  %dHz/%dch -> %dHz/%dch  %s  %s\n",
				run.Timestamp.Format("2006-01-02 15:04:05"),
				run.SourcePath,
				run.SourceRate, run.SourceChannels,
				run.TargetRate, run.TargetChannels,
				run.Backend, status)
		}
	}

	return nil
}
