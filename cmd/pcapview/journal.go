package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	journalLimit int
	journalPrune string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List uploads made from this machine",
	Long: `List the local upload journal: every capture this client submitted,
with its size, outcome and the number of hosts and alerts found.

The journal is a log of this client's uploads, not a copy of the
service history; use "pcapview history" for that.

Examples:
  pcapview journal
  pcapview journal --limit 100
  pcapview journal --prune 30d`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Number of entries to show")
	journalCmd.Flags().StringVar(&journalPrune, "prune", "",
		"Delete entries older than this (e.g., 24h, 30d, 2w)")
}

func runJournal(cmd *cobra.Command, args []string) error {
	_, j, closeJournal, err := openJournal()
	if err != nil {
		return err
	}
	defer closeJournal()

	out := cmd.OutOrStdout()
	if j == nil {
		fmt.Fprintln(out, labelStyle.Render("The upload journal is disabled (journal_enabled: false)."))
		return nil
	}

	if journalPrune != "" {
		age, err := parseDuration(journalPrune)
		if err != nil {
			return fmt.Errorf("invalid prune age: %w", err)
		}
		n, err := j.Prune(age)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pruned %d entries older than %s\n", n, journalPrune)
	}

	entries, err := j.List(journalLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, labelStyle.Render("No uploads recorded yet."))
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		took := "-"
		if !e.CompletedAt.IsZero() {
			took = e.CompletedAt.Sub(e.SubmittedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			fmt.Sprint(e.ID),
			e.SubmittedAt.Local().Format("2006-01-02 15:04:05"),
			e.Filename,
			formatSize(e.SizeBytes),
			e.Outcome,
			took,
			fmt.Sprint(e.NodeCount),
			fmt.Sprint(e.AlertCount),
			e.Message,
		})
	}
	printTable(out, []string{"ID", "SUBMITTED", "FILE", "SIZE", "OUTCOME", "TOOK", "HOSTS", "ALERTS", "MESSAGE"}, rows)
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	// Handle days
	if len(s) > 0 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}

	// Handle weeks
	if len(s) > 0 && s[len(s)-1] == 'w' {
		var weeks int
		if _, err := fmt.Sscanf(s, "%dw", &weeks); err == nil {
			return time.Duration(weeks) * 7 * 24 * time.Hour, nil
		}
	}

	// Standard duration
	return time.ParseDuration(s)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
