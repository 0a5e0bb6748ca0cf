package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/pcapview/internal/history"
	"github.com/user/pcapview/internal/view"
)

var (
	historyPage     int
	historyPageSize int
	historySort     string
	historyDir      string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses",
	Long: `List one page of the analysis history. Sorting reorders the fetched
page only; it does not change which records are on the page.

Examples:
  pcapview history
  pcapview history --page 3
  pcapview history --sort filename --dir asc`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyPage, "page", 1, "Page number (1-based)")
	historyCmd.Flags().IntVar(&historyPageSize, "page-size", 0, "Records per page (default from config)")
	historyCmd.Flags().StringVar(&historySort, "sort", "timestamp", "Sort column (id, filename, timestamp, status)")
	historyCmd.Flags().StringVar(&historyDir, "dir", "", "Sort direction (asc, desc)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	size := cfg.PageSize
	if historyPageSize > 0 {
		size = historyPageSize
	}

	sortState, err := parseSortFlags(historySort, historyDir)
	if err != nil {
		return err
	}

	v := view.NewHistoryView(size, cfg.MaxPageButtons)
	v.SetSort(sortState)

	c := newClient()
	req := v.Open(historyPage)
	page, err := c.History(cmd.Context(), req.Skip, req.Limit)
	v.Receive(req.Ticket, page, err)

	snap := v.Snapshot()
	if snap.OutOfRange {
		fmt.Fprintln(cmd.ErrOrStderr(), labelStyle.Render(fmt.Sprintf("Page %d is past the last page, showing page %d.", historyPage, snap.Window.TotalPages)))
		if req, ok := v.GoTo(snap.Window.TotalPages); ok {
			page, err = c.History(cmd.Context(), req.Skip, req.Limit)
			v.Receive(req.Ticket, page, err)
			snap = v.Snapshot()
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case snap.Failed:
		return errors.New(snap.Message)
	case len(snap.Rows) == 0:
		fmt.Fprintln(out, labelStyle.Render(snap.Message))
		return nil
	}

	header := make([]string, 0, len(snap.Headers)+1)
	for _, h := range snap.Headers {
		t := h.Title
		if h.Indicator != "" {
			t += " " + h.Indicator
		}
		header = append(header, t)
	}
	header = append(header, "Error")

	rows := make([][]string, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		rows = append(rows, []string{fmt.Sprint(r.ID), r.Filename, r.Timestamp, string(r.Status), r.Error})
	}
	printTable(out, header, rows)

	fmt.Fprintln(out)
	fmt.Fprintln(out, labelStyle.Render(fmt.Sprintf("Page %d of %d (%d records)", snap.Window.CurrentPage, snap.Window.TotalPages, snap.Total)))
	return nil
}

func parseSortFlags(col, dir string) (history.SortState, error) {
	s := history.DefaultSort
	c, ok := history.ParseColumn(col)
	if !ok {
		return s, fmt.Errorf("unknown sort column %q", col)
	}
	if c != s.Column {
		s = s.Toggle(c)
	}
	if dir != "" {
		d, ok := history.ParseDirection(dir)
		if !ok {
			return s, fmt.Errorf("unknown sort direction %q", dir)
		}
		s.Direction = d
	}
	return s, nil
}
