package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/view"
)

var showNoPlot bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one analysis record",
	Long: `Show the status, alerts and host graph of one analysis record.

Examples:
  pcapview show 42
  pcapview show 42 --no-plot`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showNoPlot, "no-plot", false, "Do not draw the host graph")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	geo, closeGeo := openGeo()
	defer closeGeo()

	v := view.NewDetailView(graph.NewForceLayout(), geo)
	defer v.Close()

	ticket := v.Load(id)
	rec, err := newClient().Record(cmd.Context(), id)
	v.Receive(ticket, rec, err)

	snap := v.Snapshot()
	if snap.Failed || snap.NotFound {
		return errors.New(snap.Message)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(snap.Title))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", "Status:")), statusText(snap.Status))
	printField(out, "Timestamp", snap.Timestamp)
	if snap.Error != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", "Error:")), failStyle.Render(snap.Error))
	}

	if snap.Result == nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, labelStyle.Render(snap.NoDataText))
		return nil
	}
	printResult(out, snap.Result, !showNoPlot)
	return nil
}
