package main

import (
	"github.com/spf13/cobra"

	"github.com/user/pcapview/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the terminal UI",
	Long: `Launch an interactive terminal UI for the analysis service.

Screens:
- Upload: type a capture path and press enter to analyze it
- History: page through past analyses, sort with 1-4, open one with enter
- Details: alerts and a live force-directed host graph; tab selects a host

F1 and F2 switch screens, ctrl+c quits.`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	journal, _, closeJournal, err := openJournal()
	if err != nil {
		return err
	}
	defer closeJournal()

	geo, closeGeo := openGeo()
	defer closeGeo()

	app := tui.NewApp(newClient(), cfg, journal, geo)
	return app.Run()
}
