package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/storage"
	"github.com/user/pcapview/internal/view"
)

var (
	uploadJSON   bool
	uploadNoPlot bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a capture for analysis",
	Long: `Upload a .pcap or .pcapng file to the analysis service and print the
alerts and host graph it produced. The service decides whether the file
is acceptable; its message is shown as is.

Examples:
  pcapview upload ./cap1.pcap
  pcapview upload ./cap1.pcap --json > result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "Print the raw analysis result as JSON")
	uploadCmd.Flags().BoolVar(&uploadNoPlot, "no-plot", false, "Do not draw the host graph")
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat capture: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	journal, _, closeJournal, err := openJournal()
	if err != nil {
		return err
	}
	defer closeJournal()

	v := view.NewUploadView()
	defer v.Reset()
	v.SelectFile(path)
	ticket, _, ok := v.Submit()
	if !ok {
		return errors.New(v.Message())
	}

	out := cmd.OutOrStdout()
	if !uploadJSON {
		fmt.Fprintln(out, labelStyle.Render(view.MsgUploading))
	}

	name := filepath.Base(path)
	done := storage.Track(journal, name, st.Size())
	resp, err := newClient().Upload(cmd.Context(), name, f)
	v.Complete(ticket, resp, err)

	res, ok := v.Result()
	if !ok {
		done(nil, v.Message())
		return errors.New(strings.TrimPrefix(v.Message(), "Error: "))
	}
	done(&res, v.Message())

	if uploadJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintln(out, okStyle.Render(v.Message()))

	geo, closeGeo := openGeo()
	defer closeGeo()
	rv := view.NewResultView(graph.NewForceLayout(), geo)
	defer rv.Close()
	rv.Show(res)
	printResult(out, rv, !uploadNoPlot)
	return nil
}
