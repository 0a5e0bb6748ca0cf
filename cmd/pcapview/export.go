package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/pcapview/internal/client"
	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/model"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a record's host graph",
	Long: `Export the host graph of one analysis record.

Formats:
  mermaid   Mermaid flowchart
  markdown  Mermaid flowchart in a fenced block
  json      vis-network nodes, edges and options

Examples:
  pcapview export 42
  pcapview export 42 --format json -o graph.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "mermaid",
		"Output format (mermaid, markdown, json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-",
		"Output file path, - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	switch exportFormat {
	case "mermaid", "markdown", "json":
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}

	rec, err := newClient().Record(cmd.Context(), id)
	switch {
	case errors.Is(err, client.ErrNotFound):
		return fmt.Errorf("No record found for ID: %d", id)
	case err != nil:
		return errors.New(client.UserMessage(err))
	case !rec.HasAnalysis():
		return fmt.Errorf("No analysis data available for this record (status: %s).", rec.Status)
	}

	geo, closeGeo := openGeo()
	defer closeGeo()
	nodes := geo.Annotate(rec.AnalysisData.Nodes)
	edges := rec.AnalysisData.Edges

	var content []byte
	switch exportFormat {
	case "mermaid":
		content = []byte(graph.Mermaid(nodes, edges))
	case "markdown":
		content = []byte(graph.MermaidMarkdown(nodes, edges))
	case "json":
		content, err = visJSON(nodes, edges)
		if err != nil {
			return err
		}
	}

	if exportOutput == "-" {
		_, err = cmd.OutOrStdout().Write(content)
		return err
	}
	if err := os.WriteFile(exportOutput, content, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Graph saved to: %s\n", exportOutput)
	return nil
}

func visJSON(nodes []model.GraphNode, edges []model.GraphEdge) ([]byte, error) {
	scope := graph.NewScope(graph.VisRenderer{})
	defer scope.Release()
	if err := scope.Update(nodes, edges); err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	payload, ok := scope.Instance().(*graph.VisPayload)
	if !ok {
		return nil, errors.New("record has no hosts to export")
	}
	b, err := payload.JSON()
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
