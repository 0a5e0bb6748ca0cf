package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/pcapview/internal/web"
)

var webPort int

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the browser UI",
	Long: `Start a web server offering the upload page, the analysis history and
record details with an interactive host graph.

The server also exposes:
- /api/graph/{id}  vis-network JSON for a record (CORS enabled)
- /history/{id}/graph.mmd  Mermaid export
- /metrics  Prometheus metrics
- /healthz  liveness

Examples:
  pcapview web
  pcapview web --port 9090 --service-url http://analyzer:8000`,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().IntVarP(&webPort, "port", "p", 8080, "Web server port")
}

func runWeb(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("port") {
		cfg.WebPort = webPort
	}

	journal, j, closeJournal, err := openJournal()
	if err != nil {
		return err
	}
	defer closeJournal()

	geo, closeGeo := openGeo()
	defer closeGeo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting web server on http://localhost:%d (service %s)\n", cfg.WebPort, cfg.ServiceURL)
	fmt.Println("Press Ctrl+C to stop")

	if j != nil {
		go j.Retain(ctx, cfg.JournalRetention, time.Hour)
	}

	srv := web.NewServer(cfg, newClient(), journal, geo)
	return srv.Run(ctx)
}
