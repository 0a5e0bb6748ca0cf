package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/pcapview/internal/client"
	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/storage"
	"github.com/user/pcapview/internal/util"
)

var (
	cfgFile string
	cfg     *util.Config

	// version is set at build time with -ldflags "-X main.version=...".
	version = "dev"
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "pcapview",
	Short: "Operator client for the pcap analysis service",
	Long: `pcapview talks to a pcap analysis service. It can:
- Upload a capture and show the alerts and host graph it produced
- Page through the analysis history and open any past record
- Export a record's host graph as Mermaid or JSON

Use "pcapview web" for the browser UI or "pcapview ui" for the terminal UI.`,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		util.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.pcapview/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("service-url", "",
		"analysis service base URL (default http://localhost:8000)")

	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(versionCmd)

	// Add shell completion
	rootCmd.AddCommand(completionCmd)
}

func initConfig() {
	var err error
	cfg, err = util.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	flags := rootCmd.PersistentFlags()
	if f := flags.Lookup("log-level"); f.Changed {
		cfg.LogLevel = f.Value.String()
	}
	if f := flags.Lookup("service-url"); f.Changed {
		cfg.ServiceURL = f.Value.String()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
}

// initLogging starts the file logger. Only the web server mirrors logs to
// the console; the terminal UI owns the screen and the CLI prints results.
func initLogging(cmd *cobra.Command, args []string) error {
	return util.InitLogger(util.LogOptions{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Console:    cmd.Name() == "web",
	})
}

func newClient() *client.Client {
	return client.New(client.Config{
		BaseURL: cfg.ServiceURL,
		Timeout: cfg.RequestTimeout,
	})
}

// openJournal opens the upload journal. With the journal disabled it
// returns a recorder that discards writes and a nil journal.
func openJournal() (storage.Recorder, *storage.Journal, func(), error) {
	if !cfg.JournalEnabled {
		return storage.NopRecorder{}, nil, func() {}, nil
	}
	db, err := storage.Open(cfg.JournalPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open journal: %w", err)
	}
	j := storage.NewJournal(db)
	return j, j, func() { db.Close() }, nil
}

// openGeo loads the optional MaxMind databases. Missing configuration is
// not an error; a configured but unreadable database is logged and skipped.
func openGeo() (*graph.GeoAnnotator, func()) {
	if cfg.GeoIPCityDB == "" && cfg.GeoIPASNDB == "" {
		return nil, func() {}
	}
	mm, err := graph.OpenMaxMind(cfg.GeoIPCityDB, cfg.GeoIPASNDB)
	if err != nil {
		util.Warn("GeoIP enrichment disabled: %v", err)
		return nil, func() {}
	}
	return graph.NewGeoAnnotator(mm), mm.Close
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pcapview version %s\n", version)
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for pcapview.

To load completions:

Bash:
  $ source <(pcapview completion bash)

Zsh:
  $ source <(pcapview completion zsh)

Fish:
  $ pcapview completion fish | source

PowerShell:
  PS> pcapview completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}
