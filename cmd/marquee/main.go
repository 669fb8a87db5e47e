package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/marquee/internal/config"
	"github.com/abelbrown/marquee/internal/logging"
	"github.com/abelbrown/marquee/internal/otel"
	"github.com/abelbrown/marquee/internal/ui"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "marquee",
	Short: "Find movies from your terminal",
	Long: `Marquee searches The Movie Database as you type and keeps a
rail of the movies people search for most.

Run without a subcommand to start the interactive finder.`,
	Version:       logging.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $MARQUEE_CONFIG, ./marquee.yaml, ~/.marquee/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "marquee:", err)
		os.Exit(1)
	}
}

// loadConfig loads and fully validates configuration, honouring --config.
func loadConfig() (*config.Config, error) {
	return loadConfigWith((*config.Config).Validate)
}

func loadConfigWith(validate func(*config.Config) error) (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.PathEnvVar, configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := logging.OpenFile(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	d, err := wire(cfg, logFile.Logger)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runSearch := func(gen uint64, query string) tea.Cmd {
		return func() tea.Msg {
			return ui.SearchFinished{Outcome: d.service.Run(ctx, gen, query)}
		}
	}
	loadTrending := func() tea.Cmd {
		return func() tea.Msg {
			return ui.TrendingLoaded{Entries: d.tracker.Top(ctx)}
		}
	}

	app := ui.NewApp(runSearch, loadTrending, ui.Options{
		Debounce: cfg.UI.Debounce,
		Events:   d.events,
		Recent:   d.recent,
	})

	d.events.Info(otel.KindStartup, "main", "tui")
	logFile.Logger.Info("starting tui", "backend", cfg.Trending.Backend, "debounce", cfg.UI.Debounce)

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		logFile.Logger.Error("program exited", "err", err)
		return reportFailure(d.events, "run ui", err)
	}

	d.events.Info(otel.KindShutdown, "main", "tui")
	return nil
}

// reportFailure records err as a sys.error event and wraps it for cobra.
func reportFailure(events *otel.Logger, what string, err error) error {
	err = fmt.Errorf("%s: %w", what, err)
	events.Error(otel.KindError, "main", err)
	return err
}
