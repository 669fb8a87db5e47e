package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/marquee/internal/logging"
	"github.com/abelbrown/marquee/internal/search"
	"github.com/abelbrown/marquee/internal/ui"
)

var (
	searchRecord bool
	searchWidth  int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one search and print the results",
	Long: `Run one search and print it with the same renderer as the TUI.
With no query the popular-movies listing is shown. Searches made here
only count towards trending when --record is set.`,
	RunE: runSearchCmd,
}

var errSearchFailed = errors.New("search failed")

func init() {
	searchCmd.Flags().BoolVar(&searchRecord, "record", false, "count the top result towards trending")
	searchCmd.Flags().IntVar(&searchWidth, "width", 100, "render width in columns")
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.Log.Level)
	d, err := wire(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	svc := d.service
	if !searchRecord {
		svc = svc.WithoutRecording()
	}

	query := strings.Join(args, " ")
	state, gen := search.State{}.WithQuery(query).Begin(query)
	state = state.Complete(svc.Run(cmd.Context(), gen, query))
	if searchRecord {
		state = state.WithTrending(d.tracker.Top(cmd.Context()))
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Render(ui.Frame{
		State:     state,
		SearchBox: query,
		Width:     searchWidth,
	}))

	if state.Phase() == search.PhaseError {
		return errSearchFailed
	}
	return nil
}
