package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/abelbrown/marquee/internal/config"
	"github.com/abelbrown/marquee/internal/logging"
	"github.com/abelbrown/marquee/internal/trending"
	"github.com/abelbrown/marquee/internal/ui"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Print the most searched movies",
	Args:  cobra.NoArgs,
	RunE:  runTrending,
}

func init() {
	rootCmd.AddCommand(trendingCmd)
}

func runTrending(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWith((*config.Config).ValidateTrending)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.Log.Level)
	d, err := wire(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	// Read the store directly so a broken backend fails the command.
	entries, err := d.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list trending: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), ui.MutedText.Render("Nothing is trending yet."))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), trendingTable(entries))
	return nil
}

// trendingTable renders entries as a ranked table.
func trendingTable(entries []trending.Entry) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(ui.MutedText).
		Headers("#", "TITLE", "SEARCHES", "LAST QUERY", "POSTER")
	for i, e := range entries {
		t.Row(strconv.Itoa(i+1), e.Title, strconv.Itoa(e.Count), e.SearchTerm, e.PosterURL)
	}
	return t.String()
}
