package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/card"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/tui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("generating config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the routes and the category each one loads",
	RunE: func(cmd *cobra.Command, args []string) error {
		routes, err := tui.Routes()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, r := range routes {
			fmt.Fprintf(out, "%d  %-15s %-14s %s\n", i+1, r.Path, r.Category, r.Label)
		}
		return nil
	},
}

var (
	fetchPages int
	fetchWidth int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [category]",
	Short: "Print headline cards without starting the UI",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFetch,
}

func init() {
	configGenerateCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configGenerateCmd)

	fetchCmd.Flags().IntVar(&fetchPages, "pages", 1, "number of pages to load")
	fetchCmd.Flags().IntVar(&fetchWidth, "width", 80, "card width")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		flagCategory = args[0]
	}
	name, err := selectedRoute()
	if err != nil {
		return err
	}
	if name == "" {
		name = cfg.Feed.DefaultCategory
	}
	routes, err := tui.Routes()
	if err != nil {
		return err
	}
	i, ok := tui.FindRoute(routes, name)
	if !ok {
		return fmt.Errorf("unknown category %q", name)
	}
	route := routes[i]

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ctrl := feed.NewController(route.Category, client, feed.Options{
		Country:  cfg.API.Country,
		PageSize: cfg.API.PageSize,
		Dedupe:   cfg.Feed.Dedupe,
	})
	if err := loadPages(ctx, ctrl, fetchPages); err != nil {
		return err
	}

	tui.ApplyTheme(cfg.UI.Colors)
	printCards(cmd, route, ctrl.State())
	return nil
}

// loadPages initializes ctrl and fetches until pages are loaded or the feed
// runs out.
func loadPages(ctx context.Context, ctrl *feed.Controller, pages int) error {
	if err := ctrl.Initialize(ctx); err != nil {
		return err
	}
	for p := 1; p < pages && ctrl.HasMore(); p++ {
		if err := ctrl.FetchNextPage(ctx); err != nil {
			return err
		}
	}
	return nil
}

func printCards(cmd *cobra.Command, route tui.Route, state feed.State) {
	out := cmd.OutOrStdout()
	opts := tui.CardOptions(cfg.UI.Card)
	styles := card.NewStyles(tui.PrimaryColor, tui.TextColor, tui.MutedColor)

	fmt.Fprintln(out, tui.HeaderStyle.Render(tui.MsgFeedHeader(route.Label)))
	fmt.Fprintln(out)
	for _, a := range state.Articles {
		fmt.Fprintln(out, card.Render(card.New(a, opts), fetchWidth, styles, card.RenderState{}))
	}
	summary := fmt.Sprintf("%s (page %d)", tui.MsgLoaded(len(state.Articles), state.TotalResults), state.Page)
	if state.Exhausted {
		summary += " • " + strings.ToLower(tui.MsgEndOfFeed)
	}
	fmt.Fprintln(out, tui.HelpStyle.Render(summary))
}
