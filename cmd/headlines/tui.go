package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/opener"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	route, err := selectedRoute()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	dbPath, err := pathValidator(flagDB != "").PrepareFile(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database path: %w", err)
	}
	store, err := storage.NewStoreWithTimeout(dbPath, cfg.Database.Timeout)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	tui.ApplyTheme(cfg.UI.Colors)
	if !flagQuiet {
		tui.ShowBanner(Version)
	}

	app := tui.NewApp(store, cfg, client)
	app.SetOpener(opener.NewLauncher(cfg.Browser))
	app.SetInitialRoute(route)
	defer app.Close()

	if index := openSearchIndex(store); index != nil {
		defer index.Close()
		app.SetSearcher(index)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// openSearchIndex opens the bleve index over bookmarks. On failure the app
// keeps its scanning search.
func openSearchIndex(store *storage.Store) *search.BleveEngine {
	indexPath := cfg.Database.SearchIndex
	if indexPath != "" {
		prepared, err := pathValidator(false).PrepareDir(indexPath)
		if err != nil {
			debuglog.Warnf("search index path %s: %v", indexPath, err)
			return nil
		}
		indexPath = prepared
	}
	index, err := search.NewBleveEngine(store, indexPath)
	if err != nil {
		debuglog.Warnf("opening search index: %v", err)
		return nil
	}
	return index
}
