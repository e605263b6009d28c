package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

const (
	MsgLoadingMore    = "Loading more…"
	MsgLoadingArticle = "Loading article…"
	MsgNoResults      = "No results"
	MsgEndOfFeed      = "No more headlines"
	MsgBookmarked     = "Bookmarked"
	MsgUnbookmarked   = "Bookmark removed"
	MsgRetrying       = "Retrying…"
	MsgNoBookmarks    = "No bookmarks yet. Press b on a headline to save it."
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgFeedHeader is the heading shown above a category's cards.
func MsgFeedHeader(label string) string {
	return fmt.Sprintf("Today's News - Top %s Headlines", strings.TrimSpace(label))
}

// MsgWindowTitle is the terminal title for a category.
func MsgWindowTitle(label string) string {
	return fmt.Sprintf("%s - %s", strings.TrimSpace(label), AppName)
}

func MsgLoaded(loaded, total int) string {
	return fmt.Sprintf("%d of %d", loaded, total)
}

func MsgSearchStats(engine string, docs int) string {
	if docs >= 0 {
		return fmt.Sprintf("Search: %s • idx: %d", engine, docs)
	}
	return fmt.Sprintf("Search: %s", engine)
}

type clearStatusMsg struct {
	seq int
}

// setStatus shows text in the status bar. A positive ttl clears it later.
func (a *App) setStatus(text string, kind StatusKind, ttl time.Duration) tea.Cmd {
	a.statusSeq++
	a.status = text
	a.statusKind = kind
	if ttl <= 0 {
		return nil
	}
	seq := a.statusSeq
	return tea.Tick(ttl, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

func (a *App) renderStatus() string {
	if a.status == "" {
		return ""
	}
	switch a.statusKind {
	case StatusSuccess:
		return StatusSuccessStyle.Render(a.status)
	case StatusWarn:
		return StatusWarnStyle.Render(a.status)
	case StatusError:
		return StatusErrorStyle.Render("✗ " + a.status)
	default:
		return StatusInfoStyle.Render(a.status)
	}
}
