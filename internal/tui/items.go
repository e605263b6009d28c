package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

type bookmarkItem struct {
	bookmark *storage.Bookmark
}

func (i bookmarkItem) Title() string {
	return "★ " + i.bookmark.Article.Title
}

func (i bookmarkItem) Description() string {
	a := i.bookmark.Article
	desc := truncateEnd(a.Description, 80)
	meta := a.SourceName
	if !i.bookmark.SavedAt.IsZero() {
		if meta != "" {
			meta += " • "
		}
		meta += "saved " + i.bookmark.SavedAt.Format("Jan 2, 15:04")
	}
	if meta == "" {
		return renderMuted(desc)
	}
	return renderMuted(desc) + TimeStyle.Render(" • "+meta)
}

func (i bookmarkItem) FilterValue() string {
	return i.bookmark.Article.Title + " " + i.bookmark.Article.SourceName
}

type searchResultItem struct {
	result *search.Result
}

func (i searchResultItem) Title() string {
	return lipgloss.NewStyle().Foreground(TextColor).Render(i.result.Article.Title)
}

func (i searchResultItem) Description() string {
	a := i.result.Article
	snippet := a.Description
	for _, m := range i.result.Matches {
		if m.Field != "title" && m.Text != "" {
			snippet = m.Text
			break
		}
	}
	snippet = truncateEnd(snippet, 60)

	source := a.SourceName
	if source == "" {
		source = "Unknown source"
	}
	when := ""
	if !a.PublishedAt.IsZero() {
		when = " • " + a.PublishedAt.Format("Jan 2")
	}
	return renderMuted(snippet + " • from " + source + when)
}

func (i searchResultItem) FilterValue() string {
	return i.result.Article.Title + " " + i.result.Article.Description
}
