package tui

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/headlines/internal/card"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

type marksLoadedMsg struct {
	gen        int
	bookmarked map[string]bool
	seen       map[string]bool
}

type articleRenderedMsg struct {
	id      string
	content string
}

type bookmarkToggledMsg struct {
	article *storage.Article
	saved   bool
	err     error
}

type bookmarksLoadedMsg struct {
	bookmarks []*storage.Bookmark
}

type searchResultsMsg struct {
	seq     int
	results []*search.Result
}

type searchDebounceFireMsg struct {
	seq int
}

type errorMsg struct {
	err error
}

func articleIDs(articles []*storage.Article) []string {
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	return ids
}

// loadMarks looks up which of the loaded articles are bookmarked or seen.
func (a *App) loadMarks(gen int, articles []*storage.Article) tea.Cmd {
	if a.store == nil || len(articles) == 0 {
		return nil
	}
	store := a.store
	ids := articleIDs(articles)
	return func() tea.Msg {
		bookmarked, err := store.BookmarkedIDs(ids)
		if err != nil {
			return errorMsg{err: wrapErr("loading bookmarks", err)}
		}
		seen, err := store.SeenIDs(ids)
		if err != nil {
			return errorMsg{err: wrapErr("loading seen marks", err)}
		}
		return marksLoadedMsg{gen: gen, bookmarked: bookmarked, seen: seen}
	}
}

func articleMarkdown(article *storage.Article, opts card.Options) string {
	c := card.New(article, opts)

	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", strings.TrimSpace(article.Title)))
	content.WriteString(fmt.Sprintf("*By %s on %s*", c.Author, c.Date))
	if c.SourceName != "" {
		content.WriteString(fmt.Sprintf(" • **%s**", c.SourceName))
	}
	content.WriteString("\n\n")

	if article.URL != "" {
		content.WriteString(fmt.Sprintf("[Read Online](%s)\n\n", article.URL))
	}
	if c.HasImage {
		content.WriteString(fmt.Sprintf("Image: %s\n\n", c.ImageURL))
	}

	content.WriteString("---\n\n")

	if article.Description != "" {
		content.WriteString(toMarkdown(article.Description))
		content.WriteString("\n\n")
	}
	if article.Content != "" && article.Content != article.Description {
		content.WriteString(toMarkdown(article.Content))
		content.WriteString("\n")
	}
	return content.String()
}

// toMarkdown converts the HTML some publishers put in descriptions. Plain
// text passes through unchanged.
func toMarkdown(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		debuglog.Debugf("html to markdown: %v", err)
		return s
	}
	return strings.TrimSpace(md)
}

// renderArticle renders the reader page with an already built renderer.
func renderArticle(r *glamour.TermRenderer, article *storage.Article, opts card.Options) tea.Cmd {
	return func() tea.Msg {
		rendered, err := r.Render(articleMarkdown(article, opts))
		if err != nil {
			// always answer so the loading flag clears
			return articleRenderedMsg{
				id:      article.ID,
				content: fmt.Sprintf("Failed to render article: %s\n\nPress Escape to go back.", err.Error()),
			}
		}
		return articleRenderedMsg{id: article.ID, content: rendered}
	}
}

func (a *App) markSeen(article *storage.Article) tea.Cmd {
	if a.store == nil {
		return nil
	}
	store := a.store
	return func() tea.Msg {
		if err := store.MarkSeen(article.ID); err != nil {
			return errorMsg{err: wrapErr("marking seen", err)}
		}
		return nil
	}
}

func (a *App) toggleBookmark(article *storage.Article) tea.Cmd {
	if a.store == nil || article == nil {
		return nil
	}
	store := a.store
	listener, _ := a.searcher.(search.BookmarkListener)
	wasSaved := a.bookmarked[article.ID]
	return func() tea.Msg {
		if wasSaved {
			if err := store.DeleteBookmark(article.ID); err != nil {
				return bookmarkToggledMsg{article: article, saved: true, err: err}
			}
			if listener != nil {
				listener.OnBookmarkRemoved(article.ID)
			}
			return bookmarkToggledMsg{article: article, saved: false}
		}
		if _, err := store.SaveBookmark(article); err != nil {
			return bookmarkToggledMsg{article: article, saved: false, err: err}
		}
		if listener != nil {
			listener.OnBookmarked(article)
		}
		return bookmarkToggledMsg{article: article, saved: true}
	}
}

func (a *App) loadBookmarks() tea.Cmd {
	if a.store == nil {
		return func() tea.Msg { return bookmarksLoadedMsg{} }
	}
	store := a.store
	return func() tea.Msg {
		bookmarks, err := store.GetBookmarks()
		if err != nil {
			return errorMsg{err: wrapErr("loading bookmarks", err)}
		}
		return bookmarksLoadedMsg{bookmarks: bookmarks}
	}
}

func (a *App) performSearch(query string, seq int) tea.Cmd {
	searcher := a.searcher
	if searcher == nil {
		return nil
	}
	return func() tea.Msg {
		results, err := searcher.Search(query, 20)
		if err != nil {
			return errorMsg{err: wrapErr("search", err)}
		}
		return searchResultsMsg{seq: seq, results: results}
	}
}

func (a *App) openLink(link string, image bool) tea.Cmd {
	if a.opener == nil || link == "" {
		return nil
	}
	opener := a.opener
	return func() tea.Msg {
		var err error
		if image {
			err = opener.OpenImage(link)
		} else {
			err = opener.OpenURL(link)
		}
		if err != nil {
			debuglog.Warnf("open %s: %v", link, err)
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", link, err)}
		}
		return nil
	}
}
