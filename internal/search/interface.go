package search

import "github.com/pders01/headlines/internal/storage"

// Searcher is the search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// BookmarkListener is implemented by engines that keep their own index and
// need to follow bookmark changes.
type BookmarkListener interface {
	OnBookmarked(article *storage.Article)
	OnBookmarkRemoved(articleID string)
}

// DebugStatser reports index size for the status bar.
type DebugStatser interface {
	DocCount() (int, error)
}

// Result is one matching bookmark.
type Result struct {
	Article *storage.Article
	Score   float64
	Matches []Match
}

// Match records which field matched and a snippet of it.
type Match struct {
	Field  string
	Text   string
	Weight float64
}
