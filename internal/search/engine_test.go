package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/storage"
)

func seededStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	arts := []*storage.Article{
		{Title: "Hello World", Description: "greeting article", URL: "https://example.com/1", SourceName: "Daily"},
		{Title: "Golang Tips", Description: "bleve and search", URL: "https://example.com/2", Content: "Using bleve for full text search", SourceName: "Gopher Weekly"},
		{Title: "Markets slide", Description: "stocks fall on rate fears", URL: "https://example.com/3", Author: "Ada Lovelace"},
	}
	for _, a := range arts {
		a.ID = storage.ArticleID(a.URL)
		_, err := store.SaveBookmark(a)
		require.NoError(t, err)
	}
	return store
}

func TestSearchMinLength(t *testing.T) {
	engine := NewEngine(seededStore(t))

	for _, q := range []string{"", "a", "   "} {
		res, err := engine.Search(q, 10)
		require.NoError(t, err)
		assert.Empty(t, res, "query %q", q)
	}
}

func TestEngineSearch(t *testing.T) {
	engine := NewEngine(seededStore(t))

	res, err := engine.Search("golang", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Golang Tips", res[0].Article.Title)
	assert.Equal(t, "title", res[0].Matches[0].Field)

	res, err = engine.Search("bleve", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)

	res, err = engine.Search("lovelace", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Markets slide", res[0].Article.Title)

	res, err = engine.Search("nothing-matches-this", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestEngineSearch_TitleOutranksDescription(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "rank.db"))
	require.NoError(t, err)
	defer store.Close()

	for _, a := range []*storage.Article{
		{Title: "Other news", Description: "mentions climate once", URL: "https://example.com/a"},
		{Title: "Climate summit opens", Description: "leaders meet", URL: "https://example.com/b"},
	} {
		a.ID = storage.ArticleID(a.URL)
		_, err := store.SaveBookmark(a)
		require.NoError(t, err)
	}

	res, err := NewEngine(store).Search("climate", 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Climate summit opens", res[0].Article.Title)
}

func TestEngineSearch_Limit(t *testing.T) {
	engine := NewEngine(seededStore(t))
	res, err := engine.Search("example article search stocks", 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res), 1)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"Hello-World", []string{"hello", "world"}},
		{"a b cd", []string{"cd"}},
		{"Go 1.24 released!", []string{"go", "24", "released"}},
		{"", nil},
		{"Über straße", []string{"über", "straße"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tokenize(tt.input), "tokenize(%q)", tt.input)
	}
}

func TestRecencyBoost(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Zero(t, recencyBoost(time.Time{}, now))
	assert.Zero(t, recencyBoost(now.Add(-8*24*time.Hour), now))
	assert.InDelta(t, 0.1, recencyBoost(now, now), 1e-9)
	assert.InDelta(t, 0.05, recencyBoost(now.Add(-84*time.Hour), now), 1e-9)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
