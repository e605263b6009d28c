package card

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/pders01/headlines/internal/storage"
)

func TestNew_Truncation(t *testing.T) {
	a := &storage.Article{
		Title:       strings.Repeat("t", 100),
		Description: strings.Repeat("d", 200),
	}

	c := New(a, DefaultOptions())

	assert.Equal(t, 45, utf8.RuneCountInString(c.Title))
	assert.True(t, c.TitleTruncated)
	assert.Equal(t, 88, utf8.RuneCountInString(c.Description))
	assert.True(t, c.DescriptionTruncated)
}

func TestNew_ShortFieldsUntouched(t *testing.T) {
	a := &storage.Article{Title: "Short", Description: "Also short"}
	c := New(a, DefaultOptions())

	assert.Equal(t, "Short", c.Title)
	assert.False(t, c.TitleTruncated)
	assert.Equal(t, "Also short", c.Description)
	assert.False(t, c.DescriptionTruncated)
}

func TestNew_TruncatesRunesNotBytes(t *testing.T) {
	a := &storage.Article{Title: strings.Repeat("é", 60)}
	c := New(a, DefaultOptions())

	assert.True(t, utf8.ValidString(c.Title))
	assert.Equal(t, 45, utf8.RuneCountInString(c.Title))
}

func TestNew_AbsentFields(t *testing.T) {
	c := New(&storage.Article{URL: "https://example.com/x"}, DefaultOptions())

	assert.Equal(t, "", c.Title)
	assert.Equal(t, "", c.Description)
	assert.Equal(t, "Unknown", c.Author)
	assert.Equal(t, "https://placehold.co/600x400?text=No+Image", c.ImageURL)
	assert.False(t, c.HasImage)
	assert.Equal(t, "", c.Date)
}

func TestNew_NilArticle(t *testing.T) {
	c := New(nil, DefaultOptions())
	assert.Equal(t, "Unknown", c.Author)
	assert.Empty(t, c.Title)
}

func TestNew_KeepsProvidedFields(t *testing.T) {
	published := time.Date(2025, 3, 1, 14, 5, 9, 0, time.FixedZone("CET", 3600))
	a := &storage.Article{
		ID:          "abc",
		Title:       "Title",
		ImageURL:    "https://example.com/img.png",
		Author:      "Ada",
		PublishedAt: published,
		SourceName:  "Reuters",
		URL:         "https://example.com/story",
	}

	c := New(a, DefaultOptions())

	assert.Equal(t, "abc", c.ID)
	assert.Equal(t, "https://example.com/img.png", c.ImageURL)
	assert.True(t, c.HasImage)
	assert.Equal(t, "Ada", c.Author)
	assert.Equal(t, "Sat, 01 Mar 2025 13:05:09 GMT", c.Date)
	assert.Equal(t, "Reuters", c.SourceName)
}

func TestNew_CustomOptions(t *testing.T) {
	opts := Options{TitleLength: 5, DescriptionLength: 3, PlaceholderImage: "none", UnknownAuthor: "Anon"}
	c := New(&storage.Article{Title: "Headline", Description: "Body"}, opts)

	assert.Equal(t, "Headl", c.Title)
	assert.Equal(t, "Bod", c.Description)
	assert.Equal(t, "Anon", c.Author)
	assert.Equal(t, "none", c.ImageURL)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
		cut   bool
	}{
		{"hello", 10, "hello", false},
		{"hello", 5, "hello", false},
		{"hello", 3, "hel", true},
		{"", 3, "", false},
		{"hello", 0, "", true},
	}
	for _, tt := range tests {
		got, cut := Truncate(tt.in, tt.limit)
		assert.Equal(t, tt.want, got, "Truncate(%q, %d)", tt.in, tt.limit)
		assert.Equal(t, tt.cut, cut, "Truncate(%q, %d) cut", tt.in, tt.limit)
	}
}

func TestRender(t *testing.T) {
	st := NewStyles(lipgloss.Color("#F11946"), lipgloss.Color("#EAEAEA"), lipgloss.Color("#94A3B8"))
	c := New(&storage.Article{
		Title:       "Markets rally",
		Description: "Stocks rose on Tuesday",
		SourceName:  "Bloomberg",
		URL:         "https://example.com/markets",
		PublishedAt: time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC),
	}, DefaultOptions())

	out := Render(c, 80, st, RenderState{})
	assert.Contains(t, out, "Markets rally")
	assert.Contains(t, out, "Stocks rose on Tuesday")
	assert.Contains(t, out, "By Unknown on Tue, 07 Jan 2025 09:00:00 GMT")
	assert.Contains(t, out, "Bloomberg")
	assert.Contains(t, out, "https://example.com/markets")
	assert.LessOrEqual(t, lipgloss.Width(out), 80)

	marked := Render(c, 80, st, RenderState{Selected: true, Bookmarked: true})
	assert.Contains(t, marked, "★")
}

func TestRender_TruncatedTextIsExact(t *testing.T) {
	st := NewStyles(lipgloss.Color("1"), lipgloss.Color("7"), lipgloss.Color("8"))
	c := New(&storage.Article{
		Title:       strings.Repeat("x", 100),
		Description: strings.Repeat("y", 200),
	}, DefaultOptions())

	out := Render(c, 200, st, RenderState{})
	assert.Contains(t, out, strings.Repeat("x", 45))
	assert.NotContains(t, out, strings.Repeat("x", 46))
	assert.NotContains(t, out, "...")
	assert.Contains(t, out, strings.Repeat("y", 88))
	assert.NotContains(t, out, strings.Repeat("y", 89))
}

func TestTruncateMiddle(t *testing.T) {
	assert.Equal(t, "short", truncateMiddle("short", 10))
	assert.Equal(t, "ab…yz", truncateMiddle("abcdefghijklmnopqrstuvwxyz", 5))
	assert.Equal(t, "", truncateMiddle("abc", 0))
	assert.Equal(t, "…", truncateMiddle("abc", 1))
}
