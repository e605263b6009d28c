// Package card turns an article into the fixed set of fields shown for a
// headline and renders them as a styled box.
package card

import (
	"time"

	"github.com/pders01/headlines/internal/storage"
)

// DateLayout matches the GMT strings browsers produce for Date.toGMTString.
const DateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

type Options struct {
	TitleLength       int
	DescriptionLength int
	PlaceholderImage  string
	UnknownAuthor     string
}

// DefaultOptions returns the stock presentation limits.
func DefaultOptions() Options {
	return Options{
		TitleLength:       45,
		DescriptionLength: 88,
		PlaceholderImage:  "https://placehold.co/600x400?text=No+Image",
		UnknownAuthor:     "Unknown",
	}
}

// Card holds display-ready fields. Building one never touches the network.
type Card struct {
	ID                   string
	Title                string
	TitleTruncated       bool
	Description          string
	DescriptionTruncated bool
	ImageURL             string
	HasImage             bool
	Author               string
	Date                 string
	SourceName           string
	URL                  string
}

// New builds a Card. A nil article yields an empty card with placeholders.
func New(a *storage.Article, opts Options) Card {
	if opts.TitleLength <= 0 || opts.DescriptionLength <= 0 {
		def := DefaultOptions()
		if opts.TitleLength <= 0 {
			opts.TitleLength = def.TitleLength
		}
		if opts.DescriptionLength <= 0 {
			opts.DescriptionLength = def.DescriptionLength
		}
	}
	if a == nil {
		a = &storage.Article{}
	}

	c := Card{
		ID:         a.ID,
		ImageURL:   a.ImageURL,
		HasImage:   a.ImageURL != "",
		Author:     a.Author,
		SourceName: a.SourceName,
		URL:        a.URL,
		Date:       FormatDate(a.PublishedAt),
	}
	c.Title, c.TitleTruncated = Truncate(a.Title, opts.TitleLength)
	c.Description, c.DescriptionTruncated = Truncate(a.Description, opts.DescriptionLength)

	if !c.HasImage {
		c.ImageURL = opts.PlaceholderImage
	}
	if c.Author == "" {
		c.Author = opts.UnknownAuthor
	}
	return c
}

// Truncate keeps the first limit runes of s and reports whether anything was
// cut.
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 {
		return "", s != ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s, false
	}
	return string(r[:limit]), true
}

// FormatDate renders t in GMT. The zero time renders as an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
