package storage

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Article is a single headline as received from the API. It is never mutated
// after decoding; display truncation happens in the card renderer.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"published_at"`
	SourceName  string    `json:"source_name"`
	Category    string    `json:"category"`
}

// Bookmark is an article the user chose to keep.
type Bookmark struct {
	Article *Article  `json:"article"`
	SavedAt time.Time `json:"saved_at"`
}

// ArticleID derives the stable key for an article from its URL.
func ArticleID(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
}
