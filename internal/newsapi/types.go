package newsapi

import (
	"time"

	"github.com/pders01/headlines/internal/storage"
)

// Stage marks a point in the lifecycle of one request.
type Stage int

const (
	StageRequest Stage = iota
	StageReceived
	StageDecoded
)

func (s Stage) String() string {
	switch s {
	case StageRequest:
		return "request"
	case StageReceived:
		return "received"
	case StageDecoded:
		return "decoded"
	default:
		return "unknown"
	}
}

// ProgressFunc is called as a request passes each stage. It may be nil.
type ProgressFunc func(Stage)

// Query selects one page of top headlines.
type Query struct {
	Country  string
	Category string
	Page     int
	PageSize int
}

// Page is one decoded response.
type Page struct {
	Articles     []*storage.Article
	TotalResults int
}

type response struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
}

type apiSource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type apiArticle struct {
	Source      apiSource `json:"source"`
	Author      *string   `json:"author"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	URLToImage  *string   `json:"urlToImage"`
	PublishedAt string    `json:"publishedAt"`
	Content     *string   `json:"content"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (a apiArticle) toArticle(category string) *storage.Article {
	published, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		published = time.Time{}
	}
	return &storage.Article{
		ID:          storage.ArticleID(a.URL),
		Title:       deref(a.Title),
		Description: deref(a.Description),
		Content:     deref(a.Content),
		URL:         a.URL,
		ImageURL:    deref(a.URLToImage),
		Author:      deref(a.Author),
		PublishedAt: published,
		SourceName:  a.Source.Name,
		Category:    category,
	}
}
