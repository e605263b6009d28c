package search

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/headlines/internal/storage"
)

// Engine scans bookmarks directly. It is used when no index is configured.
type Engine struct {
	store *storage.Store
	now   func() time.Time
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	bookmarks, err := e.store.GetBookmarks()
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, bm := range bookmarks {
		if r := e.scoreArticle(bm.Article, terms); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) scoreArticle(article *storage.Article, terms []string) *Result {
	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"title", article.Title, 4.0},
		{"description", article.Description, 2.0},
		{"content", article.Content, 1.0},
		{"source", article.SourceName, 1.0},
		{"author", article.Author, 0.5},
	}

	var matches []Match
	var total float64
	for _, f := range fields {
		score := scoreField(f.text, terms, f.weight)
		if score <= 0 {
			continue
		}
		text := f.text
		if f.name == "content" {
			text = bestSnippet(f.text, terms, 200)
		}
		matches = append(matches, Match{Field: f.name, Text: truncate(text, 150), Weight: score})
		total += score
	}
	if total == 0 {
		return nil
	}
	total *= 1.0 + recencyBoost(article.PublishedAt, e.now())
	return &Result{Article: article, Score: total, Matches: matches}
}

func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term):
				score += 1.0
				matched++
			}
		}
	}
	if matched == 0 {
		return 0
	}
	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}
	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)
	return score * weight
}

func bestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	window := maxLength / 8
	if len(words) == 0 || window >= len(words) {
		return text
	}

	best, bestStart := 0, 0
	for i := 0; i <= len(words)-window; i++ {
		chunk := strings.ToLower(strings.Join(words[i:i+window], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(chunk, term) {
				score++
			}
		}
		if score > best {
			best, bestStart = score, i
		}
	}
	return strings.Join(words[bestStart:bestStart+window], " ")
}

// recencyBoost favours articles from the last week, up to 10%.
func recencyBoost(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	week := 7 * 24 * time.Hour
	if age < 0 || age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}

// tokenize lowercases text and splits it into terms of two or more runes.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			if term := current.String(); len([]rune(term)) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return terms
}

func truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}
