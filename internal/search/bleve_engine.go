package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine opens or creates the index at indexPath and indexes every
// bookmark. An empty path keeps the index in memory.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	var idx bleve.Index
	var err error

	if indexPath == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		idx, err = bleve.Open(indexPath)
		if err != nil {
			idx, err = bleve.New(indexPath, buildIndexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = standard.Name
	desc.Store = true

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false

	source := bleve.NewTextFieldMapping()
	source.Analyzer = standard.Name
	source.Store = true

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = false

	category := bleve.NewKeywordFieldMapping()
	category.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", desc)
	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("source", source)
	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("category", category)

	im.DefaultMapping = dm
	return im
}

func document(a *storage.Article) map[string]any {
	return map[string]any{
		"title":       a.Title,
		"description": a.Description,
		"content":     a.Content,
		"source":      a.SourceName,
		"author":      a.Author,
		"category":    a.Category,
	}
}

func (b *BleveEngine) reindexAll() error {
	bookmarks, err := b.store.GetBookmarks()
	if err != nil {
		return fmt.Errorf("loading bookmarks: %w", err)
	}
	batch := b.idx.NewBatch()
	for _, bm := range bookmarks {
		if err := batch.Index(bm.Article.ID, document(bm.Article)); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	boosts := []struct {
		field string
		match float64
	}{
		{"title", 4.0},
		{"description", 2.0},
		{"content", 1.0},
		{"source", 1.0},
		{"author", 0.5},
	}
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, fb := range boosts {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(fb.field)
			mq.SetBoost(fb.match)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(fb.field)
			pq.SetBoost(fb.match * 0.8)
			qs = append(qs, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "description"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		bm, err := b.store.GetBookmark(h.ID)
		if err != nil {
			// index is ahead of the store; drop the stale doc
			debuglog.Debugf("search: dropping stale doc %s: %v", h.ID, err)
			_ = b.idx.Delete(h.ID)
			continue
		}
		r := &Result{Article: bm.Article, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok && t != "" {
			r.Matches = append(r.Matches, Match{Field: "title", Text: t})
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *BleveEngine) OnBookmarked(article *storage.Article) {
	if article == nil {
		return
	}
	if err := b.idx.Index(article.ID, document(article)); err != nil {
		debuglog.Warnf("search: indexing %s: %v", article.ID, err)
	}
}

func (b *BleveEngine) OnBookmarkRemoved(articleID string) {
	if err := b.idx.Delete(articleID); err != nil {
		debuglog.Warnf("search: removing %s: %v", articleID, err)
	}
}

func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
