// Package feed owns the paged article list for a single category.
package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/newsapi"
	"github.com/pders01/headlines/internal/storage"
)

// PageFetcher loads one page of headlines. *newsapi.Client implements it.
type PageFetcher interface {
	TopHeadlines(ctx context.Context, q newsapi.Query, progress newsapi.ProgressFunc) (*newsapi.Page, error)
}

type Options struct {
	Country  string
	PageSize int
	// Dedupe drops articles whose URL was already loaded by an earlier page.
	Dedupe bool
	// Progress receives 10, 30, 70 and 100 while the first page loads.
	Progress func(percent int)
}

type operation int

const (
	opNone operation = iota
	opInitialize
	opNextPage
)

// Controller holds one category's FeedState. At most one request is in
// flight at a time; the state always leaves pending when a request ends.
type Controller struct {
	category string
	fetcher  PageFetcher
	opts     Options
	log      *debuglog.FieldLogger

	mu        sync.Mutex
	articles  []*storage.Article
	ids       map[string]struct{}
	page      int
	total     int
	status    Status
	err       error
	exhausted bool
	failedOp  operation
}

func NewController(category string, fetcher PageFetcher, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = 6
	}
	if opts.Country == "" {
		opts.Country = "us"
	}
	return &Controller{
		category: category,
		fetcher:  fetcher,
		opts:     opts,
		log:      debuglog.WithFields(map[string]interface{}{"component": "feed", "category": category}),
		ids:      make(map[string]struct{}),
	}
}

func (c *Controller) Category() string {
	return c.category
}

func (c *Controller) report(percent int) {
	if c.opts.Progress != nil {
		c.opts.Progress(percent)
	}
}

// begin moves the controller into pending or reports why it cannot.
func (c *Controller) begin() error {
	if c.status == StatusPending {
		return ErrInFlight
	}
	c.status = StatusPending
	c.err = nil
	return nil
}

// fail records a failed request. Existing articles and cursors are kept.
func (c *Controller) fail(op operation, err error) {
	c.status = StatusFailed
	c.err = err
	c.failedOp = op
}

// Initialize loads page 1, replacing anything previously loaded.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if err := c.begin(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.report(ProgressStart)
	defer c.report(ProgressDone)

	q := newsapi.Query{Country: c.opts.Country, Category: c.category, Page: 1, PageSize: c.opts.PageSize}
	page, err := c.fetcher.TopHeadlines(ctx, q, func(s newsapi.Stage) {
		switch s {
		case newsapi.StageReceived:
			c.report(ProgressReceived)
		case newsapi.StageDecoded:
			c.report(ProgressDecoded)
		}
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fail(opInitialize, err)
		c.log.Warnf("initialize failed: %v", err)
		return fmt.Errorf("loading %s headlines: %w", c.category, err)
	}

	c.articles = nil
	c.ids = make(map[string]struct{})
	c.exhausted = false
	c.appendLocked(page.Articles)
	c.page = 1
	c.total = page.TotalResults
	if len(page.Articles) == 0 {
		c.exhausted = true
	}
	c.status = StatusSuccess
	c.failedOp = opNone
	c.log.Infof("loaded %d of %d", len(c.articles), c.total)
	return nil
}

// FetchNextPage loads page+1 and appends it.
func (c *Controller) FetchNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusPending {
		c.mu.Unlock()
		return ErrInFlight
	}
	if c.page == 0 {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if !c.hasMoreLocked() {
		c.mu.Unlock()
		return ErrExhausted
	}
	c.status = StatusPending
	c.err = nil
	next := c.page + 1
	c.mu.Unlock()

	q := newsapi.Query{Country: c.opts.Country, Category: c.category, Page: next, PageSize: c.opts.PageSize}
	page, err := c.fetcher.TopHeadlines(ctx, q, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fail(opNextPage, err)
		c.log.Warnf("page %d failed: %v", next, err)
		return fmt.Errorf("loading %s page %d: %w", c.category, next, err)
	}

	added := c.appendLocked(page.Articles)
	c.page = next
	c.total = page.TotalResults
	// an empty page means the upstream count overstated what it will serve.
	// A page of duplicates is not empty.
	if len(page.Articles) == 0 {
		c.exhausted = true
	}
	c.status = StatusSuccess
	c.failedOp = opNone
	c.log.Debugf("page %d added %d, now %d of %d", next, added, len(c.articles), c.total)
	return nil
}

// Retry re-issues the request that failed last. It does nothing when the
// last request succeeded.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	op := c.failedOp
	failed := c.status == StatusFailed
	c.mu.Unlock()

	if !failed {
		return nil
	}
	switch op {
	case opNextPage:
		return c.FetchNextPage(ctx)
	default:
		return c.Initialize(ctx)
	}
}

func (c *Controller) appendLocked(articles []*storage.Article) int {
	added := 0
	for _, a := range articles {
		if a == nil {
			continue
		}
		if c.opts.Dedupe {
			if _, ok := c.ids[a.ID]; ok {
				continue
			}
			c.ids[a.ID] = struct{}{}
		}
		c.articles = append(c.articles, a)
		added++
	}
	return added
}

func (c *Controller) hasMoreLocked() bool {
	return c.page > 0 && !c.exhausted && len(c.articles) < c.total
}

// HasMore reports whether another page should be requested.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMoreLocked()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	articles := make([]*storage.Article, len(c.articles))
	copy(articles, c.articles)
	return State{
		Category:     c.category,
		Articles:     articles,
		Page:         c.page,
		TotalResults: c.total,
		Loading:      c.status == StatusPending,
		Status:       c.status,
		Err:          c.err,
		Exhausted:    c.page > 0 && !c.hasMoreLocked(),
	}
}
