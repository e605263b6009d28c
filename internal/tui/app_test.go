package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/card"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/newsapi"
	"github.com/pders01/headlines/internal/storage"
)

// pagedFetcher serves total articles per category in pages of q.PageSize.
type pagedFetcher struct {
	mu    sync.Mutex
	total int
	err   error
	calls []newsapi.Query
}

func (f *pagedFetcher) TopHeadlines(ctx context.Context, q newsapi.Query, progress newsapi.ProgressFunc) (*newsapi.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	err := f.err
	total := f.total
	f.mu.Unlock()

	if progress != nil {
		progress(newsapi.StageRequest)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &newsapi.FetchError{Kind: newsapi.KindTransport, Err: ctxErr}
	}
	if err != nil {
		return nil, err
	}
	if progress != nil {
		progress(newsapi.StageReceived)
		progress(newsapi.StageDecoded)
	}

	page := &newsapi.Page{TotalResults: total}
	start := (q.Page - 1) * q.PageSize
	for i := start; i < start+q.PageSize && i < total; i++ {
		url := fmt.Sprintf("https://news.example.com/%s/%d", q.Category, i)
		page.Articles = append(page.Articles, &storage.Article{
			ID:          storage.ArticleID(url),
			Title:       fmt.Sprintf("%s story %d", q.Category, i),
			Description: "Something happened today.",
			URL:         url,
			SourceName:  "Example Wire",
			PublishedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Category:    q.Category,
		})
	}
	return page, nil
}

func (f *pagedFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func setupTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestApp(t *testing.T, fetcher feed.PageFetcher) *App {
	t.Helper()
	app := NewApp(setupTestStore(t), config.TestConfig(), fetcher)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	t.Cleanup(app.Close)
	return app
}

// mount activates the named route and applies its first page.
func mount(t *testing.T, app *App, name string) {
	t.Helper()
	i, ok := FindRoute(app.routes, name)
	require.True(t, ok, "route %s", name)
	app.activateRoute(i)
	app.Update(app.initializeFeed(app.session)())
}

func pressKey(app *App, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+b":
		msg = tea.KeyMsg{Type: tea.KeyCtrlB}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := app.Update(msg)
	return cmd
}

func TestNewApp(t *testing.T) {
	app := NewApp(nil, config.TestConfig(), &pagedFetcher{})

	assert.Equal(t, ViewFeed, app.view)
	assert.Len(t, app.routes, 7)
	assert.NotNil(t, app.keyHandler)
	assert.Nil(t, app.searcher, "no store means nothing to search")
	assert.Equal(t, 45, app.cardOpts.TitleLength)
	assert.Equal(t, 88, app.cardOpts.DescriptionLength)
}

func TestStartRoutePrecedence(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{})

	general, _ := FindRoute(app.routes, "/")
	science, _ := FindRoute(app.routes, "/science")
	sports, _ := FindRoute(app.routes, "sports")

	assert.Equal(t, general, app.startRoute(), "default category")

	require.Nil(t, app.saveLastRoute("/science")())
	assert.Equal(t, science, app.startRoute(), "remembered route")

	app.SetInitialRoute("sports")
	assert.Equal(t, sports, app.startRoute(), "explicit route wins")

	app.SetInitialRoute("/nope")
	assert.Equal(t, science, app.startRoute(), "unknown route falls back")
}

func TestInitializeThenScrollFetchesNextPage(t *testing.T) {
	fetcher := &pagedFetcher{total: 60}
	app := newTestApp(t, fetcher)

	mount(t, app, "/technology")

	require.Len(t, app.state.Articles, 6)
	assert.Equal(t, 60, app.state.TotalResults)
	assert.Equal(t, 1, app.state.Page)
	assert.False(t, app.loading)
	assert.Equal(t, "technology", fetcher.calls[0].Category)
	assert.Equal(t, "us", fetcher.calls[0].Country)
	assert.Equal(t, 6, fetcher.calls[0].PageSize)

	// the default threshold of 2 triggers on the fourth card
	for i := 0; i < 2; i++ {
		pressKey(app, "j")
		assert.False(t, app.loadingMore, "no prefetch at cursor %d", app.cursor)
	}
	pressKey(app, "j")
	require.True(t, app.loadingMore)

	// more movement while loading issues nothing new
	pressKey(app, "j")
	assert.Len(t, fetcher.calls, 1)

	app.Update(app.fetchNextPage(app.session)())

	assert.Len(t, app.state.Articles, 12)
	assert.Equal(t, 2, app.state.Page)
	assert.False(t, app.loadingMore)
	assert.Equal(t, 2, fetcher.calls[1].Page)
	assert.Equal(t, "technology story 6", app.state.Articles[6].Title)
}

func TestExhaustedFeedStopsPrefetching(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/health")

	require.Len(t, app.state.Articles, 6)
	assert.True(t, app.state.Exhausted)

	pressKey(app, "G")
	assert.Equal(t, 5, app.cursor)
	assert.False(t, app.loadingMore)
	assert.Contains(t, app.View(), MsgEndOfFeed)
}

func TestSwitchingRouteDropsStaleResults(t *testing.T) {
	fetcher := &pagedFetcher{total: 30}
	app := newTestApp(t, fetcher)

	i, _ := FindRoute(app.routes, "/business")
	app.activateRoute(i)
	stale := app.session

	pressKey(app, "tab")
	require.NotSame(t, stale, app.session)
	assert.Error(t, stale.ctx.Err(), "leaving a route cancels its context")

	app.Update(app.initializeFeed(stale)())
	assert.Empty(t, app.state.Articles, "result for the old route must be ignored")
	assert.Equal(t, app.routes[app.active].Category, app.state.Category)

	app.Update(app.initializeFeed(app.session)())
	assert.Len(t, app.state.Articles, 6)
	assert.Equal(t, "science", app.state.Category)
}

func TestRouteSwitchKeys(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/")

	pressKey(app, "tab")
	assert.Equal(t, 1, app.active)
	pressKey(app, "shift+tab")
	assert.Equal(t, 0, app.active)
	pressKey(app, "shift+tab")
	assert.Equal(t, len(app.routes)-1, app.active, "wraps around")
	pressKey(app, "3")
	assert.Equal(t, 2, app.active)
	pressKey(app, "9")
	assert.Equal(t, 2, app.active, "no ninth route")
}

func TestFailureShowsRetryAndRecovers(t *testing.T) {
	fetcher := &pagedFetcher{total: 12}
	fetcher.setErr(&newsapi.FetchError{Kind: newsapi.KindStatus, StatusCode: 500, Message: "boom"})
	app := newTestApp(t, fetcher)

	mount(t, app, "/sports")

	assert.False(t, app.loading)
	assert.Equal(t, feed.StatusFailed, app.state.Status)
	assert.True(t, errors.Is(app.state.Err, newsapi.ErrFetchFailed))
	view := app.View()
	assert.Contains(t, view, "✗")
	assert.Contains(t, view, "press r to retry")

	fetcher.setErr(nil)
	pressKey(app, "r")
	require.True(t, app.loading, "page 1 retry shows the progress bar again")
	assert.True(t, app.progressVisible)

	app.Update(app.retryFeed(app.session)())
	assert.Equal(t, feed.StatusSuccess, app.state.Status)
	assert.Len(t, app.state.Articles, 6)
	assert.NotContains(t, app.View(), "press r to retry")
}

func TestRetryIgnoredWithoutFailure(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/")

	assert.Nil(t, pressKey(app, "r"))
	assert.False(t, app.loading)
}

func TestProgressFollowsActiveRoute(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	app.activateRoute(0)
	gen := app.session.gen

	assert.Nil(t, app.handleProgress(progressMsg{gen: gen - 1, percent: 30}), "stale progress is ignored")
	assert.NotNil(t, app.handleProgress(progressMsg{gen: gen, percent: 30}))
	assert.True(t, app.progressVisible)

	app.Update(app.initializeFeed(app.session)())
	app.Update(progressHideMsg{gen: gen})
	assert.False(t, app.progressVisible)
}

func TestProgressListenerDelivers(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	app.activateRoute(0)
	s := app.session

	app.Update(app.initializeFeed(s)())

	var got []int
	for i := 0; i < 4; i++ {
		msg, ok := listenProgress(s)().(progressMsg)
		require.True(t, ok)
		assert.Equal(t, s.gen, msg.gen)
		got = append(got, msg.percent)
	}
	assert.Equal(t, []int{10, 30, 70, 100}, got)

	s.cancel()
	assert.Nil(t, listenProgress(s)(), "a cancelled route stops listening")
}

func TestFeedHeaderAndTabs(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 60})
	mount(t, app, "/science")

	view := app.View()
	assert.Contains(t, view, "Today's News - Top Science Headlines")
	assert.Contains(t, view, "6 of 60")
	for _, r := range app.routes {
		assert.Contains(t, view, r.Label)
	}
	assert.Contains(t, view, "science story 0")
}

func TestViewStateTransitions(t *testing.T) {
	tests := []struct {
		name         string
		initialView  View
		keys         []string
		expectedView View
	}{
		{"feed to reader on enter", ViewFeed, []string{"enter"}, ViewReader},
		{"reader back to feed", ViewFeed, []string{"enter", "esc"}, ViewFeed},
		{"feed to search", ViewFeed, []string{"ctrl+s"}, ViewSearch},
		{"search back to feed", ViewFeed, []string{"ctrl+s", "esc"}, ViewFeed},
		{"feed to saved", ViewFeed, []string{"ctrl+b"}, ViewSaved},
		{"saved back to feed", ViewFeed, []string{"ctrl+b", "esc"}, ViewFeed},
		{"feed to help", ViewFeed, []string{"?"}, ViewHelp},
		{"help toggles off", ViewFeed, []string{"?", "?"}, ViewFeed},
		{"search from reader returns to feed", ViewFeed, []string{"enter", "ctrl+s", "esc"}, ViewFeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &pagedFetcher{total: 6})
			mount(t, app, "/")
			app.view = tt.initialView

			for _, k := range tt.keys {
				pressKey(app, k)
			}
			assert.Equal(t, tt.expectedView, app.view)
		})
	}
}

func TestReaderMarksSeen(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/")

	article := app.selectedArticle()
	require.NotNil(t, article)
	pressKey(app, "enter")

	assert.Equal(t, ViewReader, app.view)
	assert.True(t, app.loadingArticle)
	assert.True(t, app.seen[article.ID])

	require.Nil(t, app.markSeen(article)())
	seen, err := app.store.SeenIDs([]string{article.ID})
	require.NoError(t, err)
	assert.True(t, seen[article.ID])

	app.Update(articleRenderedMsg{id: "other", content: "nope"})
	assert.True(t, app.loadingArticle, "render for another article is ignored")
	app.Update(articleRenderedMsg{id: article.ID, content: "rendered body"})
	assert.False(t, app.loadingArticle)
	assert.Contains(t, app.View(), "rendered body")
}

func TestArticleMarkdown(t *testing.T) {
	md := articleMarkdown(&storage.Article{
		Title:       "Rates Held",
		Description: "The bank kept rates.",
		Content:     "Full text [+120 chars]",
		URL:         "https://news.example.com/rates",
		SourceName:  "Wire",
		PublishedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}, card.DefaultOptions())

	assert.True(t, strings.HasPrefix(md, "# Rates Held"))
	assert.Contains(t, md, "*By Unknown on Fri, 01 Mar 2024 12:00:00 GMT*")
	assert.Contains(t, md, "**Wire**")
	assert.Contains(t, md, "[Read Online](https://news.example.com/rates)")
	assert.Contains(t, md, "Full text [+120 chars]")
	assert.NotContains(t, md, "Image:")
}

func TestBookmarkToggle(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/")
	article := app.selectedArticle()

	cmd := pressKey(app, "b")
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.True(t, app.bookmarked[article.ID])
	ok, err := app.store.IsBookmarked(article.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, MsgBookmarked, app.status)

	app.Update(pressKey(app, "b")())
	assert.False(t, app.bookmarked[article.ID])
	ok, err = app.store.IsBookmarked(article.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarksLoadedForCurrentRouteOnly(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/")
	article := app.state.Articles[2]

	_, err := app.store.SaveBookmark(article)
	require.NoError(t, err)
	require.NoError(t, app.store.MarkSeen(article.ID))

	app.Update(app.loadMarks(app.session.gen-1, app.state.Articles)())
	assert.False(t, app.bookmarked[article.ID])

	app.Update(app.loadMarks(app.session.gen, app.state.Articles)())
	assert.True(t, app.bookmarked[article.ID])
	assert.True(t, app.seen[article.ID])
}

func TestSavedView(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/")

	pressKey(app, "ctrl+b")
	app.Update(app.loadBookmarks()())
	assert.Contains(t, app.View(), MsgNoBookmarks)
	pressKey(app, "esc")

	for _, a := range app.state.Articles[:2] {
		_, err := app.store.SaveBookmark(a)
		require.NoError(t, err)
	}
	pressKey(app, "ctrl+b")
	app.Update(app.loadBookmarks()())
	require.Len(t, app.savedList.Items(), 2)

	pressKey(app, "enter")
	assert.Equal(t, ViewReader, app.view)
	pressKey(app, "esc")
	assert.Equal(t, ViewSaved, app.view)
}

func TestSearchDebounce(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/")
	_, err := app.store.SaveBookmark(app.state.Articles[3])
	require.NoError(t, err)

	pressKey(app, "ctrl+s")
	require.True(t, app.searchInput.Focused())

	for _, r := range "q story" {
		pressKey(app, string(r))
	}
	assert.Equal(t, "q story", app.pendingSearchQuery)
	assert.Equal(t, ViewSearch, app.view, "q is typed, not quit")

	_, cmd := app.Update(searchDebounceFireMsg{seq: app.searchSeq - 1})
	assert.Nil(t, cmd, "superseded debounce does nothing")

	_, cmd = app.Update(searchDebounceFireMsg{seq: app.searchSeq})
	require.NotNil(t, cmd)
	results, ok := cmd().(searchResultsMsg)
	require.True(t, ok)
	app.Update(results)
	require.Len(t, app.searchList.Items(), 1)

	pressKey(app, "enter")
	assert.Equal(t, ViewReader, app.view)
	pressKey(app, "esc")
	assert.Equal(t, ViewSearch, app.view)
	assert.False(t, app.searchInput.Focused())
}

type fakeOpener struct {
	urls   []string
	images []string
}

func (f *fakeOpener) OpenURL(link string) error {
	f.urls = append(f.urls, link)
	return nil
}

func (f *fakeOpener) OpenImage(link string) error {
	f.images = append(f.images, link)
	return nil
}

func TestOpenKeys(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	opener := &fakeOpener{}
	app.SetOpener(opener)
	mount(t, app, "/")

	cmd := pressKey(app, "o")
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{app.state.Articles[0].URL}, opener.urls)

	// the fake feed has no images
	pressKey(app, "i")
	assert.Empty(t, opener.images)
	assert.Equal(t, StatusWarn, app.statusKind)
}

func TestQuitCancelsRoute(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{total: 6})
	mount(t, app, "/")
	s := app.session

	cmd := pressKey(app, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, s.ctx.Err())
	assert.Nil(t, app.session)
}

func TestLastRoutePersisted(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{})

	require.Nil(t, app.saveLastRoute("/health")())
	got, err := app.store.GetMeta(metaLastRoute)
	require.NoError(t, err)
	assert.Equal(t, "/health", got)
}

func TestErrorMsgSetsStatus(t *testing.T) {
	app := newTestApp(t, &pagedFetcher{})

	app.Update(errorMsg{err: errors.New("disk full")})
	assert.Equal(t, StatusError, app.statusKind)
	assert.Contains(t, app.renderStatus(), "disk full")

	seq := app.statusSeq
	app.Update(clearStatusMsg{seq: seq - 1})
	assert.NotEmpty(t, app.status)
	app.Update(clearStatusMsg{seq: seq})
	assert.Empty(t, app.status)
}

func TestToMarkdown(t *testing.T) {
	assert.Equal(t, "plain [+12 chars]", toMarkdown("plain [+12 chars]"))

	md := toMarkdown("<p>Markets <strong>rallied</strong> today.</p>")
	assert.Contains(t, md, "**rallied**")
	assert.NotContains(t, md, "<p>")
}

func TestCardOptions(t *testing.T) {
	defaults := CardOptions(config.CardConfig{})
	assert.Equal(t, card.DefaultOptions(), defaults)

	opts := CardOptions(config.CardConfig{
		TitleLength:      30,
		PlaceholderImage: "https://img.example/none.png",
		UnknownAuthor:    "Staff",
	})
	assert.Equal(t, 30, opts.TitleLength)
	assert.Equal(t, 88, opts.DescriptionLength)
	assert.Equal(t, "https://img.example/none.png", opts.PlaceholderImage)
	assert.Equal(t, "Staff", opts.UnknownAuthor)
}
