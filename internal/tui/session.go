package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
)

const metaLastRoute = "last_route"

// routeSession owns the controller of the active route. Leaving the route
// cancels ctx, which also stops its progress listener.
type routeSession struct {
	gen        int
	route      Route
	controller *feed.Controller
	ctx        context.Context
	cancel     context.CancelFunc
	progress   chan int
}

type pageLoadedMsg struct {
	gen   int
	state feed.State
	next  bool
	err   error
}

type progressMsg struct {
	gen     int
	percent int
}

type progressHideMsg struct {
	gen int
}

func (a *App) newSession(route Route) *routeSession {
	a.gen++
	ctx, cancel := context.WithCancel(context.Background())
	s := &routeSession{
		gen:      a.gen,
		route:    route,
		ctx:      ctx,
		cancel:   cancel,
		progress: make(chan int, 8),
	}
	s.controller = feed.NewController(route.Category, a.fetcher, feed.Options{
		Country:  a.config.API.Country,
		PageSize: a.config.API.PageSize,
		Dedupe:   a.config.Feed.Dedupe,
		Progress: func(percent int) {
			select {
			case s.progress <- percent:
			case <-ctx.Done():
			}
		},
	})
	return s
}

// activateRoute drops the current route's controller and mounts a fresh one
// for routes[i].
func (a *App) activateRoute(i int) tea.Cmd {
	if i < 0 || i >= len(a.routes) {
		return nil
	}
	a.closeSession()

	a.active = i
	route := a.routes[i]
	s := a.newSession(route)
	a.session = s
	a.state = feed.State{Category: route.Category}
	a.cursor = 0
	a.offset = 0
	a.bookmarked = make(map[string]bool)
	a.seen = make(map[string]bool)
	a.loading = true
	a.loadingMore = false
	a.progressVisible = true
	a.view = ViewFeed

	debuglog.WithFields(map[string]interface{}{"route": route.Path, "gen": s.gen}).Debugf("route activated")

	return tea.Batch(
		a.progress.SetPercent(0),
		a.initializeFeed(s),
		listenProgress(s),
		a.startSpinner(),
		tea.SetWindowTitle(MsgWindowTitle(route.Label)),
		a.saveLastRoute(route.Path),
	)
}

func (a *App) closeSession() {
	if a.session != nil {
		a.session.cancel()
		a.session = nil
	}
}

func (a *App) initializeFeed(s *routeSession) tea.Cmd {
	return func() tea.Msg {
		err := s.controller.Initialize(s.ctx)
		return pageLoadedMsg{gen: s.gen, state: s.controller.State(), err: err}
	}
}

func (a *App) fetchNextPage(s *routeSession) tea.Cmd {
	return func() tea.Msg {
		err := s.controller.FetchNextPage(s.ctx)
		return pageLoadedMsg{gen: s.gen, state: s.controller.State(), next: true, err: err}
	}
}

func (a *App) retryFeed(s *routeSession) tea.Cmd {
	return func() tea.Msg {
		next := s.controller.State().Page > 0
		err := s.controller.Retry(s.ctx)
		return pageLoadedMsg{gen: s.gen, state: s.controller.State(), next: next, err: err}
	}
}

// listenProgress waits for the next progress value of s.
func listenProgress(s *routeSession) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-s.progress:
			return progressMsg{gen: s.gen, percent: p}
		case <-s.ctx.Done():
			return nil
		}
	}
}

func (a *App) current(gen int) bool {
	return a.session != nil && a.session.gen == gen
}

func (a *App) handleProgress(msg progressMsg) tea.Cmd {
	if !a.current(msg.gen) {
		return nil
	}
	a.progressVisible = true
	cmds := []tea.Cmd{
		a.progress.SetPercent(float64(msg.percent) / 100),
		listenProgress(a.session),
	}
	if msg.percent >= feed.ProgressDone {
		gen := msg.gen
		cmds = append(cmds, tea.Tick(600*time.Millisecond, func(time.Time) tea.Msg {
			return progressHideMsg{gen: gen}
		}))
	}
	return tea.Batch(cmds...)
}

func (a *App) handlePageLoaded(msg pageLoadedMsg) tea.Cmd {
	if !a.current(msg.gen) {
		debuglog.Debugf("dropping result for stale route generation %d", msg.gen)
		return nil
	}
	if errors.Is(msg.err, feed.ErrInFlight) {
		return nil
	}
	if msg.next {
		a.loadingMore = false
	} else {
		a.loading = false
	}
	if errors.Is(msg.err, feed.ErrExhausted) || errors.Is(msg.err, feed.ErrNotInitialized) {
		return nil
	}

	a.state = msg.state
	if a.cursor >= len(a.state.Articles) {
		a.cursor = max(0, len(a.state.Articles)-1)
	}
	a.ensureCursorVisible()

	if msg.err != nil {
		return a.setStatus(msg.err.Error(), StatusError, 0)
	}
	if a.statusKind == StatusError || a.status == MsgRetrying {
		a.setStatus("", StatusInfo, 0)
	}
	return a.loadMarks(msg.gen, a.state.Articles)
}

// maybePrefetch requests the next page once the cursor is within the
// prefetch threshold of the last card.
func (a *App) maybePrefetch() tea.Cmd {
	s := a.session
	if s == nil || a.loading || a.loadingMore {
		return nil
	}
	if a.state.Status == feed.StatusFailed {
		return nil
	}
	threshold := a.config.Feed.PrefetchThreshold
	if threshold < 0 {
		threshold = 0
	}
	if a.cursor < len(a.state.Articles)-1-threshold {
		return nil
	}
	if !s.controller.HasMore() {
		return nil
	}
	a.loadingMore = true
	return tea.Batch(a.fetchNextPage(s), a.startSpinner())
}

// retry re-issues the failed request of the active route.
func (a *App) retry() tea.Cmd {
	s := a.session
	if s == nil || a.state.Status != feed.StatusFailed || a.loading || a.loadingMore {
		return nil
	}
	var cmds []tea.Cmd
	if a.state.Page == 0 {
		a.loading = true
		a.progressVisible = true
		cmds = append(cmds, a.progress.SetPercent(0))
	} else {
		a.loadingMore = true
	}
	a.state.Err = nil
	cmds = append(cmds,
		a.setStatus(MsgRetrying, StatusInfo, 0),
		a.retryFeed(s),
		a.startSpinner(),
	)
	return tea.Batch(cmds...)
}

func (a *App) saveLastRoute(path string) tea.Cmd {
	if a.store == nil {
		return nil
	}
	store := a.store
	return func() tea.Msg {
		if err := store.SetMeta(metaLastRoute, path); err != nil {
			debuglog.Warnf("saving last route: %v", err)
		}
		return nil
	}
}
