package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/card"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

// Opener hands links to the platform browser or image viewer.
type Opener interface {
	OpenURL(link string) error
	OpenImage(link string) error
}

// feed view chrome: tabs, progress, header (2), footer, separator, status
const feedChromeHeight = 7

type App struct {
	config     *config.Config
	store      *storage.Store
	fetcher    feed.PageFetcher
	searcher   search.Searcher
	opener     Opener
	keys       keyMap
	keyHandler *KeyHandler

	routes       []Route
	active       int
	initialRoute string
	session      *routeSession
	gen          int

	state       feed.State
	cursor      int
	offset      int
	bookmarked  map[string]bool
	seen        map[string]bool
	loading     bool
	loadingMore bool

	progress        progress.Model
	progressVisible bool
	spinner         spinner.Model
	spinning        bool

	cardOpts   card.Options
	cardStyles card.Styles

	savedList   list.Model
	searchList  list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	help        help.Model

	view           View
	previousView   View
	readerReturn   View
	currentArticle *storage.Article
	loadingArticle bool

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int

	searchSeq          int
	searchDebounce     time.Duration
	pendingSearchQuery string

	status     string
	statusKind StatusKind
	statusSeq  int

	width  int
	height int
}

func NewApp(store *storage.Store, cfg *config.Config, fetcher feed.PageFetcher) *App {
	routes, err := Routes()
	if err != nil {
		// routes.toml is embedded, so this only fails on a broken build
		panic(err)
	}

	savedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	savedList.Title = "› saved"
	savedList.SetShowStatusBar(false)
	savedList.SetFilteringEnabled(true)
	savedList.SetShowHelp(false)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "Search saved headlines..."
	si.CharLimit = 256

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(AccentColor)),
	)

	app := &App{
		config:         cfg,
		store:          store,
		fetcher:        fetcher,
		keys:           newKeyMap(cfg.Keys),
		routes:         routes,
		bookmarked:     make(map[string]bool),
		seen:           make(map[string]bool),
		progress:       progress.New(progress.WithSolidFill(string(ProgressColor)), progress.WithoutPercentage()),
		spinner:        sp,
		cardOpts:       CardOptions(cfg.UI.Card),
		cardStyles:     card.NewStyles(PrimaryColor, TextColor, MutedColor),
		savedList:      savedList,
		searchList:     searchList,
		searchInput:    si,
		viewport:       viewport.New(0, 0),
		help:           help.New(),
		view:           ViewFeed,
		previousView:   ViewFeed,
		readerReturn:   ViewFeed,
		searchDebounce: 200 * time.Millisecond,
	}
	if store != nil {
		app.searcher = search.NewEngine(store)
	}
	app.keyHandler = NewKeyHandler(app)
	return app
}

// CardOptions layers the configured card settings over the defaults.
func CardOptions(c config.CardConfig) card.Options {
	opts := card.DefaultOptions()
	if c.TitleLength > 0 {
		opts.TitleLength = c.TitleLength
	}
	if c.DescriptionLength > 0 {
		opts.DescriptionLength = c.DescriptionLength
	}
	if c.PlaceholderImage != "" {
		opts.PlaceholderImage = c.PlaceholderImage
	}
	if c.UnknownAuthor != "" {
		opts.UnknownAuthor = c.UnknownAuthor
	}
	return opts
}

// SetSearcher replaces the default bookmark scanner, e.g. with a bleve index.
func (a *App) SetSearcher(s search.Searcher) {
	a.searcher = s
}

func (a *App) SetOpener(o Opener) {
	a.opener = o
}

// SetInitialRoute selects the route mounted first. It takes a path or a
// category name and wins over the remembered route.
func (a *App) SetInitialRoute(name string) {
	a.initialRoute = name
}

// Close cancels the active route's requests.
func (a *App) Close() {
	a.closeSession()
}

func (a *App) startRoute() int {
	if i, ok := FindRoute(a.routes, a.initialRoute); ok {
		return i
	}
	if a.store != nil {
		if last, err := a.store.GetMeta(metaLastRoute); err == nil {
			if i, ok := FindRoute(a.routes, last); ok {
				return i
			}
		}
	}
	if i, ok := FindRoute(a.routes, a.config.Feed.DefaultCategory); ok {
		return i
	}
	return 0
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Reader.WordWrapMaxWidth
	minWidth := a.config.UI.Reader.WordWrapMinWidth
	wordWrapWidth := (a.width * 9) / 10
	if maxWidth > 0 && wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return a.activateRoute(a.startRoute())
}

func (a *App) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) busy() bool {
	return a.loading || a.loadingMore || a.loadingArticle
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case pageLoadedMsg:
		return a, a.handlePageLoaded(msg)

	case progressMsg:
		return a, a.handleProgress(msg)

	case progressHideMsg:
		if a.current(msg.gen) && !a.loading {
			a.progressVisible = false
		}
		return a, nil

	case progress.FrameMsg:
		model, cmd := a.progress.Update(msg)
		if m, ok := model.(progress.Model); ok {
			a.progress = m
		}
		return a, cmd

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case marksLoadedMsg:
		if a.current(msg.gen) {
			for id, v := range msg.bookmarked {
				a.bookmarked[id] = v
			}
			for id, v := range msg.seen {
				a.seen[id] = v
			}
		}
		return a, nil

	case articleRenderedMsg:
		if a.view == ViewReader && a.currentArticle != nil && a.currentArticle.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
			return a, a.setStatus("", StatusInfo, 0)
		}
		return a, nil

	case bookmarkToggledMsg:
		if msg.err != nil {
			return a, a.setStatus(wrapErr("bookmark", msg.err).Error(), StatusError, 0)
		}
		a.bookmarked[msg.article.ID] = msg.saved
		text := MsgUnbookmarked
		if msg.saved {
			text = MsgBookmarked
		}
		cmds := []tea.Cmd{a.setStatus(text, StatusSuccess, 2*time.Second)}
		if a.view == ViewSaved {
			cmds = append(cmds, a.loadBookmarks())
		}
		return a, tea.Batch(cmds...)

	case bookmarksLoadedMsg:
		items := make([]list.Item, len(msg.bookmarks))
		for i, b := range msg.bookmarks {
			items[i] = bookmarkItem{bookmark: b}
			a.bookmarked[b.Article.ID] = true
		}
		return a, a.savedList.SetItems(items)

	case searchDebounceFireMsg:
		if msg.seq != a.searchSeq || a.view != ViewSearch {
			return a, nil
		}
		query := a.pendingSearchQuery
		if len([]rune(query)) < 2 {
			a.searchList.SetItems([]list.Item{})
			return a, nil
		}
		return a, a.performSearch(query, msg.seq)

	case searchResultsMsg:
		if msg.seq != a.searchSeq || a.view != ViewSearch {
			return a, nil
		}
		items := make([]list.Item, len(msg.results))
		for i, r := range msg.results {
			items[i] = searchResultItem{result: r}
		}
		return a, tea.Batch(
			a.searchList.SetItems(items),
			a.setStatus(MsgResultsCount(len(items)), StatusInfo, 2*time.Second),
		)

	case errorMsg:
		debuglog.Errorf("%v", msg.err)
		return a, a.setStatus(msg.err.Error(), StatusError, 5*time.Second)

	case clearStatusMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil
	}

	// everything else goes to the component that owns the view
	var cmd tea.Cmd
	switch a.view {
	case ViewReader:
		a.viewport, cmd = a.viewport.Update(msg)
	case ViewSaved:
		a.savedList, cmd = a.savedList.Update(msg)
	case ViewSearch:
		a.searchInput, cmd = a.searchInput.Update(msg)
	}
	return a, cmd
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	a.savedList.SetSize(width, height-3)
	searchListHeight := height - 10
	if searchListHeight < 5 {
		searchListHeight = 5
	}
	a.searchList.SetSize(width, searchListHeight)

	a.viewport.Width = width
	a.viewport.Height = height - 3

	a.progress.Width = max(width-4, 10)
	a.help.Width = width

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = width - 4
	}
	a.searchInput.Width = inputWidth

	a.ensureCursorVisible()
}

func (a *App) cardWidth() int {
	w := a.width - 2
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (a *App) selectedArticle() *storage.Article {
	if a.cursor < 0 || a.cursor >= len(a.state.Articles) {
		return nil
	}
	return a.state.Articles[a.cursor]
}

func (a *App) renderCard(i int) string {
	article := a.state.Articles[i]
	c := card.New(article, a.cardOpts)
	return card.Render(c, a.cardWidth(), a.cardStyles, card.RenderState{
		Selected:   i == a.cursor,
		Seen:       a.seen[article.ID],
		Bookmarked: a.bookmarked[article.ID],
	})
}

func (a *App) bodyHeight() int {
	return a.height - feedChromeHeight
}

// ensureCursorVisible scrolls the card window so the selected card fits.
func (a *App) ensureCursorVisible() {
	avail := a.bodyHeight()
	if avail <= 0 || len(a.state.Articles) == 0 {
		a.offset = 0
		return
	}
	if a.cursor < a.offset {
		a.offset = a.cursor
		return
	}
	for a.offset < a.cursor {
		used := 0
		for i := a.offset; i <= a.cursor; i++ {
			used += lipgloss.Height(a.renderCard(i))
		}
		if used <= avail {
			break
		}
		a.offset++
	}
}

func (a *App) moveCursor(delta int) tea.Cmd {
	n := len(a.state.Articles)
	if n == 0 {
		return nil
	}
	a.cursor += delta
	if a.cursor < 0 {
		a.cursor = 0
	}
	if a.cursor > n-1 {
		a.cursor = n - 1
	}
	a.ensureCursorVisible()
	return a.maybePrefetch()
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewFeed:
		content = a.renderFeed()
	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, a.height-3, a.spinner.View()+" "+renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewSaved:
		if len(a.savedList.Items()) == 0 {
			content = renderCentered(a.width, a.height-3, renderMuted(MsgNoBookmarks))
		} else {
			content = a.savedList.View()
		}
	case ViewSearch:
		content = a.renderSearch()
	case ViewHelp:
		content = renderCentered(a.width, a.height-3, lipgloss.JoinVertical(
			lipgloss.Center,
			GetCompactBanner("keyboard shortcuts"),
			"",
			a.help.FullHelpView(a.keys.FullHelp()),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Top, content, renderSeparator(a.width-1), a.renderStatusBar())
}

func (a *App) renderFeed() string {
	route := a.routes[a.active]

	progressLine := ""
	switch {
	case a.progressVisible:
		progressLine = a.progress.View()
	case a.loadingMore:
		progressLine = a.spinner.View() + " " + renderMuted(MsgLoadingMore)
	}

	subtitle := ""
	if a.state.Page > 0 {
		subtitle = MsgLoaded(len(a.state.Articles), a.state.TotalResults)
	}
	header := renderHeader(MsgFeedHeader(route.Label), subtitle, a.width)
	if subtitle == "" {
		header += "\n"
	}

	body := a.renderCards()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderTabs(a.routes, a.active, a.width),
		progressLine,
		header,
		body,
		a.renderFeedFooter(),
	)
}

func (a *App) renderCards() string {
	avail := a.bodyHeight()
	if avail < 1 {
		avail = 1
	}
	if len(a.state.Articles) == 0 {
		switch {
		case a.loading:
			return renderCentered(a.width, avail, a.spinner.View()+" "+renderMuted("Loading headlines…"))
		case a.state.Status == feed.StatusFailed:
			return renderCentered(a.width, avail, "")
		default:
			return renderCentered(a.width, avail, renderMuted(MsgNoResults))
		}
	}

	var cards []string
	used := 0
	for i := a.offset; i < len(a.state.Articles); i++ {
		view := a.renderCard(i)
		h := lipgloss.Height(view)
		if used+h > avail && len(cards) > 0 {
			break
		}
		cards = append(cards, view)
		used += h
	}
	return lipgloss.NewStyle().Height(avail).MaxHeight(avail).Render(lipgloss.JoinVertical(lipgloss.Left, cards...))
}

func (a *App) renderFeedFooter() string {
	switch {
	case a.state.Status == feed.StatusFailed && a.state.Err != nil:
		hint := " • press " + a.keys.Retry.Help().Key + " to retry"
		text := truncateEnd(a.state.Err.Error(), max(a.width-len(hint)-3, 10))
		return ErrorMessageStyle.Render("✗ "+text) + renderMuted(hint)
	case a.state.Exhausted && len(a.state.Articles) > 0:
		return renderMuted(MsgEndOfFeed)
	default:
		return ""
	}
}

func (a *App) renderSearch() string {
	helpText := ""
	switch {
	case a.searchInput.Focused():
		helpText = "Type to search • Tab/↓: results • Esc: back"
	case len(a.searchList.Items()) > 0:
		helpText = "↑↓: navigate • Enter: read • Tab: search box • Esc: back"
	default:
		helpText = MsgNoResults + " • Tab: search box • Esc: back"
	}

	searchContent := lipgloss.JoinVertical(
		lipgloss.Top,
		renderHeader("› search saved headlines", "", a.width),
		"",
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
		renderHelp(helpText),
		"",
		a.searchList.View(),
	)

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height - 3).
		MaxHeight(a.height - 3).
		Render(searchContent)
}

func (a *App) renderStatusBar() string {
	if s := a.renderStatus(); s != "" {
		return StatusBarStyle.Width(a.width).Render(s)
	}
	bindings := a.keyHandler.helpForView()
	if len(bindings) == 0 {
		return ""
	}
	return StatusBarStyle.Width(a.width).Render(strings.TrimSpace(a.help.ShortHelpView(bindings)))
}
