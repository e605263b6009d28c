package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

type KeyHandler struct {
	app  *App
	keys keyMap
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app, keys: app.keys}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}
	// the saved list owns every key while its filter prompt is open
	if kh.app.view == ViewSaved && kh.app.savedList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		kh.app.savedList, cmd = kh.app.savedList.Update(msg)
		return kh.app, cmd
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}
	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewSearch && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "ctrl+c":
		return kh.quit()
	case "enter":
		if items := kh.app.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(searchResultItem); ok {
				return kh.app, kh.openReader(i.result.Article, ViewSearch)
			}
		}
		return kh.app, nil
	case "tab", "down":
		if len(kh.app.searchList.Items()) > 0 {
			kh.app.searchInput.Blur()
			kh.app.searchList.Select(0)
		}
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

// delegateToTextInput feeds the search box and schedules a debounced search
// when its value changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := kh.app.pendingSearchQuery
	newSearchInput, cmd := kh.app.searchInput.Update(msg)
	kh.app.searchInput = newSearchInput

	newVal := sanitizeSearchInput(kh.app.searchInput.Value())
	if newVal == prev {
		return kh.app, cmd
	}
	kh.app.pendingSearchQuery = newVal
	kh.app.searchSeq++
	seq := kh.app.searchSeq
	return kh.app, tea.Batch(cmd, tea.Tick(kh.app.searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceFireMsg{seq: seq}
	}))
}

func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, kh.keys.Quit):
		model, cmd := kh.quit()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Search):
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Saved):
		model, cmd := kh.enterSavedMode()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Help):
		if kh.app.view == ViewHelp {
			model, cmd := kh.navigateBack()
			return model, cmd, true
		}
		kh.app.previousView = kh.app.view
		kh.app.view = ViewHelp
		return kh.app, nil, true
	}

	switch kh.app.view {
	case ViewFeed:
		return kh.handleFeedKeys(msg)
	case ViewReader:
		return kh.handleArticleKeys(msg, kh.app.currentArticle)
	case ViewSaved:
		return kh.handleSavedKeys(msg)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Up):
		return a, a.moveCursor(-1), true
	case key.Matches(msg, kh.keys.Down):
		return a, a.moveCursor(1), true
	case key.Matches(msg, kh.keys.Top):
		return a, a.moveCursor(-len(a.state.Articles)), true
	case key.Matches(msg, kh.keys.Bottom):
		return a, a.moveCursor(len(a.state.Articles)), true
	case key.Matches(msg, kh.keys.NextRoute):
		return a, a.activateRoute((a.active + 1) % len(a.routes)), true
	case key.Matches(msg, kh.keys.PrevRoute):
		return a, a.activateRoute((a.active - 1 + len(a.routes)) % len(a.routes)), true
	case key.Matches(msg, kh.keys.JumpRoute):
		i := int(msg.String()[0] - '1')
		if i == a.active || i >= len(a.routes) {
			return a, nil, true
		}
		return a, a.activateRoute(i), true
	case key.Matches(msg, kh.keys.Retry):
		if a.state.Status != feed.StatusFailed {
			return a, nil, true
		}
		return a, a.retry(), true
	case key.Matches(msg, kh.keys.Enter):
		if article := a.selectedArticle(); article != nil {
			return a, kh.openReader(article, ViewFeed), true
		}
		return a, nil, true
	}
	return kh.handleArticleKeys(msg, a.selectedArticle())
}

// handleArticleKeys covers the actions available on any single article.
func (kh *KeyHandler) handleArticleKeys(msg tea.KeyMsg, article *storage.Article) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Open):
		if article != nil {
			return a, a.openLink(article.URL, false), true
		}
		return a, nil, true
	case key.Matches(msg, kh.keys.OpenImage):
		if article == nil {
			return a, nil, true
		}
		if article.ImageURL == "" {
			return a, a.setStatus("No image for this headline", StatusWarn, 2*time.Second), true
		}
		return a, a.openLink(article.ImageURL, true), true
	case key.Matches(msg, kh.keys.Bookmark):
		return a, a.toggleBookmark(article), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleSavedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	item, ok := kh.app.savedList.SelectedItem().(bookmarkItem)
	if !ok {
		return kh.app, nil, false
	}
	if key.Matches(msg, kh.keys.Enter) {
		return kh.app, kh.openReader(item.bookmark.Article, ViewSaved), true
	}
	return kh.handleArticleKeys(msg, item.bookmark.Article)
}

// delegateToCharm lets the bubbles components handle keys we don't intercept.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewSearch:
		switch msg.String() {
		case "tab", "shift+tab", "/":
			kh.app.searchInput.Focus()
			return kh.app, nil
		case "up":
			if kh.app.searchList.Index() == 0 {
				kh.app.searchInput.Focus()
				return kh.app, nil
			}
		case "enter":
			if i, ok := kh.app.searchList.SelectedItem().(searchResultItem); ok {
				return kh.app, kh.openReader(i.result.Article, ViewSearch)
			}
			return kh.app, nil
		}
		kh.app.searchList, cmd = kh.app.searchList.Update(msg)
		return kh.app, cmd

	case ViewSaved:
		kh.app.savedList, cmd = kh.app.savedList.Update(msg)
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// openReader shows article in the reader and marks it seen.
func (kh *KeyHandler) openReader(article *storage.Article, from View) tea.Cmd {
	a := kh.app
	if article == nil {
		return nil
	}
	r, err := a.getRenderer()
	if err != nil {
		return a.setStatus(wrapErr("reader", err).Error(), StatusError, 0)
	}
	a.currentArticle = article
	a.readerReturn = from
	a.loadingArticle = true
	a.view = ViewReader
	a.seen[article.ID] = true
	return tea.Batch(
		a.setStatus(MsgLoadingArticle, StatusInfo, 0),
		a.startSpinner(),
		a.markSeen(article),
		renderArticle(r, article, a.cardOpts),
	)
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewReader:
		a.view = a.readerReturn
		a.currentArticle = nil
		a.loadingArticle = false
		if a.view == ViewSearch {
			// land on the results, not the input
			a.searchInput.Blur()
		}
		if a.view == ViewFeed {
			a.ensureCursorVisible()
		}
		return a, nil

	case ViewSaved:
		a.view = ViewFeed
		return a, nil

	case ViewSearch:
		a.view = a.previousView
		a.searchInput.Reset()
		a.pendingSearchQuery = ""
		a.searchSeq++
		a.searchList.SetItems([]list.Item{})
		return a, nil

	case ViewHelp:
		a.view = a.previousView
		return a, nil

	default:
		return a, nil
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.view != ViewSearch && a.view != ViewHelp {
		a.previousView = a.view
		if a.view == ViewReader {
			a.previousView = a.readerReturn
		}
	}
	a.view = ViewSearch
	a.searchInput.Reset()
	a.pendingSearchQuery = ""
	a.searchList.SetItems([]list.Item{})

	engineName := "scan"
	if _, ok := a.searcher.(*search.BleveEngine); ok {
		engineName = "bleve"
	}
	docs := -1
	if ds, ok := a.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			docs = n
		}
	}
	return a, tea.Batch(
		a.searchInput.Focus(),
		a.setStatus(MsgSearchStats(engineName, docs), StatusInfo, 3*time.Second),
	)
}

func (kh *KeyHandler) enterSavedMode() (tea.Model, tea.Cmd) {
	a := kh.app
	a.view = ViewSaved
	a.savedList.ResetFilter()
	return a, a.loadBookmarks()
}

func (kh *KeyHandler) quit() (tea.Model, tea.Cmd) {
	kh.app.closeSession()
	return kh.app, tea.Quit
}

// sanitizeSearchInput trims, flattens whitespace and caps the query length.
func sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > 256 {
		input = strings.TrimSpace(string(r[:256]))
	}
	return input
}

// helpForView lists the bindings shown in the status bar.
func (kh *KeyHandler) helpForView() []key.Binding {
	k := kh.keys
	switch kh.app.view {
	case ViewFeed:
		if kh.app.state.Status == feed.StatusFailed {
			return []key.Binding{k.Retry, k.NextRoute, k.Saved, k.Search, k.Help, k.Quit}
		}
		return k.ShortHelp()
	case ViewReader:
		return []key.Binding{k.Open, k.OpenImage, k.Bookmark, k.Back, k.Quit}
	case ViewSaved:
		return []key.Binding{k.Enter, k.Open, k.Bookmark, k.Search, k.Back}
	case ViewSearch:
		return []key.Binding{k.Back}
	case ViewHelp:
		return []key.Binding{k.Back, k.Quit}
	default:
		return nil
	}
}
