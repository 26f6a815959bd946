package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/feed"
	"github.com/glabrego/bookreview-cli/internal/mutation"
	"github.com/glabrego/bookreview-cli/internal/preview"
	"github.com/glabrego/bookreview-cli/internal/tui/actions"
	"github.com/glabrego/bookreview-cli/internal/tui/platform"
	"github.com/glabrego/bookreview-cli/internal/tui/state"
	tuitheme "github.com/glabrego/bookreview-cli/internal/tui/theme"
	"github.com/glabrego/bookreview-cli/internal/tui/view"
	"github.com/glabrego/bookreview-cli/internal/upload"
)

type Service interface {
	actions.Service
	BeginPage() feed.Request
	CommitPage(res feed.Result) bool
	FeedState() feed.State
	Pagination() *feed.Pagination
	CurrentUser() *bookreview.User
	Authenticated() bool
	NewPreviewSlot() *preview.Slot
	OpenAvatar(path string) (upload.File, error)
}

type clearStatusMsg struct {
	id int
}

type Model struct {
	service Service
	theme   tuitheme.Theme
	history state.History

	feed     feed.State
	cursor   int
	loading  bool
	bootDone bool

	detail    *bookreview.Book
	detailErr error
	detailTop int
	confirm   bool

	form       *form
	preview    view.InlineImagePreviewState
	previewKey string

	showHelp bool
	width    int
	height   int
	status   string
	statusID int
	err      error

	openURLFn     func(string) error
	copyURLFn     func(string) error
	renderImageFn func(string, int) (string, error)
	statusTTL     time.Duration
}

func NewModel(service Service) Model {
	return Model{
		service:       service,
		theme:         tuitheme.Default(),
		history:       state.NewHistory(mutation.Route{Name: mutation.RouteFeed}),
		openURLFn:     platform.OpenURLInBrowser,
		copyURLFn:     platform.CopyToClipboard,
		renderImageFn: view.RenderImageFile,
		statusTTL:     4 * time.Second,
	}
}

func (m Model) Init() tea.Cmd {
	if m.service == nil {
		return nil
	}
	return actions.BootstrapCmd(m.service)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case actions.BootstrapMsg:
		m.bootDone = true
		if msg.Err != nil {
			m.err = fmt.Errorf("could not restore session: %w", msg.Err)
		} else if msg.User != nil {
			m.status = "Welcome back, " + msg.User.Name
		}
		return m.loadPage()
	case actions.PageLoadedMsg:
		if !m.service.CommitPage(msg.Result) {
			return m, nil
		}
		m.loading = false
		m.feed = m.service.FeedState()
		m.cursor = state.ClampCursor(m.cursor, len(m.feed.Books))
		if m.feed.Status == feed.StatusError {
			m.err = errors.New(m.feed.Message)
		}
		return m, nil
	case actions.DetailLoadedMsg:
		if cur := m.history.Current(); cur.Name != mutation.RouteDetail || cur.ID != msg.ID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.detailErr = msg.Err
			return m, nil
		}
		book := msg.Book
		m.detail = &book
		return m, nil
	case actions.EditLoadedMsg:
		return m.applyEditLoaded(msg)
	case actions.AuthSuccessMsg:
		m.closeForm()
		m.history = state.NewHistory(mutation.Route{Name: mutation.RouteFeed})
		m.err = nil
		return m.setStatusAndLoad(msg.Status)
	case actions.AuthErrorMsg:
		if m.form != nil && m.form.kind == formSignup {
			m.preview = view.InlineImagePreviewState{}
			m.previewKey = ""
		}
		return m.applyFormError(msg.Err, "authentication failed")
	case actions.LogoutMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.history = state.NewHistory(mutation.Route{Name: mutation.RouteFeed})
		return m.setStatusAndLoad("Logged out")
	case actions.MutationDoneMsg:
		return m.applyMutation(msg)
	case actions.OpenURLSuccessMsg:
		return m.setStatus(msg.Status)
	case actions.OpenURLErrorMsg:
		m.err = msg.Err
		return m, nil
	case actions.PreviewMsg:
		if msg.Key != m.previewKey {
			return m, nil
		}
		m.preview.Loading = false
		m.preview.Raw = msg.Raw
		m.preview.Err = ""
		if msg.Err != nil {
			m.preview.Err = msg.Err.Error()
		}
		return m, nil
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

// loadPage starts a fetch for the current pagination. Any fetch still in
// flight is superseded.
func (m Model) loadPage() (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, nil
	}
	req := m.service.BeginPage()
	m.loading = true
	m.err = nil
	return m, actions.LoadPageCmd(m.service, req)
}

func (m Model) setStatus(status string) (tea.Model, tea.Cmd) {
	m.statusID++
	m.status = status
	return m, clearStatusCmd(m.statusID, m.statusTTL)
}

func (m Model) setStatusAndLoad(status string) (tea.Model, tea.Cmd) {
	next, statusCmd := m.setStatus(status)
	next, loadCmd := next.(Model).loadPage()
	return next, tea.Batch(statusCmd, loadCmd)
}

func (m Model) applyMutation(msg actions.MutationDoneMsg) (tea.Model, tea.Cmd) {
	m.confirm = false
	m.loading = false
	if msg.Err != nil {
		if errors.Is(msg.Err, mutation.ErrCancelled) {
			return m.setStatus("Delete cancelled")
		}
		if m.form != nil {
			return m.applyFormError(msg.Err, "could not save")
		}
		m.err = msg.Err
		return m, nil
	}
	next, statusCmd := m.setStatus(msg.Status)
	if msg.Nav == nil {
		return next, statusCmd
	}
	next, navCmd := next.(Model).navigate(msg.Nav.Route, msg.Nav.Replace, false)
	return next, tea.Batch(statusCmd, navCmd)
}

// navigate applies a route change and runs whatever the new screen needs.
func (m Model) navigate(route mutation.Route, replace, fromList bool) (tea.Model, tea.Cmd) {
	m.closeForm()
	m.history = m.history.Navigate(route, replace)
	return m.enter(m.history.Current(), fromList)
}

func (m Model) back() (tea.Model, tea.Cmd) {
	m.closeForm()
	prev, ok := m.history.Back()
	if !ok {
		return m, nil
	}
	m.history = prev
	return m.enter(prev.Current(), false)
}

func (m Model) enter(route mutation.Route, fromList bool) (tea.Model, tea.Cmd) {
	m.confirm = false
	m.err = nil
	switch route.Name {
	case mutation.RouteFeed:
		return m.loadPage()
	case mutation.RouteDetail:
		m.detail = nil
		m.detailErr = nil
		m.detailTop = 0
		m.loading = true
		return m, actions.DetailCmd(m.service, route.ID, fromList)
	case mutation.RouteEdit:
		m.openForm(formEdit)
		m.loading = true
		return m, actions.LoadEditCmd(m.service, route.ID)
	case mutation.RouteNew:
		m.openForm(formNew)
		return m, nil
	case mutation.RouteLogin:
		m.openForm(formLogin)
		return m, nil
	case mutation.RouteSignup:
		m.openForm(formSignup)
		return m, nil
	case mutation.RouteProfile:
		m.openForm(formProfile)
		user := m.service.CurrentUser()
		if user == nil {
			return m, nil
		}
		m.form.setValue("name", user.Name)
		if user.IconURL == "" {
			return m, nil
		}
		m.previewKey = user.IconURL
		m.preview = view.InlineImagePreviewState{Enabled: true, Loading: true}
		return m, actions.PreviewURLCmd(m.previewKey, user.IconURL, m.contentWidth()/2)
	}
	return m, nil
}

func (m Model) selectedBook() (bookreview.Book, bool) {
	if len(m.feed.Books) == 0 {
		return bookreview.Book{}, false
	}
	return m.feed.Books[state.ClampCursor(m.cursor, len(m.feed.Books))], true
}

func (m Model) owns(book bookreview.Book) bool {
	if m.service == nil {
		return false
	}
	return book.OwnedBy(m.service.CurrentUser())
}

func (m Model) openCurrentURL() (tea.Model, tea.Cmd) {
	if m.detail == nil {
		return m, nil
	}
	url, err := platform.ValidateReviewURL(m.detail.URL)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m, actions.OpenURLCmd(url, m.openURLFn, m.copyURLFn)
}

func (m Model) copyCurrentURL() (tea.Model, tea.Cmd) {
	if m.detail == nil {
		return m, nil
	}
	url, err := platform.ValidateReviewURL(m.detail.URL)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m, actions.CopyURLCmd(url, m.copyURLFn)
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

// Close releases any preview still held by an open form.
func (m Model) Close() {
	m.closeForm()
}
