package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/bookreview-cli/internal/auth"
	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/feed"
	"github.com/glabrego/bookreview-cli/internal/mutation"
	"github.com/glabrego/bookreview-cli/internal/preview"
	"github.com/glabrego/bookreview-cli/internal/tui/view"
)

const (
	requestTimeout = 10 * time.Second
	uploadTimeout  = 30 * time.Second
)

type Service interface {
	Bootstrap(ctx context.Context) (*bookreview.User, error)
	SignIn(ctx context.Context, creds auth.Credentials) (*bookreview.User, error)
	SignUp(ctx context.Context, form auth.SignUpForm) (*bookreview.User, error)
	Logout(ctx context.Context) error
	FetchPage(ctx context.Context, req feed.Request) feed.Result
	Mutations(nav mutation.Navigator, confirm mutation.Confirmer) *mutation.Controller
}

// Navigation is a route change requested by a finished command.
type Navigation struct {
	Route   mutation.Route
	Replace bool
}

// RouteRecorder captures navigation requested while a command runs so the
// model can apply it when the result arrives.
type RouteRecorder struct {
	last *Navigation
}

func (r *RouteRecorder) Navigate(route mutation.Route, replace bool) {
	r.last = &Navigation{Route: route, Replace: replace}
}

func (r *RouteRecorder) Take() *Navigation {
	n := r.last
	r.last = nil
	return n
}

// Answer is a confirmer whose decision was already made by the user.
type Answer bool

func (a Answer) Confirm(string) bool { return bool(a) }

type BootstrapMsg struct {
	User     *bookreview.User
	Err      error
	Duration time.Duration
}

type PageLoadedMsg struct {
	Result   feed.Result
	Duration time.Duration
}

type AuthSuccessMsg struct {
	User   *bookreview.User
	Status string
}

type AuthErrorMsg struct {
	Err error
}

type LogoutMsg struct {
	Err error
}

type DetailLoadedMsg struct {
	ID   bookreview.ID
	Book bookreview.Book
	Err  error
}

type EditLoadedMsg struct {
	Session *mutation.EditSession
	Nav     *RouteRecorder
	Draft   mutation.ReviewDraft
	Err     error
}

// MutationDoneMsg reports a create, update, delete or profile save.
type MutationDoneMsg struct {
	Status string
	Nav    *Navigation
	User   *bookreview.User
	Err    error
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

// PreviewMsg carries rendered image output for the preview identified by Key.
type PreviewMsg struct {
	Key string
	Raw string
	Err error
}

func BootstrapCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		start := time.Now()

		user, err := service.Bootstrap(ctx)
		return BootstrapMsg{User: user, Err: err, Duration: time.Since(start)}
	}
}

// LoadPageCmd fetches the page described by req. The request must come from
// feed.Controller.Begin so that a superseded result can be discarded.
func LoadPageCmd(service Service, req feed.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		start := time.Now()

		res := service.FetchPage(ctx, req)
		return PageLoadedMsg{Result: res, Duration: time.Since(start)}
	}
}

func SignInCmd(service Service, creds auth.Credentials) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		user, err := service.SignIn(ctx, creds)
		if err != nil {
			return AuthErrorMsg{Err: err}
		}
		return AuthSuccessMsg{User: user, Status: "Signed in"}
	}
}

// SignUpCmd registers the account. The avatar preview held by slot is
// released once the attempt finishes, whatever the outcome.
func SignUpCmd(service Service, form auth.SignUpForm, slot *preview.Slot) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()

		var user *bookreview.User
		signUp := func() error {
			var err error
			user, err = service.SignUp(ctx, form)
			return err
		}
		var err error
		if slot != nil {
			err = slot.Guard(signUp)
		} else {
			err = signUp()
		}
		if err != nil {
			return AuthErrorMsg{Err: err}
		}
		return AuthSuccessMsg{User: user, Status: "Account created"}
	}
}

func LogoutCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return LogoutMsg{Err: service.Logout(ctx)}
	}
}

func DetailCmd(service Service, id bookreview.ID, fromList bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		book, err := service.Mutations(&RouteRecorder{}, Answer(false)).Detail(ctx, id, fromList)
		return DetailLoadedMsg{ID: id, Book: book, Err: err}
	}
}

func LoadEditCmd(service Service, id bookreview.ID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		nav := &RouteRecorder{}
		session := service.Mutations(nav, Answer(false)).NewEditSession(id)
		draft, err := session.Load(ctx)
		return EditLoadedMsg{Session: session, Nav: nav, Draft: draft, Err: err}
	}
}

func CreateCmd(service Service, draft mutation.ReviewDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		nav := &RouteRecorder{}
		if err := service.Mutations(nav, Answer(false)).Create(ctx, draft); err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Status: "Review posted", Nav: nav.Take()}
	}
}

func SubmitEditCmd(session *mutation.EditSession, nav *RouteRecorder, draft mutation.ReviewDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := session.Submit(ctx, draft); err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Status: "Review updated", Nav: nav.Take()}
	}
}

// DeleteCmd deletes id if the user confirmed. A declined prompt reaches the
// controller as a refusal and sends nothing.
func DeleteCmd(service Service, id bookreview.ID, confirmed bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		nav := &RouteRecorder{}
		if err := service.Mutations(nav, Answer(confirmed)).Delete(ctx, id); err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Status: "Review deleted", Nav: nav.Take()}
	}
}

func UpdateProfileCmd(service Service, draft mutation.ProfileDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()

		nav := &RouteRecorder{}
		user, err := service.Mutations(nav, Answer(false)).UpdateProfile(ctx, draft)
		if err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Status: "Profile saved", User: user, Nav: nav.Take()}
	}
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened URL in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy URL to clipboard")}
	}
}

// PreviewFileCmd renders the local preview file at path.
func PreviewFileCmd(key, path string, width int, render func(string, int) (string, error)) tea.Cmd {
	if render == nil {
		render = view.RenderImageFile
	}
	return func() tea.Msg {
		raw, err := render(path, width)
		return PreviewMsg{Key: key, Raw: raw, Err: err}
	}
}

// PreviewURLCmd renders a remote image such as the current avatar.
func PreviewURLCmd(key, url string, width int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		raw, err := view.RenderImageURL(ctx, url, width)
		return PreviewMsg{Key: key, Raw: raw, Err: err}
	}
}
