package tui

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/bookreview-cli/internal/apitest"
	"github.com/glabrego/bookreview-cli/internal/app"
	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/mutation"
)

var ansiScreenStrip = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type memoryTokens struct{ token string }

func (m *memoryTokens) LoadToken(context.Context) (string, error) { return m.token, nil }

func (m *memoryTokens) SaveToken(_ context.Context, token string) error {
	m.token = token
	return nil
}

func (m *memoryTokens) DeleteToken(context.Context) error {
	m.token = ""
	return nil
}

func newTestModel(t *testing.T, srv *apitest.Server, token string) Model {
	t.Helper()
	client := bookreview.NewClient(srv.BaseURL(), srv.Client())
	svc := app.NewService(client, &memoryTokens{token: token}, app.Options{
		PageLimit:  apitest.PageSize,
		PreviewDir: t.TempDir(),
	})
	m := NewModel(svc)
	m.statusTTL = time.Millisecond
	m.openURLFn = func(string) error { return nil }
	m.copyURLFn = func(string) error { return nil }
	m.renderImageFn = func(string, int) (string, error) { return "[avatar preview]", nil }
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return run(t, updated.(Model), m.Init())
}

// run executes cmd and feeds every resulting message back into the model
// until no work is left. Status-clearing ticks are dropped.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("command queue did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, clearStatusMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			updated, more := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+o":
			msg = tea.KeyMsg{Type: tea.KeyCtrlO}
		case "ctrl+u":
			msg = tea.KeyMsg{Type: tea.KeyCtrlU}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, cmd := m.Update(msg)
		m = run(t, updated.(Model), cmd)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = press(t, m, string(r))
	}
	return m
}

func screen(m Model) string {
	return ansiScreenStrip.ReplaceAllString(m.View(), "")
}

func TestModel_BootstrapShowsPublicFeed(t *testing.T) {
	srv := apitest.New(t)
	srv.AddBooks(12, "")

	m := newTestModel(t, srv, "")
	out := screen(m)
	for _, want := range []string{"Book Reviews", "Book 1", "Book 10", "page 1 (1-10) +", "user guest", "L login"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q on screen, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Book 11") {
		t.Fatalf("second page leaked into first page:\n%s", out)
	}
	if srv.Count(http.MethodGet, "/api/public/books") != 1 {
		t.Fatalf("expected one public list request, got %+v", srv.Requests())
	}
}

func TestModel_PagingKeys(t *testing.T) {
	srv := apitest.New(t)
	srv.AddBooks(12, "")
	m := newTestModel(t, srv, "")

	m = press(t, m, "l")
	if m.feed.Params.Offset != 10 || len(m.feed.Books) != 2 || m.feed.HasMore {
		t.Fatalf("unexpected second page: offset=%d books=%d more=%v", m.feed.Params.Offset, len(m.feed.Books), m.feed.HasMore)
	}
	requests := len(srv.Requests())
	m = press(t, m, "l")
	if len(srv.Requests()) != requests || m.status != "No more reviews" {
		t.Fatalf("expected next to be refused on the last page, status %q", m.status)
	}

	m = press(t, m, "h")
	if m.feed.Params.Offset != 0 || len(m.feed.Books) != 10 {
		t.Fatalf("unexpected first page after prev: %+v", m.feed.Params)
	}
	requests = len(srv.Requests())
	m = press(t, m, "h")
	if len(srv.Requests()) != requests {
		t.Fatal("prev on the first page must not fetch")
	}
}

func TestModel_StalePageResultIsDiscarded(t *testing.T) {
	srv := apitest.New(t)
	srv.AddBooks(12, "")
	m := newTestModel(t, srv, "")

	updated, toSecond := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	m = updated.(Model)
	updated, toFirst := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	m = updated.(Model)

	first := toFirst()
	second := toSecond()
	updated, _ = m.Update(first)
	updated, _ = updated.(Model).Update(second)
	m = updated.(Model)

	if m.feed.Params.Offset != 0 || len(m.feed.Books) != 10 {
		t.Fatalf("superseded page overwrote the feed: offset=%d books=%d", m.feed.Params.Offset, len(m.feed.Books))
	}
	if m.loading {
		t.Fatal("expected loading to finish with the latest result")
	}
}

func TestModel_FeedErrorState(t *testing.T) {
	srv := apitest.New(t)
	srv.FailNext(http.MethodGet, "/api/public/books", http.StatusInternalServerError)

	m := newTestModel(t, srv, "")
	out := screen(m)
	if !strings.Contains(out, "failed to load reviews") || !strings.Contains(out, "state: warning") {
		t.Fatalf("expected load error on screen, got:\n%s", out)
	}

	m = press(t, m, "r")
	if m.err != nil || m.feed.Message != "" {
		t.Fatalf("expected reload to clear the error, got %v / %q", m.err, m.feed.Message)
	}
}

func TestModel_LoginFlow(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("alice", "a@example.com", "secret1")
	srv.AddBooks(3, "a@example.com")
	m := newTestModel(t, srv, "")

	m = press(t, m, "L")
	if m.form == nil || m.form.kind != formLogin {
		t.Fatal("expected login form")
	}
	m = typeText(t, m, "a@example.com")
	m = press(t, m, "tab")
	m = typeText(t, m, "secret1")
	if strings.Contains(screen(m), "secret1") {
		t.Fatal("password must be masked on screen")
	}
	m = press(t, m, "enter")

	if m.form != nil || m.history.Current().Name != mutation.RouteFeed {
		t.Fatalf("expected feed after sign in, route %+v", m.history.Current())
	}
	out := screen(m)
	for _, want := range []string{"user alice", "[mine]", "n new", "L logout"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q after sign in, got:\n%s", want, out)
		}
	}
	if srv.Count(http.MethodGet, "/api/books") != 1 {
		t.Fatalf("expected private list after sign in, got %+v", srv.Requests())
	}
}

func TestModel_LoginValidationStaysOnForm(t *testing.T) {
	srv := apitest.New(t)
	m := newTestModel(t, srv, "")

	m = press(t, m, "L")
	m = typeText(t, m, "nope")
	m = press(t, m, "tab")
	m = typeText(t, m, "123")
	m = press(t, m, "enter")

	if m.form == nil {
		t.Fatal("expected to stay on the login form")
	}
	out := screen(m)
	for _, want := range []string{"invalid email", "password must be at least 6 characters"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q on form, got:\n%s", want, out)
		}
	}
	if srv.Count(http.MethodPost, "/api/signin") != 0 {
		t.Fatal("invalid credentials must not reach the server")
	}
}

func TestModel_SignedOutCannotWrite(t *testing.T) {
	srv := apitest.New(t)
	m := newTestModel(t, srv, "")

	m = press(t, m, "n")
	if m.form != nil || m.status != "Log in to write a review" {
		t.Fatalf("expected refusal, status %q", m.status)
	}
}

func TestModel_CreateReviewPushesFeed(t *testing.T) {
	srv := apitest.New(t)
	token := srv.AddUser("alice", "a@example.com", "secret1")
	m := newTestModel(t, srv, token)

	m = press(t, m, "n")
	m = typeText(t, m, "Dune")
	m = press(t, m, "tab")
	m = typeText(t, m, "ftp://nope")
	m = press(t, m, "enter")
	if m.form == nil || !strings.Contains(screen(m), "url must start with http:// or https://") {
		t.Fatalf("expected url validation error, got:\n%s", screen(m))
	}

	m = press(t, m, "ctrl+u")
	m = typeText(t, m, "https://example.com/dune")
	m = press(t, m, "enter")

	books := srv.Books()
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Fatalf("unexpected books on server: %+v", books)
	}
	if m.history.Current().Name != mutation.RouteFeed || m.history.Len() != 3 {
		t.Fatalf("expected create to push the feed, stack len %d", m.history.Len())
	}
	if !strings.Contains(screen(m), "Dune") {
		t.Fatalf("expected new review in the feed, got:\n%s", screen(m))
	}
}

func TestModel_DetailRecordsViewAndHidesForeignActions(t *testing.T) {
	srv := apitest.New(t)
	token := srv.AddUser("alice", "a@example.com", "secret1")
	srv.AddBooks(2, "")
	m := newTestModel(t, srv, token)

	m = press(t, m, "enter")
	if m.detail == nil || m.detail.Title != "Book 1" {
		t.Fatalf("expected detail of Book 1, got %+v", m.detail)
	}
	if logs := srv.ViewLogs(); len(logs) != 1 {
		t.Fatalf("expected one view log, got %v", logs)
	}
	if strings.Contains(screen(m), "d delete") {
		t.Fatal("foreign review must not offer delete")
	}

	m = press(t, m, "d", "e")
	if m.confirm || m.form != nil {
		t.Fatal("foreign review must not be editable or deletable")
	}

	m = press(t, m, "esc")
	if m.history.Current().Name != mutation.RouteFeed {
		t.Fatalf("expected back to feed, got %+v", m.history.Current())
	}
	if logs := srv.ViewLogs(); len(logs) != 1 {
		t.Fatalf("returning to the feed must not log a view, got %v", logs)
	}
}

func TestModel_DeleteDeclinedThenConfirmed(t *testing.T) {
	srv := apitest.New(t)
	token := srv.AddUser("alice", "a@example.com", "secret1")
	srv.AddBooks(2, "a@example.com")
	m := newTestModel(t, srv, token)

	m = press(t, m, "enter", "d")
	if m.detail == nil {
		t.Fatal("expected detail loaded")
	}
	deletePath := "/api/books/" + string(m.detail.ID)
	if !m.confirm || !strings.Contains(screen(m), mutation.DeletePrompt) {
		t.Fatalf("expected delete prompt, got:\n%s", screen(m))
	}
	m = press(t, m, "n")
	if m.confirm || m.status != "Delete cancelled" {
		t.Fatalf("expected cancelled delete, status %q", m.status)
	}
	if srv.Count(http.MethodDelete, deletePath) != 0 {
		t.Fatal("declined delete must not send a request")
	}

	m = press(t, m, "d", "y")
	if srv.Count(http.MethodDelete, deletePath) != 1 {
		t.Fatalf("expected exactly one delete, got %+v", srv.Requests())
	}
	if m.history.Current().Name != mutation.RouteFeed || m.history.Len() != 1 {
		t.Fatalf("expected delete to replace the detail view, stack len %d", m.history.Len())
	}
	if len(m.feed.Books) != 1 {
		t.Fatalf("expected reloaded feed without the deleted review, got %d", len(m.feed.Books))
	}
}

func TestModel_EditReplacesEditView(t *testing.T) {
	srv := apitest.New(t)
	token := srv.AddUser("alice", "a@example.com", "secret1")
	srv.AddBooks(1, "a@example.com")
	m := newTestModel(t, srv, token)

	m = press(t, m, "enter", "e")
	if m.form == nil || m.form.kind != formEdit || m.form.value("title") != "Book 1" {
		t.Fatal("expected edit form seeded from the server")
	}
	m = press(t, m, "ctrl+u")
	m = typeText(t, m, "Renamed")
	m = press(t, m, "enter")

	if got := srv.Books()[0].Title; got != "Renamed" {
		t.Fatalf("expected server title updated, got %q", got)
	}
	if m.history.Current().Name != mutation.RouteFeed || m.history.Len() != 3 {
		t.Fatalf("expected the edit view replaced by the feed, stack len %d", m.history.Len())
	}
	m = press(t, m, "esc")
	if m.history.Current().Name != mutation.RouteDetail {
		t.Fatalf("expected back to land on the detail view, got %+v", m.history.Current())
	}
}

func TestModel_ProfileAvatarPreviewIsReleasedOnLeave(t *testing.T) {
	srv := apitest.New(t)
	token := srv.AddUser("alice", "a@example.com", "secret1")
	m := newTestModel(t, srv, token)

	avatarPath := filepath.Join(t.TempDir(), "me.png")
	writePNG(t, avatarPath)

	m = press(t, m, "P")
	if m.form == nil || m.form.value("name") != "alice" {
		t.Fatal("expected profile form seeded with the current name")
	}
	m = press(t, m, "tab")
	m = typeText(t, m, avatarPath)
	m = press(t, m, "ctrl+o")

	previewPath := m.previewKey
	if previewPath == "" || m.form.avatar == nil {
		t.Fatalf("expected avatar selected, form error %q", m.form.err)
	}
	if _, err := os.Stat(previewPath); err != nil {
		t.Fatalf("expected preview file to exist: %v", err)
	}
	if !strings.Contains(screen(m), "[avatar preview]") {
		t.Fatalf("expected preview on screen, got:\n%s", screen(m))
	}

	m = press(t, m, "esc")
	if _, err := os.Stat(previewPath); !os.IsNotExist(err) {
		t.Fatalf("expected preview file released on leave, stat err %v", err)
	}
	if m.form != nil {
		t.Fatal("expected form closed")
	}
}

func TestModel_ProfileSaveUploadsAvatar(t *testing.T) {
	srv := apitest.New(t)
	token := srv.AddUser("alice", "a@example.com", "secret1")
	m := newTestModel(t, srv, token)

	avatarPath := filepath.Join(t.TempDir(), "me.png")
	writePNG(t, avatarPath)

	m = press(t, m, "P", "ctrl+u")
	m = typeText(t, m, "Alice B")
	m = press(t, m, "tab")
	m = typeText(t, m, avatarPath)
	m = press(t, m, "ctrl+o", "enter")

	user, ok := srv.User("a@example.com")
	if !ok || user.Name != "Alice B" || user.IconURL == "" {
		t.Fatalf("expected saved profile with icon, got %+v", user)
	}
	if m.form != nil || m.status != "Profile saved" {
		t.Fatalf("expected profile saved and form closed, status %q", m.status)
	}
}

func TestModel_OpenURLFromDetail(t *testing.T) {
	srv := apitest.New(t)
	token := srv.AddUser("alice", "a@example.com", "secret1")
	m := newTestModel(t, srv, token)

	m = press(t, m, "n")
	m = typeText(t, m, "Linked")
	m = press(t, m, "tab")
	m = typeText(t, m, "https://example.com/linked")
	m = press(t, m, "enter", "enter", "o")
	if m.status != "Opened URL in browser" {
		t.Fatalf("expected URL opened, status %q err %v", m.status, m.err)
	}
}

func TestModel_LogoutReturnsToPublicFeed(t *testing.T) {
	srv := apitest.New(t)
	token := srv.AddUser("alice", "a@example.com", "secret1")
	srv.AddBooks(1, "a@example.com")
	m := newTestModel(t, srv, token)

	m = press(t, m, "L")
	out := screen(m)
	if !strings.Contains(out, "user guest") || strings.Contains(out, "[mine]") {
		t.Fatalf("expected signed out feed, got:\n%s", out)
	}
	if srv.Count(http.MethodGet, "/api/public/books") != 1 {
		t.Fatalf("expected public list after logout, got %+v", srv.Requests())
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write png: %v", err)
	}
}
