package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glabrego/bookreview-cli/internal/apitest"
	"github.com/glabrego/bookreview-cli/internal/auth"
	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/feed"
	"github.com/glabrego/bookreview-cli/internal/mutation"
	"github.com/glabrego/bookreview-cli/internal/storage"
)

func openRepository(t *testing.T, path string) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(path)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	return repo
}

func TestIntegration_SessionSurvivesRestart(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("alice", "a@example.com", "secret1")
	srv.AddBooks(3, "a@example.com")
	dbPath := filepath.Join(t.TempDir(), "bookreview.db")
	ctx := context.Background()

	first := NewService(bookreview.NewClient(srv.BaseURL(), srv.Client()), openRepository(t, dbPath), Options{})
	if _, err := first.SignIn(ctx, auth.Credentials{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}

	second := NewService(bookreview.NewClient(srv.BaseURL(), srv.Client()), openRepository(t, dbPath), Options{})
	user, err := second.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if user == nil || user.Name != "alice" {
		t.Fatalf("expected restored user, got %+v", user)
	}

	state := second.LoadPage(ctx)
	if len(state.Books) != 3 {
		t.Fatalf("expected 3 books, got %d", len(state.Books))
	}
	for _, b := range state.Books {
		if !b.OwnedBy(second.CurrentUser()) {
			t.Fatalf("expected %s to be owned after restart", b.ID)
		}
	}

	if err := second.Logout(ctx); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	third := NewService(bookreview.NewClient(srv.BaseURL(), srv.Client()), openRepository(t, dbPath), Options{})
	if user, err := third.Bootstrap(ctx); err != nil || user != nil {
		t.Fatalf("expected signed out start after logout, got %+v, %v", user, err)
	}
}

func TestIntegration_LiveServerRoundTrip(t *testing.T) {
	if os.Getenv("BOOKREVIEW_INTEGRATION") != "1" {
		t.Skip("set BOOKREVIEW_INTEGRATION=1 to run integration tests")
	}

	email := os.Getenv("BOOKREVIEW_EMAIL")
	password := os.Getenv("BOOKREVIEW_PASSWORD")
	baseURL := os.Getenv("BOOKREVIEW_API_BASE_URL")
	if email == "" || password == "" || baseURL == "" {
		t.Skip("BOOKREVIEW_EMAIL, BOOKREVIEW_PASSWORD and BOOKREVIEW_API_BASE_URL are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	repo := openRepository(t, filepath.Join(t.TempDir(), "bookreview-integration.db"))
	svc := NewService(bookreview.NewClient(baseURL, nil), repo, Options{})

	public := svc.LoadPage(ctx)
	if public.Status != feed.StatusLoaded {
		t.Fatalf("public feed failed: %v", public.Err)
	}

	if _, err := svc.SignIn(ctx, auth.Credentials{Email: email, Password: password}); err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}

	nav := &routeLog{}
	title := "integration " + time.Now().UTC().Format(time.RFC3339)
	if err := svc.Mutations(nav, answer(true)).Create(ctx, mutation.ReviewDraft{Title: title, Review: "ok"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	private := svc.LoadPage(ctx)
	if private.Status != feed.StatusLoaded {
		t.Fatalf("private feed failed: %v", private.Err)
	}
	var created *bookreview.Book
	for i := range private.Books {
		if private.Books[i].Title == title {
			created = &private.Books[i]
		}
	}
	if created == nil {
		t.Skip("created review is not on the first page; skipping cleanup")
	}
	if !created.OwnedBy(svc.CurrentUser()) {
		t.Fatalf("expected created review to be owned: %+v", created)
	}
	if err := svc.Mutations(nav, answer(true)).Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}
