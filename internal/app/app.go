package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/glabrego/bookreview-cli/internal/auth"
	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/feed"
	"github.com/glabrego/bookreview-cli/internal/mutation"
	"github.com/glabrego/bookreview-cli/internal/preview"
	"github.com/glabrego/bookreview-cli/internal/upload"
)

type Options struct {
	PageLimit  int
	PreviewDir string
	Logger     *slog.Logger
}

// Service wires the client-side components together for the TUI.
type Service struct {
	client     *bookreview.Client
	tokens     *auth.TokenStore
	session    *auth.Session
	avatars    *upload.Pipeline
	views      *bookreview.ViewLogger
	pages      *feed.Pagination
	feed       *feed.Controller
	previewDir string
	logger     *slog.Logger
}

func NewService(client *bookreview.Client, store auth.TokenPersister, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tokens := auth.NewTokenStore(store, client, logger.With("component", "token"))
	avatars := upload.NewPipeline(client, upload.ImageCompressor{}, logger.With("component", "upload"))
	session := auth.NewSession(client, tokens, avatars, logger.With("component", "session"))
	pages := feed.NewPagination(opts.PageLimit)

	s := &Service{
		client:     client,
		tokens:     tokens,
		session:    session,
		avatars:    avatars,
		views:      bookreview.NewViewLogger(client, logger.With("component", "viewlog")),
		pages:      pages,
		feed:       feed.NewController(client, session.User, logger.With("component", "feed")),
		previewDir: opts.PreviewDir,
		logger:     logger,
	}

	// A different identity sees a different feed; start it from the top.
	session.Subscribe(func(*bookreview.User) { pages.Reset() })
	return s
}

// Bootstrap rehydrates the stored token and, when present, the user behind it.
func (s *Service) Bootstrap(ctx context.Context) (*bookreview.User, error) {
	user, err := s.session.Bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return user, nil
}

func (s *Service) SignIn(ctx context.Context, creds auth.Credentials) (*bookreview.User, error) {
	return s.session.SignIn(ctx, creds)
}

func (s *Service) SignUp(ctx context.Context, form auth.SignUpForm) (*bookreview.User, error) {
	return s.session.SignUp(ctx, form)
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.session.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) CurrentUser() *bookreview.User { return s.session.User() }

func (s *Service) Authenticated() bool { return s.session.Authenticated() }

func (s *Service) Pagination() *feed.Pagination { return s.pages }

// BeginPage supersedes any in-flight page load for the current pagination.
func (s *Service) BeginPage() feed.Request {
	return s.feed.Begin(s.pages.Params(), s.session.Authenticated())
}

func (s *Service) FetchPage(ctx context.Context, req feed.Request) feed.Result {
	return s.feed.Fetch(ctx, req)
}

func (s *Service) CommitPage(res feed.Result) bool {
	return s.feed.Commit(res)
}

func (s *Service) FeedState() feed.State {
	return s.feed.State()
}

// LoadPage loads the current page synchronously.
func (s *Service) LoadPage(ctx context.Context) feed.State {
	return s.feed.Load(ctx, s.pages.Params(), s.session.Authenticated())
}

// Mutations returns a mutation controller that reports navigation to nav
// and asks confirm before destructive actions.
func (s *Service) Mutations(nav mutation.Navigator, confirm mutation.Confirmer) *mutation.Controller {
	return mutation.NewController(mutation.Deps{
		API:       s.client,
		Navigator: nav,
		Confirmer: confirm,
		Tokens:    s.tokens,
		Users:     s.session,
		Avatars:   s.avatars,
		Views:     s.views,
		Logger:    s.logger.With("component", "mutation"),
	})
}

// NewPreviewSlot returns a slot backed by temp files in the preview directory.
func (s *Service) NewPreviewSlot() *preview.Slot {
	return preview.NewSlot(preview.TempFileAllocator{Dir: s.previewDir}, s.logger.With("component", "preview"))
}

// OpenAvatar reads a local image for upload.
func (s *Service) OpenAvatar(path string) (upload.File, error) {
	f, err := upload.Open(path)
	if err != nil {
		return upload.File{}, fmt.Errorf("open avatar: %w", err)
	}
	return f, nil
}
