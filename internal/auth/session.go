package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/upload"
	"github.com/glabrego/bookreview-cli/internal/validation"
)

// ErrNoToken is returned when the service accepted credentials but sent no token.
var ErrNoToken = errors.New("server response did not include a token")

type API interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	CreateUser(ctx context.Context, name, email, password string) (string, error)
	CurrentUser(ctx context.Context) (bookreview.User, error)
}

type AvatarUploader interface {
	Run(ctx context.Context, file upload.File, policy upload.Policy) (string, error)
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignUpForm struct {
	Name     string       `json:"name" validate:"required"`
	Email    string       `json:"email" validate:"required,email"`
	Password string       `json:"password" validate:"required,min=6"`
	Avatar   *upload.File `json:"-" validate:"-"`
}

// Session tracks who is signed in and tells subscribers when that changes.
type Session struct {
	api       API
	tokens    *TokenStore
	avatars   AvatarUploader
	validator *validation.Validator
	logger    *slog.Logger

	mu          sync.RWMutex
	user        *bookreview.User
	subscribers map[int]func(*bookreview.User)
	nextSubID   int
}

func NewSession(api API, tokens *TokenStore, avatars AvatarUploader, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		api:         api,
		tokens:      tokens,
		avatars:     avatars,
		validator:   validation.New(),
		logger:      logger,
		subscribers: make(map[int]func(*bookreview.User)),
	}
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *bookreview.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether requests currently carry a token.
func (s *Session) Authenticated() bool {
	return s.tokens.Token() != ""
}

// Token exposes the current token for callers that re-assert it explicitly.
func (s *Session) Token() string {
	return s.tokens.Token()
}

// SetUser replaces the whole user record and notifies subscribers.
func (s *Session) SetUser(user *bookreview.User) {
	var next *bookreview.User
	if user != nil {
		u := *user
		next = &u
	}

	s.mu.Lock()
	s.user = next
	subs := make([]func(*bookreview.User), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		if next == nil {
			fn(nil)
			continue
		}
		u := *next
		fn(&u)
	}
}

// Subscribe registers fn for user changes and returns a function that removes it.
func (s *Session) Subscribe(fn func(*bookreview.User)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Session) ValidateCredentials(c Credentials) error {
	return s.validator.Validate(c)
}

// SignIn validates, authenticates, stores the token, then loads the user.
// A failed user fetch is logged and leaves the user unset.
func (s *Session) SignIn(ctx context.Context, c Credentials) (*bookreview.User, error) {
	c.Email = strings.TrimSpace(c.Email)
	if err := s.ValidateCredentials(c); err != nil {
		return nil, err
	}

	token, err := s.api.SignIn(ctx, c.Email, c.Password)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoToken
	}
	if err := s.tokens.Set(ctx, token); err != nil {
		return nil, err
	}

	return s.refreshUser(ctx, "sign in"), nil
}

// SignUp creates the account. The avatar upload is best effort and never
// blocks account creation.
func (s *Session) SignUp(ctx context.Context, f SignUpForm) (*bookreview.User, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	if err := s.validator.Validate(f); err != nil {
		return nil, err
	}

	token, err := s.api.CreateUser(ctx, f.Name, f.Email, f.Password)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoToken
	}
	if err := s.tokens.Set(ctx, token); err != nil {
		return nil, err
	}

	if f.Avatar != nil && s.avatars != nil {
		iconURL, err := s.avatars.Run(ctx, *f.Avatar, upload.SignupPolicy)
		if err != nil {
			s.logger.Warn("signup avatar upload failed", "error", err)
		} else if iconURL != "" {
			s.logger.Info("signup avatar uploaded", "icon_url", iconURL)
		}
	}

	return s.refreshUser(ctx, "sign up"), nil
}

// Bootstrap restores a persisted session at startup. A token the server
// rejects is cleared; a network failure keeps it for the next attempt.
func (s *Session) Bootstrap(ctx context.Context) (*bookreview.User, error) {
	token, err := s.tokens.Rehydrate(ctx)
	if errors.Is(err, ErrTokenExpired) {
		s.SetUser(nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		if bookreview.IsNetwork(err) {
			s.logger.Warn("could not verify stored token", "error", err)
			return nil, fmt.Errorf("verify stored token: %w", err)
		}
		s.logger.Info("stored token rejected, signing out", "error", err)
		if clearErr := s.tokens.Set(ctx, ""); clearErr != nil {
			return nil, clearErr
		}
		s.SetUser(nil)
		return nil, fmt.Errorf("verify stored token: %w", err)
	}
	s.SetUser(&user)
	return s.User(), nil
}

func (s *Session) Logout(ctx context.Context) error {
	if err := s.tokens.Set(ctx, ""); err != nil {
		return err
	}
	s.SetUser(nil)
	return nil
}

// RefreshUser re-fetches the user in full and publishes it.
func (s *Session) RefreshUser(ctx context.Context) (*bookreview.User, error) {
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.SetUser(&user)
	return s.User(), nil
}

func (s *Session) refreshUser(ctx context.Context, after string) *bookreview.User {
	user, err := s.RefreshUser(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch user after "+after, "error", err)
		s.SetUser(nil)
		return nil
	}
	return user
}
