package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned by Rehydrate when the stored token is a JWT
// whose exp claim has passed.
var ErrTokenExpired = errors.New("stored token has expired")

// TokenPersister is the durable home of the single auth token.
type TokenPersister interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error
}

// HeaderSetter receives the default bearer credential for outgoing requests.
type HeaderSetter interface {
	SetAuthToken(token string)
}

// TokenStore holds the process-wide auth token. Set is the only mutator.
type TokenStore struct {
	persist TokenPersister
	header  HeaderSetter
	logger  *slog.Logger
	nowFn   func() time.Time

	mu    sync.RWMutex
	token string
}

func NewTokenStore(persist TokenPersister, header HeaderSetter, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TokenStore{
		persist: persist,
		header:  header,
		logger:  logger,
		nowFn:   time.Now,
	}
}

// Token returns the current token, or "".
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set installs token as the request credential and persists it. An empty
// token removes both the header and the persisted value.
func (s *TokenStore) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.header.SetAuthToken(token)

	if token == "" {
		if err := s.persist.DeleteToken(ctx); err != nil {
			return fmt.Errorf("forget token: %w", err)
		}
		s.logger.Info("auth token cleared")
		return nil
	}
	if err := s.persist.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.logger.Info("auth token stored")
	return nil
}

// Rehydrate loads the persisted token and installs the request header. It
// must run before the first request. An expired JWT is cleared and reported
// as ErrTokenExpired.
func (s *TokenStore) Rehydrate(ctx context.Context) (string, error) {
	token, err := s.persist.LoadToken(ctx)
	if err != nil {
		return "", fmt.Errorf("load persisted token: %w", err)
	}
	if token == "" {
		s.logger.Debug("no persisted token")
		return "", nil
	}
	if expired(token, s.nowFn()) {
		s.logger.Info("persisted token expired, clearing")
		if err := s.Set(ctx, ""); err != nil {
			return "", err
		}
		return "", ErrTokenExpired
	}

	s.mu.Lock()
	s.token = token
	s.header.SetAuthToken(token)
	s.mu.Unlock()

	s.logger.Info("auth token rehydrated")
	return token, nil
}

// expired reports whether token is a JWT with an exp claim before now.
// Opaque tokens never expire on the client side.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
