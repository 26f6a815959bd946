package mutation

import (
	"context"
	"sync"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
)

// EditSession edits one existing review. Submit is refused until Load has
// seeded the draft from the server.
type EditSession struct {
	c  *Controller
	id bookreview.ID

	mu     sync.Mutex
	loaded bool
	book   bookreview.Book
}

func (c *Controller) NewEditSession(id bookreview.ID) *EditSession {
	return &EditSession{c: c, id: id}
}

func (s *EditSession) ID() bookreview.ID { return s.id }

func (s *EditSession) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Book returns the review as it was loaded.
func (s *EditSession) Book() bookreview.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book
}

func (s *EditSession) Load(ctx context.Context) (ReviewDraft, error) {
	book, err := s.c.api.GetBook(ctx, s.id)
	if err != nil {
		return ReviewDraft{}, classify(err, "failed to load the review")
	}
	s.mu.Lock()
	s.book = book
	s.loaded = true
	s.mu.Unlock()
	return DraftFromBook(book), nil
}

// Submit saves d and replaces the edit view with the feed.
func (s *EditSession) Submit(ctx context.Context, d ReviewDraft) error {
	if !s.Loaded() {
		return classify(ErrNotLoaded, "")
	}
	d = d.trimmed()
	if err := s.c.ValidateReview(d); err != nil {
		return err
	}
	if err := s.c.api.UpdateBook(ctx, s.id, d.input()); err != nil {
		s.c.logger.Warn("update review failed", "book_id", s.id, "error", err)
		return classify(err, "failed to update the review")
	}
	s.c.logger.Info("review updated", "book_id", s.id)
	s.c.nav.Navigate(Route{Name: RouteFeed}, true)
	return nil
}
