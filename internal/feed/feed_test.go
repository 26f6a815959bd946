package feed_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/feed"
)

type backingSource struct {
	books        []bookreview.Book
	publicCalls  []int
	privateCalls []int
	err          error
}

func newBackingSource(n int) *backingSource {
	s := &backingSource{}
	for i := 0; i < n; i++ {
		s.books = append(s.books, bookreview.Book{
			ID:       bookreview.ID(fmt.Sprint(i + 1)),
			Title:    fmt.Sprintf("Book %d", i+1),
			Reviewer: "alice",
		})
	}
	return s
}

func (s *backingSource) page(offset int) []bookreview.Book {
	if offset >= len(s.books) {
		return []bookreview.Book{}
	}
	end := min(offset+feed.DefaultLimit, len(s.books))
	return append([]bookreview.Book(nil), s.books[offset:end]...)
}

func (s *backingSource) ListPublicBooks(_ context.Context, offset int) ([]bookreview.Book, error) {
	s.publicCalls = append(s.publicCalls, offset)
	if s.err != nil {
		return nil, s.err
	}
	return s.page(offset), nil
}

func (s *backingSource) ListBooks(_ context.Context, offset int) ([]bookreview.Book, error) {
	s.privateCalls = append(s.privateCalls, offset)
	if s.err != nil {
		return nil, s.err
	}
	return s.page(offset), nil
}

func TestController_PagesThroughBackingSet(t *testing.T) {
	src := newBackingSource(25)
	c := feed.NewController(src, nil, nil)

	first := c.Load(context.Background(), feed.Params{Offset: 0, Limit: 10}, false)
	assert.Equal(t, feed.StatusLoaded, first.Status)
	assert.Len(t, first.Books, 10)
	assert.True(t, first.HasMore)

	last := c.Load(context.Background(), feed.Params{Offset: 20, Limit: 10}, false)
	assert.Len(t, last.Books, 5)
	assert.False(t, last.HasMore)
	assert.Equal(t, bookreview.ID("21"), last.Books[0].ID)

	assert.Equal(t, []int{0, 20}, src.publicCalls)
	assert.Empty(t, src.privateCalls)
}

func TestController_ExactMultipleReportsMore(t *testing.T) {
	c := feed.NewController(newBackingSource(20), nil, nil)

	st := c.Load(context.Background(), feed.Params{Offset: 10, Limit: 10}, false)

	assert.Len(t, st.Books, 10)
	assert.True(t, st.HasMore, "a full last page still reports more")
}

func TestController_StaleResultIsDiscarded(t *testing.T) {
	src := newBackingSource(25)
	c := feed.NewController(src, nil, nil)
	ctx := context.Background()

	slow := c.Begin(feed.Params{Offset: 0, Limit: 10}, false)
	fast := c.Begin(feed.Params{Offset: 10, Limit: 10}, false)

	assert.True(t, c.Commit(c.Fetch(ctx, fast)))
	assert.False(t, c.Commit(c.Fetch(ctx, slow)), "older response must not commit")

	st := c.State()
	assert.Equal(t, 10, st.Params.Offset)
	require.Len(t, st.Books, 10)
	assert.Equal(t, bookreview.ID("11"), st.Books[0].ID)
}

func TestController_StaleErrorIsDiscarded(t *testing.T) {
	c := feed.NewController(newBackingSource(5), nil, nil)

	old := c.Begin(feed.Params{Limit: 10}, false)
	current := c.Begin(feed.Params{Limit: 10}, false)

	assert.False(t, c.Commit(feed.Result{Request: old, Err: errors.New("timeout")}))
	assert.Equal(t, feed.StatusLoading, c.State().Status)
	assert.True(t, c.Commit(c.Fetch(context.Background(), current)))
	assert.Equal(t, feed.StatusLoaded, c.State().Status)
}

func TestController_ErrorState(t *testing.T) {
	src := newBackingSource(5)
	src.err = &bookreview.NetworkError{Op: "GET /public/books", Err: errors.New("refused")}
	c := feed.NewController(src, nil, nil)

	st := c.Load(context.Background(), feed.Params{Limit: 10}, false)

	assert.Equal(t, feed.StatusError, st.Status)
	assert.Equal(t, feed.LoadErrorMessage, st.Message)
	assert.Empty(t, st.Books)
	assert.False(t, st.HasMore)

	src.err = nil
	st = c.Load(context.Background(), feed.Params{Limit: 10}, false)
	assert.Equal(t, feed.StatusLoaded, st.Status)
	assert.Empty(t, st.Message)
}

func TestController_AuthenticatedDerivesOwnership(t *testing.T) {
	src := newBackingSource(3)
	no := false
	src.books[1].IsMine = &no
	src.books[2].Reviewer = "bob"
	alice := &bookreview.User{Name: "alice"}
	c := feed.NewController(src, func() *bookreview.User { return alice }, nil)

	st := c.Load(context.Background(), feed.Params{Limit: 10}, true)

	require.Len(t, st.Books, 3)
	assert.Equal(t, []int{0}, src.privateCalls)
	require.NotNil(t, st.Books[0].IsMine)
	assert.True(t, *st.Books[0].IsMine)
	assert.False(t, *st.Books[1].IsMine, "server value wins")
	assert.False(t, *st.Books[2].IsMine)
}

func TestController_TruncatesOversizedPage(t *testing.T) {
	src := newBackingSource(25)
	c := feed.NewController(src, nil, nil)
	req := c.Begin(feed.Params{Limit: 5}, false)

	require.True(t, c.Commit(feed.Result{Request: req, Books: src.books[:8]}))

	st := c.State()
	assert.Len(t, st.Books, 5)
	assert.False(t, st.HasMore)
}

func TestPagination_Intents(t *testing.T) {
	p := feed.NewPagination(0)
	var seen []int
	unsubscribe := p.Subscribe(func(params feed.Params) { seen = append(seen, params.Offset) })
	defer unsubscribe()

	assert.Equal(t, feed.Params{Offset: 0, Limit: 10}, p.Params())
	p.Prev()
	assert.Equal(t, 0, p.Params().Offset, "prev clamps at zero")

	p.Next()
	p.Next()
	assert.Equal(t, 20, p.Params().Offset)
	assert.Equal(t, 3, p.Params().Page())

	p.SetOffset(37)
	assert.Equal(t, 30, p.Params().Offset, "offset snaps to a page boundary")
	p.SetOffset(-4)
	assert.Equal(t, 0, p.Params().Offset)

	p.Next()
	p.Reset()
	assert.Equal(t, []int{10, 20, 30, 0, 10, 0}, seen)
}
