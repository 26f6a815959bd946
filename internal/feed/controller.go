// Package feed loads pages of reviews and keeps only the latest response.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
)

// LoadErrorMessage is shown in place of the list when a page fails to load.
const LoadErrorMessage = "failed to load reviews"

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type Source interface {
	ListPublicBooks(ctx context.Context, offset int) ([]bookreview.Book, error)
	ListBooks(ctx context.Context, offset int) ([]bookreview.Book, error)
}

// Request is one in-flight page load, stamped with the generation it belongs to.
type Request struct {
	Generation    uint64
	Params        Params
	Authenticated bool
}

type Result struct {
	Request
	Books []bookreview.Book
	Err   error
}

// State is a snapshot of the controller.
type State struct {
	Status  Status
	Params  Params
	Books   []bookreview.Book
	HasMore bool
	Message string
	Err     error
}

// Controller drives the Idle → Loading → Loaded|Error state machine. A
// result commits only if no newer request has begun since it started.
type Controller struct {
	source      Source
	currentUser func() *bookreview.User
	logger      *slog.Logger

	mu         sync.Mutex
	generation uint64
	state      State
}

func NewController(source Source, currentUser func() *bookreview.User, logger *slog.Logger) *Controller {
	if currentUser == nil {
		currentUser = func() *bookreview.User { return nil }
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		source:      source,
		currentUser: currentUser,
		logger:      logger,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Books = append([]bookreview.Book(nil), c.state.Books...)
	return s
}

// Begin enters Loading and supersedes every earlier request.
func (c *Controller) Begin(params Params, authenticated bool) Request {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state.Status = StatusLoading
	c.state.Params = params
	c.state.Message = ""
	c.state.Err = nil
	return Request{Generation: c.generation, Params: params, Authenticated: authenticated}
}

// Fetch performs the request without touching controller state.
func (c *Controller) Fetch(ctx context.Context, req Request) Result {
	var (
		books []bookreview.Book
		err   error
	)
	if req.Authenticated {
		books, err = c.source.ListBooks(ctx, req.Params.Offset)
	} else {
		books, err = c.source.ListPublicBooks(ctx, req.Params.Offset)
	}
	if err != nil {
		return Result{Request: req, Err: err}
	}

	if req.Authenticated {
		user := c.currentUser()
		for i := range books {
			if books[i].IsMine == nil && user != nil {
				mine := books[i].OwnedBy(user)
				books[i].IsMine = &mine
			}
		}
	}
	return Result{Request: req, Books: books}
}

// Commit applies res if it belongs to the latest request and reports whether it did.
func (c *Controller) Commit(res Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Generation != c.generation {
		c.logger.Debug("discarding stale page",
			"generation", res.Generation,
			"current", c.generation,
			"offset", res.Params.Offset,
		)
		return false
	}

	if res.Err != nil {
		c.logger.Warn("failed to load page", "offset", res.Params.Offset, "error", res.Err)
		c.state.Status = StatusError
		c.state.Books = nil
		c.state.HasMore = false
		c.state.Message = LoadErrorMessage
		c.state.Err = res.Err
		return true
	}

	limit := res.Params.Limit
	books := res.Books
	if len(books) > limit {
		books = books[:limit]
	}
	c.state.Status = StatusLoaded
	c.state.Books = append([]bookreview.Book(nil), books...)
	c.state.HasMore = len(res.Books) == limit
	c.state.Message = ""
	c.state.Err = nil
	return true
}

// Load runs Begin, Fetch and Commit in sequence.
func (c *Controller) Load(ctx context.Context, params Params, authenticated bool) State {
	req := c.Begin(params, authenticated)
	c.Commit(c.Fetch(ctx, req))
	return c.State()
}
