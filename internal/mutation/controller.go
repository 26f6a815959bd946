// Package mutation performs the write operations on reviews and the
// profile, and decides where the user goes afterwards.
package mutation

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/upload"
	"github.com/glabrego/bookreview-cli/internal/validation"
)

// DeletePrompt is shown before a review is deleted.
const DeletePrompt = "Delete this review?"

type RouteName string

const (
	RouteFeed    RouteName = "feed"
	RouteDetail  RouteName = "detail"
	RouteEdit    RouteName = "edit"
	RouteNew     RouteName = "new"
	RouteProfile RouteName = "profile"
	RouteLogin   RouteName = "login"
	RouteSignup  RouteName = "signup"
)

type Route struct {
	Name RouteName
	ID   bookreview.ID
}

type Navigator interface {
	// Navigate moves to route. With replace, the current history entry is
	// overwritten instead of pushed.
	Navigate(route Route, replace bool)
}

type Confirmer interface {
	Confirm(prompt string) bool
}

type API interface {
	GetBook(ctx context.Context, id bookreview.ID) (bookreview.Book, error)
	CreateBook(ctx context.Context, in bookreview.BookInput) error
	UpdateBook(ctx context.Context, id bookreview.ID, in bookreview.BookInput) error
	DeleteBook(ctx context.Context, id bookreview.ID, opts ...bookreview.RequestOption) error
	UpdateUser(ctx context.Context, name string) error
	CurrentUser(ctx context.Context) (bookreview.User, error)
}

type TokenSource interface {
	Token() string
}

type UserPublisher interface {
	SetUser(user *bookreview.User)
}

type AvatarUploader interface {
	Run(ctx context.Context, file upload.File, policy upload.Policy) (string, error)
}

type ViewRecorder interface {
	Record(ctx context.Context, id bookreview.ID) bool
}

type Deps struct {
	API       API
	Navigator Navigator
	Confirmer Confirmer
	Tokens    TokenSource
	Users     UserPublisher
	Avatars   AvatarUploader
	Views     ViewRecorder
	Logger    *slog.Logger
}

type Controller struct {
	api       API
	nav       Navigator
	confirm   Confirmer
	tokens    TokenSource
	users     UserPublisher
	avatars   AvatarUploader
	views     ViewRecorder
	validator *validation.Validator
	logger    *slog.Logger
}

func NewController(d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		api:       d.API,
		nav:       d.Navigator,
		confirm:   d.Confirmer,
		tokens:    d.Tokens,
		users:     d.Users,
		avatars:   d.Avatars,
		views:     d.Views,
		validator: validation.New(),
		logger:    logger,
	}
}

// ValidateReview checks a trimmed draft without touching the network.
func (c *Controller) ValidateReview(d ReviewDraft) error {
	if err := c.validator.Validate(d.trimmed()); err != nil {
		return classify(err, "")
	}
	return nil
}

// Create posts a new review and returns to the feed.
func (c *Controller) Create(ctx context.Context, d ReviewDraft) error {
	d = d.trimmed()
	if err := c.ValidateReview(d); err != nil {
		return err
	}
	if err := c.api.CreateBook(ctx, d.input()); err != nil {
		c.logger.Warn("create review failed", "error", err)
		return classify(err, "failed to create the review")
	}
	c.logger.Info("review created", "title", d.Title)
	c.nav.Navigate(Route{Name: RouteFeed}, false)
	return nil
}

// Delete asks for confirmation, deletes the review, and replaces the
// current view with the feed.
func (c *Controller) Delete(ctx context.Context, id bookreview.ID) error {
	if !c.confirm.Confirm(DeletePrompt) {
		return ErrCancelled
	}

	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if err := c.api.DeleteBook(ctx, id, bookreview.WithBearer(token)); err != nil {
		c.logger.Warn("delete review failed", "book_id", id, "error", err)
		return classify(err, "failed to delete the review")
	}
	c.logger.Info("review deleted", "book_id", id)
	c.nav.Navigate(Route{Name: RouteFeed}, true)
	return nil
}

// UpdateProfile uploads a new avatar if one was chosen, then saves the
// name, then republishes the freshly fetched user.
func (c *Controller) UpdateProfile(ctx context.Context, d ProfileDraft) (*bookreview.User, error) {
	d.Name = strings.TrimSpace(d.Name)
	if err := c.validator.Validate(d); err != nil {
		return nil, classify(err, "")
	}

	if d.Avatar != nil {
		if c.avatars == nil {
			return nil, &Failure{Kind: KindResource, Message: "avatar upload is unavailable"}
		}
		if _, err := c.avatars.Run(ctx, *d.Avatar, upload.ProfilePolicy); err != nil {
			c.logger.Warn("avatar upload failed, profile not saved", "error", err)
			return nil, classify(err, "failed to upload the icon")
		}
	}

	if err := c.api.UpdateUser(ctx, d.Name); err != nil {
		c.logger.Warn("update profile failed", "error", err)
		return nil, classify(err, "failed to update the profile")
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("fetch user after profile update failed", "error", err)
		return nil, classify(err, "profile saved, but reloading it failed")
	}
	if c.users != nil {
		c.users.SetUser(&user)
	}
	c.nav.Navigate(Route{Name: RouteFeed}, false)
	return &user, nil
}

// Detail fetches one review. Opening it from the list also records a view.
func (c *Controller) Detail(ctx context.Context, id bookreview.ID, fromList bool) (bookreview.Book, error) {
	book, err := c.api.GetBook(ctx, id)
	if err != nil {
		return bookreview.Book{}, classify(err, "failed to load the review")
	}
	if fromList && c.views != nil {
		c.views.Record(ctx, id)
	}
	return book, nil
}
