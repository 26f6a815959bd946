package mutation

import (
	"errors"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/upload"
	"github.com/glabrego/bookreview-cli/internal/validation"
)

var (
	// ErrCancelled means the user declined a confirmation prompt.
	ErrCancelled = errors.New("cancelled by user")
	// ErrNotLoaded rejects an edit submitted before its review was fetched.
	ErrNotLoaded = errors.New("review has not finished loading")
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindServer     Kind = "server"
	KindTransport  Kind = "transport"
	KindResource   Kind = "resource"
)

// Failure is what a form shows inline after a mutation did not go through.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// classify maps any error from the mutation path onto a Failure.
func classify(err error, fallback string) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	var vErr *validation.Error
	if errors.As(err, &vErr) {
		return &Failure{Kind: KindValidation, Message: vErr.Error(), Err: err}
	}

	var upErr *upload.Error
	if errors.As(err, &upErr) {
		kind := KindResource
		switch upErr.Kind {
		case upload.KindValidation:
			kind = KindValidation
		case upload.KindTransport:
			kind = KindServer
			if bookreview.IsNetwork(err) {
				kind = KindTransport
			}
		}
		return &Failure{Kind: kind, Message: upErr.Message, Err: err}
	}

	if bookreview.IsNetwork(err) {
		return &Failure{Kind: KindTransport, Message: bookreview.ConnectivityMessage, Err: err}
	}
	if errors.Is(err, ErrNotLoaded) {
		return &Failure{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	return &Failure{Kind: KindServer, Message: bookreview.Describe(err, fallback), Err: err}
}
