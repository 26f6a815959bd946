package upload

import (
	"errors"
)

// Kind groups upload failures the way the forms report them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindResource   Kind = "resource"
	KindTransport  Kind = "transport"
)

var (
	ErrUnsupportedType    = errors.New("unsupported image type")
	ErrTooLarge           = errors.New("file exceeds the pre-compression limit")
	ErrCompressedTooLarge = errors.New("compressed file exceeds the size limit")
	ErrOriginalTooLarge   = errors.New("original file exceeds the size limit")
)

// Error is an upload failure carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
