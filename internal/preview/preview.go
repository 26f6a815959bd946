// Package preview manages the temporary local resources used to show a
// selected image before it is uploaded.
package preview

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/glabrego/bookreview-cli/internal/upload"
)

var ErrClosed = errors.New("preview slot is closed")

// Handle identifies one allocated preview resource.
type Handle struct {
	URL  string
	Path string
}

func (h Handle) IsZero() bool { return h.URL == "" && h.Path == "" }

type Allocator interface {
	Create(name string, data []byte) (Handle, error)
	Revoke(h Handle) error
}

// TempFileAllocator stores previews as files in Dir and hands out file:// URLs.
type TempFileAllocator struct {
	Dir string
}

func (a TempFileAllocator) Create(name string, data []byte) (Handle, error) {
	pattern := "preview-*" + filepath.Ext(name)
	f, err := os.CreateTemp(a.Dir, pattern)
	if err != nil {
		return Handle{}, fmt.Errorf("create preview file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return Handle{}, fmt.Errorf("write preview file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return Handle{}, fmt.Errorf("close preview file: %w", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(f.Name())}
	return Handle{URL: u.String(), Path: f.Name()}, nil
}

func (a TempFileAllocator) Revoke(h Handle) error {
	if h.Path == "" {
		return nil
	}
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove preview file: %w", err)
	}
	return nil
}

// Slot holds at most one live preview. Selecting a new file releases the
// previous one first; Close releases whatever is left.
type Slot struct {
	alloc  Allocator
	logger *slog.Logger

	mu      sync.Mutex
	current Handle
	closed  bool
}

func NewSlot(alloc Allocator, logger *slog.Logger) *Slot {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Slot{alloc: alloc, logger: logger}
}

// Select swaps the preview for file. A nil file only clears the slot.
func (s *Slot) Select(file *upload.File) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Handle{}, ErrClosed
	}
	s.releaseLocked()
	if file == nil {
		return Handle{}, nil
	}

	h, err := s.alloc.Create(file.Name, file.Data)
	if err != nil {
		return Handle{}, err
	}
	s.current = h
	return h, nil
}

// Current returns the live handle, if any.
func (s *Slot) Current() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close releases the live preview. Further calls are no-ops.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.releaseLocked()
}

// Guard runs fn and closes the slot on every exit path.
func (s *Slot) Guard(fn func() error) error {
	defer s.Close()
	return fn()
}

func (s *Slot) releaseLocked() {
	if s.current.IsZero() {
		return
	}
	h := s.current
	s.current = Handle{}
	if err := s.alloc.Revoke(h); err != nil {
		s.logger.Warn("failed to release preview", "url", h.URL, "error", err)
	}
}
