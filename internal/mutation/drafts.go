package mutation

import (
	"strings"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/upload"
)

// ReviewDraft is the editable form state of a review.
type ReviewDraft struct {
	Title  string `json:"title" validate:"required"`
	URL    string `json:"url" validate:"omitempty,httpurl"`
	Detail string `json:"detail"`
	Review string `json:"review"`
}

func DraftFromBook(b bookreview.Book) ReviewDraft {
	return ReviewDraft{Title: b.Title, URL: b.URL, Detail: b.Detail, Review: b.Review}
}

func (d ReviewDraft) trimmed() ReviewDraft {
	return ReviewDraft{
		Title:  strings.TrimSpace(d.Title),
		URL:    strings.TrimSpace(d.URL),
		Detail: strings.TrimSpace(d.Detail),
		Review: strings.TrimSpace(d.Review),
	}
}

func (d ReviewDraft) input() bookreview.BookInput {
	return bookreview.BookInput{Title: d.Title, URL: d.URL, Detail: d.Detail, Review: d.Review}
}

// ProfileDraft is the profile form: a new name and an optional new avatar.
type ProfileDraft struct {
	Name   string       `json:"name" validate:"required"`
	Avatar *upload.File `json:"-" validate:"-"`
}
