package state

import (
	"slices"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/mutation"
)

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

func PageStep(height int, hasStatus bool) int {
	if height <= 0 {
		return 10
	}
	headerLines := 6
	if hasStatus {
		headerLines += 2
	}
	step := height - headerLines
	if step < 3 {
		step = 3
	}
	return step
}

func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}

func BookIndexByID(books []bookreview.Book, id bookreview.ID) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// History is the screen stack. It is a value; every mutator returns a copy
// sharing nothing with the receiver.
type History struct {
	stack []mutation.Route
}

func NewHistory(root mutation.Route) History {
	return History{stack: []mutation.Route{root}}
}

func (h History) Current() mutation.Route {
	if len(h.stack) == 0 {
		return mutation.Route{Name: mutation.RouteFeed}
	}
	return h.stack[len(h.stack)-1]
}

func (h History) Len() int { return len(h.stack) }

func (h History) Push(r mutation.Route) History {
	next := slices.Clone(h.stack)
	return History{stack: append(next, r)}
}

// Replace overwrites the current entry so Back skips it.
func (h History) Replace(r mutation.Route) History {
	if len(h.stack) == 0 {
		return NewHistory(r)
	}
	next := slices.Clone(h.stack)
	next[len(next)-1] = r
	return History{stack: next}
}

// Navigate applies a navigation intent. An entry equal to the one beneath
// it is dropped so Back never lands on the same screen twice.
func (h History) Navigate(r mutation.Route, replace bool) History {
	next := h.Push(r)
	if replace {
		next = h.Replace(r)
	}
	if n := len(next.stack); n > 1 && next.stack[n-1] == next.stack[n-2] {
		next.stack = next.stack[:n-1]
	}
	return next
}

// Back pops one entry. The root is never popped.
func (h History) Back() (History, bool) {
	if len(h.stack) <= 1 {
		return h, false
	}
	return History{stack: slices.Clone(h.stack[:len(h.stack)-1])}, true
}
