package state

import (
	"testing"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/mutation"
)

func TestClampCursor(t *testing.T) {
	if got := ClampCursor(-1, 3); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
	if got := ClampCursor(3, 3); got != 2 {
		t.Fatalf("expected clamp to 2, got %d", got)
	}
	if got := ClampCursor(1, 3); got != 1 {
		t.Fatalf("expected keep 1, got %d", got)
	}
	if got := ClampCursor(5, 0); got != 0 {
		t.Fatalf("expected 0 for empty list, got %d", got)
	}
}

func TestPageStep(t *testing.T) {
	if got := PageStep(0, false); got != 10 {
		t.Fatalf("expected default step 10, got %d", got)
	}
	if got := PageStep(12, false); got != 6 {
		t.Fatalf("expected step 6, got %d", got)
	}
	if got := PageStep(12, true); got != 4 {
		t.Fatalf("expected step 4 with status, got %d", got)
	}
}

func TestCenteredWindow(t *testing.T) {
	start, end := CenteredWindow(5, 3, 3)
	if start != 2 || end != 5 {
		t.Fatalf("unexpected window: start=%d end=%d", start, end)
	}
	start, end = CenteredWindow(4, 0, 10)
	if start != 0 || end != 4 {
		t.Fatalf("expected full window, got start=%d end=%d", start, end)
	}
}

func TestBookIndexByID(t *testing.T) {
	books := []bookreview.Book{{ID: "a"}, {ID: "b"}}
	if got := BookIndexByID(books, "b"); got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if got := BookIndexByID(books, "z"); got != -1 {
		t.Fatalf("expected -1 for missing id, got %d", got)
	}
}

func TestHistory_PushReplaceBack(t *testing.T) {
	feed := mutation.Route{Name: mutation.RouteFeed}
	detail := mutation.Route{Name: mutation.RouteDetail, ID: "b1"}
	edit := mutation.Route{Name: mutation.RouteEdit, ID: "b1"}

	h := NewHistory(feed).Push(detail).Push(edit)
	if h.Len() != 3 || h.Current() != edit {
		t.Fatalf("unexpected stack after pushes: len=%d current=%+v", h.Len(), h.Current())
	}

	saved := h.Navigate(feed, true)
	if saved.Current() != feed || saved.Len() != 3 {
		t.Fatalf("replace should overwrite the edit entry: len=%d current=%+v", saved.Len(), saved.Current())
	}
	back, ok := saved.Back()
	if !ok || back.Current() != detail {
		t.Fatalf("back after replace should skip the edit view, got %+v", back.Current())
	}

	if h.Current() != edit {
		t.Fatal("navigating must not mutate the receiver")
	}
}

func TestHistory_PushKeepsFormReachable(t *testing.T) {
	feed := mutation.Route{Name: mutation.RouteFeed}
	form := mutation.Route{Name: mutation.RouteNew}

	h := NewHistory(feed).Push(form).Navigate(feed, false)
	if h.Len() != 3 {
		t.Fatalf("expected push to keep the form entry, got len %d", h.Len())
	}
	back, _ := h.Back()
	if back.Current() != form {
		t.Fatalf("expected back to return to the form, got %+v", back.Current())
	}
}

func TestHistory_CollapsesDuplicatesAndKeepsRoot(t *testing.T) {
	feed := mutation.Route{Name: mutation.RouteFeed}
	detail := mutation.Route{Name: mutation.RouteDetail, ID: "b1"}

	h := NewHistory(feed).Push(detail).Navigate(feed, true)
	if h.Len() != 1 || h.Current() != feed {
		t.Fatalf("expected [feed, feed] to collapse, got len=%d", h.Len())
	}
	if _, ok := h.Back(); ok {
		t.Fatal("root must not be popped")
	}
}
