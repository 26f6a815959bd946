package tui

import (
	"strings"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/mutation"
	"github.com/glabrego/bookreview-cli/internal/render/review"
	"github.com/glabrego/bookreview-cli/internal/tui/state"
	"github.com/glabrego/bookreview-cli/internal/tui/view"
)

const detailMargin = 2

func (m Model) View() string {
	var b strings.Builder
	route := m.history.Current()
	b.WriteString(m.theme.Title.Render("Book Reviews"))
	b.WriteString(" ")
	b.WriteString(m.theme.ModePill.Render(string(route.Name)))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("Help (? to close)\n\n")
		b.WriteString(strings.Join(view.HelpLines(), "\n"))
		b.WriteString("\n\n")
		b.WriteString(m.chrome())
		return b.String()
	}

	b.WriteString(view.Toolbar(m.screen(), m.authenticated(), m.detail != nil && m.owns(*m.detail)))
	b.WriteString("\n\n")

	switch {
	case m.form != nil:
		b.WriteString(m.formView())
	case route.Name == mutation.RouteDetail:
		b.WriteString(m.detailView())
	default:
		b.WriteString(m.feedView())
	}
	b.WriteString("\n")
	b.WriteString(m.chrome())
	return b.String()
}

func (m Model) chrome() string {
	warning := ""
	if m.err != nil {
		warning = m.err.Error()
	}
	user := ""
	if m.service != nil {
		if u := m.service.CurrentUser(); u != nil {
			user = u.Name
		}
	}
	page := view.PageLabel(m.feed.Params.Page(), m.feed.Params.Offset, len(m.feed.Books), m.feed.HasMore)
	return view.Message(m.loading, m.status, warning, m.theme) + "\n" +
		view.Footer(m.screen(), user, page, len(m.feed.Books), m.theme) + "\n"
}

func (m Model) screen() view.Screen {
	switch {
	case m.form != nil:
		return view.ScreenForm
	case m.confirm:
		return view.ScreenDelete
	case m.history.Current().Name == mutation.RouteDetail:
		return view.ScreenDetail
	}
	return view.ScreenFeed
}

func (m Model) authenticated() bool {
	return m.service != nil && m.service.Authenticated()
}

func (m Model) feedView() string {
	books := m.feed.Books
	if len(books) == 0 {
		switch {
		case m.loading || !m.bootDone:
			return "Loading reviews...\n"
		case m.feed.Message != "":
			return m.feed.Message + "\n"
		}
		return "No reviews yet.\n"
	}

	start, end := state.CenteredWindow(len(books), m.cursor, m.listHeight())
	user := m.currentUserOrNil()
	return view.RenderListBody(view.ListRenderInput{
		Books:  books,
		Start:  start,
		End:    end,
		Cursor: m.cursor,
		RenderLine: func(i int, active bool) string {
			return view.RenderReviewLine(view.ReviewLineParams{
				Book:        books[i],
				Mine:        books[i].OwnedBy(user),
				ShowNumbers: true,
				Position:    m.feed.Params.Offset + i,
				Active:      active,
				Width:       m.contentWidth(),
			}, m.theme)
		},
	})
}

func (m Model) detailView() string {
	if m.detail == nil {
		if m.detailErr != nil {
			return "Could not load review: " + m.detailErr.Error() + "\n"
		}
		return "Loading review...\n"
	}
	lines := m.detailLines()
	out := view.RenderDetailLines(lines, m.detailTop, m.detailBodyHeight())
	if m.confirm {
		out += "\n" + m.theme.Prompt.Render(mutation.DeletePrompt+" (y/n)") + "\n"
	}
	return out
}

func (m Model) detailLines() []string {
	if m.detail == nil {
		return nil
	}
	return view.DetailLines(*m.detail, m.owns(*m.detail), m.contentWidth()-2*detailMargin, detailMargin, review.DefaultOptions, review.Wrap)
}

func (m Model) formView() string {
	f := m.form
	lines := view.FormLines(f.title(), f.viewFields(), f.focus, f.err, m.contentWidth(), m.theme)
	if f.submitting {
		lines = append(lines, "", "Submitting...")
	}
	if previewLines := view.PreviewLines(m.preview, m.contentWidth()); len(previewLines) > 0 {
		lines = append(lines, "")
		lines = append(lines, previewLines...)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) currentUserOrNil() *bookreview.User {
	if m.service == nil {
		return nil
	}
	return m.service.CurrentUser()
}

func (m Model) contentWidth() int {
	if m.width > 0 {
		return m.width - 1
	}
	return 100
}

func (m Model) listHeight() int {
	if m.height <= 0 {
		return 0
	}
	return max(3, m.height-7)
}

func (m Model) detailBodyHeight() int {
	if m.height > 0 {
		usedByChrome := 7
		if m.confirm {
			usedByChrome += 2
		}
		if h := m.height - usedByChrome; h > 3 {
			return h
		}
	}
	return 16
}
