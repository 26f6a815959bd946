package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/bookreview-cli/internal/mutation"
	"github.com/glabrego/bookreview-cli/internal/tui/actions"
	"github.com/glabrego/bookreview-cli/internal/tui/state"
	"github.com/glabrego/bookreview-cli/internal/tui/view"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.Close()
		return m, tea.Quit
	}
	if m.form != nil {
		return m.handleFormKey(msg)
	}

	if key == "?" {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		switch key {
		case "esc":
			m.showHelp = false
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	if m.confirm {
		return m.handleConfirmKey(key)
	}
	if m.history.Current().Name == mutation.RouteDetail {
		return m.handleDetailKey(key)
	}
	return m.handleFeedKey(key)
}

func (m Model) handleFeedKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.cursor = state.ClampCursor(m.cursor-1, len(m.feed.Books))
		return m, nil
	case "down", "j":
		m.cursor = state.ClampCursor(m.cursor+1, len(m.feed.Books))
		return m, nil
	case "g":
		m.cursor = 0
		return m, nil
	case "G":
		m.cursor = state.ClampCursor(len(m.feed.Books)-1, len(m.feed.Books))
		return m, nil
	case "pgup", "ctrl+b":
		m.cursor = state.ClampCursor(m.cursor-state.PageStep(m.height, m.status != ""), len(m.feed.Books))
		return m, nil
	case "pgdown", "ctrl+f":
		m.cursor = state.ClampCursor(m.cursor+state.PageStep(m.height, m.status != ""), len(m.feed.Books))
		return m, nil
	case "enter":
		book, ok := m.selectedBook()
		if !ok {
			return m, nil
		}
		return m.navigate(mutation.Route{Name: mutation.RouteDetail, ID: book.ID}, false, true)
	case "l", "right":
		if !m.feed.HasMore {
			return m.setStatus("No more reviews")
		}
		m.service.Pagination().Next()
		m.cursor = 0
		return m.loadPage()
	case "h", "left":
		if m.service.Pagination().Params().Offset == 0 {
			return m, nil
		}
		m.service.Pagination().Prev()
		m.cursor = 0
		return m.loadPage()
	case "r":
		return m.loadPage()
	case "n":
		if !m.service.Authenticated() {
			return m.setStatus("Log in to write a review")
		}
		return m.navigate(mutation.Route{Name: mutation.RouteNew}, false, false)
	case "P":
		if !m.service.Authenticated() {
			return m.setStatus("Log in to edit your profile")
		}
		return m.navigate(mutation.Route{Name: mutation.RouteProfile}, false, false)
	case "L":
		if m.service.Authenticated() {
			return m, actions.LogoutCmd(m.service)
		}
		return m.navigate(mutation.Route{Name: mutation.RouteLogin}, false, false)
	case "S":
		if m.service.Authenticated() {
			return m, nil
		}
		return m.navigate(mutation.Route{Name: mutation.RouteSignup}, false, false)
	}
	return m, nil
}

func (m Model) handleDetailKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		return m.back()
	case "up", "k":
		if m.detailTop > 0 {
			m.detailTop--
		}
		return m, nil
	case "down", "j":
		if m.detailTop < view.DetailMaxTop(len(m.detailLines()), m.detailBodyHeight()) {
			m.detailTop++
		}
		return m, nil
	case "o":
		return m.openCurrentURL()
	case "y":
		return m.copyCurrentURL()
	case "e":
		if m.detail == nil || !m.owns(*m.detail) {
			return m, nil
		}
		return m.navigate(mutation.Route{Name: mutation.RouteEdit, ID: m.detail.ID}, false, false)
	case "d":
		if m.detail == nil || !m.owns(*m.detail) {
			return m, nil
		}
		m.confirm = true
		return m, nil
	}
	return m, nil
}

// handleConfirmKey answers the delete prompt. Either answer goes through the
// mutation controller, which sends nothing when declined.
func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	if m.detail == nil {
		m.confirm = false
		return m, nil
	}
	switch key {
	case "y", "Y":
		m.loading = true
		return m, actions.DeleteCmd(m.service, m.detail.ID, true)
	case "n", "N", "esc":
		return m, actions.DeleteCmd(m.service, m.detail.ID, false)
	}
	return m, nil
}
