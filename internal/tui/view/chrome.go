package view

import (
	"fmt"
	"strings"

	tuitheme "github.com/glabrego/bookreview-cli/internal/tui/theme"
)

type Screen string

const (
	ScreenFeed   Screen = "feed"
	ScreenDetail Screen = "detail"
	ScreenForm   Screen = "form"
	ScreenDelete Screen = "delete"
)

func Toolbar(screen Screen, authenticated, mine bool) string {
	switch screen {
	case ScreenDetail:
		parts := []string{"j/k scroll", "o open", "y copy"}
		if mine {
			parts = append(parts, "e edit", "d delete")
		}
		return strings.Join(append(parts, "esc back", "? help"), " | ")
	case ScreenForm:
		return "tab next | shift+tab prev | enter/ctrl+s submit | ctrl+o avatar | esc cancel"
	case ScreenDelete:
		return "y confirm | n cancel"
	}
	parts := []string{"j/k move", "enter open", "h/l page", "r reload"}
	if authenticated {
		parts = append(parts, "n new", "P profile", "L logout")
	} else {
		parts = append(parts, "L login", "S sign up")
	}
	return strings.Join(append(parts, "? help"), " | ")
}

func Footer(screen Screen, user, page string, shown int, th tuitheme.Theme) string {
	if user == "" {
		user = "guest"
	}
	parts := []string{
		th.MetaLabel.Render("view") + " " + th.MetaValue.Render(string(screen)),
		th.MetaLabel.Render("user") + " " + th.MetaValue.Render(user),
		th.MetaLabel.Render("feed") + " " + th.PageCount.Render(page),
		th.MetaValue.Render(fmt.Sprintf("%d shown", shown)),
	}
	return strings.Join(parts, " • ")
}

func Message(loading bool, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	stateLabel := th.StateIdle.Render("state")
	if loading {
		state = "loading"
		stateLabel = th.StateLoad.Render("state")
	}
	if warning != "" {
		state = "warning"
		stateLabel = th.StateWarn.Render("state")
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if warning != "" {
		main = warning
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}

func HelpLines() []string {
	return []string{
		"Feed",
		"  j/k, up/down   move cursor",
		"  enter          open review",
		"  h/l, left/right previous/next page",
		"  r              reload page",
		"  n              write a review (signed in)",
		"  P              edit profile (signed in)",
		"  L              log in / log out",
		"  S              sign up",
		"Review",
		"  o / y          open / copy link",
		"  e / d          edit / delete your review",
		"  esc            back",
		"Forms",
		"  tab            next field",
		"  ctrl+o         load avatar from the path field",
		"  enter, ctrl+s  submit",
		"",
		"q quits, ? closes help",
	}
}
