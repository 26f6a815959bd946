package view

import (
	"strings"
	"testing"

	tuitheme "github.com/glabrego/bookreview-cli/internal/tui/theme"
)

func TestFormLines_MasksSecretsAndMarksFocus(t *testing.T) {
	th := tuitheme.Default()
	lines := FormLines("Log in", []FormField{
		{Label: "Email", Value: "a@example.com"},
		{Label: "Password", Value: "secret1", Secret: true, Error: "password must be at least 6 characters"},
	}, 1, "invalid credentials", 60, th)
	joined := stripANSI(strings.Join(lines, "\n"))

	if strings.Contains(joined, "secret1") {
		t.Fatalf("secret value leaked: %q", joined)
	}
	for _, want := range []string{"Log in", "  Email     a@example.com", "> Password  *******_", "password must be at least 6 characters", "invalid credentials"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in form, got %q", want, joined)
		}
	}
}

func TestTailRunes(t *testing.T) {
	if got := tailRunes("abcdef", 4); got != "…def" {
		t.Fatalf("unexpected tail: %q", got)
	}
	if got := tailRunes("abc", 4); got != "abc" {
		t.Fatalf("short value must be kept, got %q", got)
	}
}
