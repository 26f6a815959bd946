package platform

import (
	"bytes"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// ValidateReviewURL accepts only absolute http(s) links.
func ValidateReviewURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("review has no URL")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid URL format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid URL host")
	}
	return trimmed, nil
}

func OpenURLInBrowser(target string) error {
	name, args := browserCommand(runtime.GOOS, target)
	return exec.Command(name, args...).Run()
}

func browserCommand(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

var clipboardCommands = [][]string{
	{"pbcopy"},
	{"xclip", "-selection", "clipboard"},
	{"wl-copy"},
}

func CopyToClipboard(text string) error {
	c, err := selectClipboardCommand(exec.LookPath)
	if err != nil {
		return err
	}
	cmd := exec.Command(c[0], c[1:]...)
	cmd.Stdin = bytes.NewBufferString(text)
	return cmd.Run()
}

func selectClipboardCommand(lookPath func(string) (string, error)) ([]string, error) {
	for _, c := range clipboardCommands {
		if _, err := lookPath(c[0]); err == nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no clipboard command available")
}
