package view

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	inlineImagePreviewRows = 12
	maxPreviewDownload     = 5 << 20
)

// RenderImageFile draws a local image, such as a selected avatar's preview
// file, with chafa.
func RenderImageFile(path string, width int) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("no image selected")
	}
	return renderWithChafa(width, path, nil)
}

// RenderImageURL downloads a remote image, such as the current user's icon,
// and draws it with chafa.
func RenderImageURL(ctx context.Context, imageURL string, width int) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", fmt.Errorf("no image URL")
	}
	client := &http.Client{Timeout: 8 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewDownload))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return renderWithChafa(width, "-", bytes.NewReader(imageData))
}

func renderWithChafa(width int, source string, stdin io.Reader) (string, error) {
	if width < 30 {
		width = 40
	}
	chafaPath, err := exec.LookPath("chafa")
	if err != nil {
		return "", fmt.Errorf("chafa is not installed")
	}

	kitty := SupportsKittyGraphics()
	cmd := exec.Command(chafaPath, chafaArgs(width, kitty, KittyPassthroughMode(), source)...)
	cmd.Stdin = stdin
	output, err := cmd.CombinedOutput()
	raw := string(output)
	trimmed := strings.TrimSpace(raw)

	if err != nil {
		return "", fmt.Errorf("render image via chafa: %w: %s", err, trimmed)
	}
	if kitty && ContainsKittyGraphicsEscape(raw) {
		return strings.TrimRight(raw, "\r\n"), nil
	}
	if trimmed == "" {
		return "", fmt.Errorf("empty output")
	}
	return trimmed, nil
}

func chafaArgs(width int, kitty bool, passthrough, source string) []string {
	size := fmt.Sprintf("%dx%d", width, inlineImagePreviewRows)
	args := []string{"--size", size, "--view-size", size, "--align", "top,center"}
	if kitty {
		args = append(args, "--format", "kitty", "--passthrough", passthrough, "--relative", "on")
	} else {
		args = append(args, "--format", "symbols")
	}
	return append(args, source)
}

func SupportsKittyGraphics() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	termProgram := strings.ToLower(strings.TrimSpace(os.Getenv("TERM_PROGRAM")))
	if strings.Contains(termProgram, "ghostty") || strings.Contains(termProgram, "kitty") {
		return true
	}
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return strings.Contains(term, "xterm-kitty") || strings.Contains(term, "ghostty")
}

func ContainsKittyGraphicsEscape(s string) bool {
	return strings.Contains(s, "\x1b_G")
}

func ClearKittyGraphicsSequence() string {
	base := "\x1b_Ga=d,d=A\x1b\\"
	if os.Getenv("TMUX") == "" {
		return base
	}
	escaped := strings.ReplaceAll(base, "\x1b", "\x1b\x1b")
	return "\x1bPtmux;\x1b" + escaped + "\x1b\\"
}

func KittyPassthroughMode() string {
	if os.Getenv("TMUX") != "" {
		return "screen"
	}
	return "none"
}
