package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"research-terminal/internal/logging"
)

// createMarkdownRenderer creates a markdown renderer with fallback handling
func createMarkdownRenderer(width int) *glamour.TermRenderer {
	wrap := width - 10
	if wrap < 20 {
		wrap = 20
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		return renderer
	}

	logging.Error("Failed to create markdown renderer with auto style: %v, trying fallback", err)

	renderer, err = glamour.NewTermRenderer(
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		return renderer
	}

	logging.Error("Failed to create markdown renderer with basic style: %v, using plain text", err)
	return nil
}

// safeRenderMarkdown renders markdown with panic recovery, falling back to
// the raw content on any failure.
func safeRenderMarkdown(renderer *glamour.TermRenderer, content string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic in markdown rendering: %v", r)
			out = content
		}
	}()

	if renderer == nil || content == "" {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		logging.Error("Markdown rendering error: %v, falling back to plain text", err)
		return content
	}

	return strings.Trim(rendered, "\n")
}

var printer = message.NewPrinter(language.English)

// formatCount renders a count with thousands separators.
func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}
