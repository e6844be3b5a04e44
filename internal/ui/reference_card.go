package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"research-terminal/internal/references"
	"research-terminal/internal/tagcloud"
)

// renderCard draws one reference. Collapsed cards show the title line and
// metadata; expanded cards add the summary and keywords.
func renderCard(card *references.Card, selected bool, width int) string {
	innerWidth := width - 4
	if innerWidth < 20 {
		innerWidth = 20
	}

	var b strings.Builder

	marker := "▸ "
	if !card.Collapsed {
		marker = "▾ "
	}
	badge := PendingBadgeStyle.Render("Processing")
	if card.Ref.Indexed {
		badge = IndexedBadgeStyle.Render("Indexed")
	}

	titleWidth := innerWidth - lipgloss.Width(badge) - 3
	title := TitleStyle.Render(truncate(marker+card.Title(), titleWidth))
	gap := innerWidth - lipgloss.Width(title) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(title + strings.Repeat(" ", gap) + badge + "\n")

	if card.Ref.Source != "" && card.Ref.Source != card.Title() {
		b.WriteString(MetadataStyle.Render(truncate(card.Ref.Source, innerWidth)) + "\n")
	}
	if created, ok := card.Ref.CreatedTime(); ok {
		b.WriteString(MetadataStyle.Render("Added: "+created.Local().Format("Jan 2, 2006")) + "\n")
	}

	if !card.Collapsed {
		if card.Ref.Summary != "" {
			b.WriteString("\n" + lipgloss.NewStyle().Width(innerWidth).Render(card.Ref.Summary) + "\n")
		}
		b.WriteString("\n" + renderKeywords(card, innerWidth) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(RenderAction("r", "Reindex", "Reindexing...", card.CanReindex(), card.Reindexing()))
	b.WriteString("  ")
	b.WriteString(RenderAction("d", "Delete", "Deleting...", card.CanDelete(), card.Deleting()))
	b.WriteString("  ")
	b.WriteString(RenderAction("enter", "Open", "", true, false))

	style := CardStyle
	if selected {
		style = SelectedCardStyle
	}
	return style.Width(innerWidth + 2).Render(b.String())
}

func renderKeywords(card *references.Card, width int) string {
	if card.KeywordsLoading() {
		return MetadataStyle.Render("Loading keywords...")
	}

	keywords := card.Keywords()
	if len(keywords) == 0 {
		return MetadataStyle.Render("No keywords")
	}

	chips := make([]string, len(keywords))
	for i, kw := range keywords {
		chips[i] = KeywordChipStyle.Render("#" + tagcloud.Label(kw))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(chips, " "))
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
