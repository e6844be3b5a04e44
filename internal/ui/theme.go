package ui

import (
	"github.com/charmbracelet/lipgloss"
	tint "github.com/lrstanley/bubbletint"

	"research-terminal/internal/tagcloud"
)

// Theme registry for the application
var Theme *tint.Registry

// Common style elements used across all views
var (
	// Title styles
	TitleStyle            lipgloss.Style
	TitleWithPaddingStyle lipgloss.Style
	SubtitleStyle         lipgloss.Style
	ActiveLabelStyle      lipgloss.Style
	InactiveLabelStyle    lipgloss.Style
	errorStyle            lipgloss.Style
	ErrorMessageStyle     lipgloss.Style
	statusBarStyle        lipgloss.Style
	helpStyle             lipgloss.Style
	HelpTextSimpleStyle   lipgloss.Style
	ActiveButtonStyle     lipgloss.Style
	InactiveButtonStyle   lipgloss.Style
	DisabledButtonStyle   lipgloss.Style
	BusyButtonStyle       lipgloss.Style
	MetadataStyle         lipgloss.Style
	SpinnerStyle          lipgloss.Style
	ViewportBorderStyle   lipgloss.Style
	ScrollIndicatorStyle  lipgloss.Style
	InfoBannerStyle       lipgloss.Style

	// Chat message styles
	UserMessageLabelStyle        lipgloss.Style
	AssistantMessageLabelStyle   lipgloss.Style
	UserMessageContentStyle      lipgloss.Style
	AssistantMessageContentStyle lipgloss.Style

	// Reference card styles
	CardStyle         lipgloss.Style
	SelectedCardStyle lipgloss.Style
	IndexedBadgeStyle lipgloss.Style
	PendingBadgeStyle lipgloss.Style
	KeywordChipStyle  lipgloss.Style

	// Tag cloud styles, one per tier
	TagTierStyles    map[tagcloud.Tier]lipgloss.Style
	SelectedTagStyle lipgloss.Style
	TagCursorStyle   lipgloss.Style
	TagCountStyle    lipgloss.Style

	// Sidebar and dialogs
	SidebarStyle          lipgloss.Style
	SidebarItemStyle      lipgloss.Style
	SidebarActiveStyle    lipgloss.Style
	DialogBorderStyle     lipgloss.Style
	DialogTitleStyle      lipgloss.Style
	FocusedSectionStyle   lipgloss.Style
	UnfocusedSectionStyle lipgloss.Style
)

func init() {
	tint.NewDefaultRegistry()
	tint.SetTint(tint.TintChalk)
	Theme = tint.DefaultRegistry

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(tint.Purple())

	TitleWithPaddingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(tint.Purple()).
		Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow())

	ActiveLabelStyle = lipgloss.NewStyle().
		Foreground(tint.White()).
		Bold(true)

	InactiveLabelStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack())

	// Error styles
	errorStyle = lipgloss.NewStyle().
		Foreground(tint.Red()).
		Bold(true).
		Padding(1)

	ErrorMessageStyle = lipgloss.NewStyle().
		Foreground(tint.Red())

	statusBarStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(1, 0, 0, 1)

	HelpTextSimpleStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack())

	// Button styles
	ActiveButtonStyle = lipgloss.NewStyle().
		Foreground(tint.Bg()).
		Background(tint.Purple()).
		Bold(true)

	InactiveButtonStyle = lipgloss.NewStyle().
		Foreground(tint.Purple())

	DisabledButtonStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Faint(true)

	BusyButtonStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow())

	MetadataStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack())

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(tint.Purple())

	ViewportBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.White()).
		Padding(0, 1)

	ScrollIndicatorStyle = lipgloss.NewStyle().
		Foreground(tint.White()).
		Bold(false)

	InfoBannerStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow()).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(tint.Yellow()).
		Padding(0, 1)

	// Message styles (for chat messages)
	UserMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.White()).
		Bold(true)

	AssistantMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.Purple()).
		Bold(true)

	UserMessageContentStyle = lipgloss.NewStyle().
		Foreground(tint.Fg()).
		Padding(0, 1).
		MarginBottom(1)

	AssistantMessageContentStyle = lipgloss.NewStyle().
		Foreground(tint.Fg()).
		Padding(0, 1).
		MarginBottom(1)

	// Reference cards
	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.BrightBlack()).
		Padding(0, 1)

	SelectedCardStyle = CardStyle.
		BorderForeground(tint.Purple())

	IndexedBadgeStyle = lipgloss.NewStyle().
		Foreground(tint.Bg()).
		Background(tint.Green()).
		Padding(0, 1)

	PendingBadgeStyle = lipgloss.NewStyle().
		Foreground(tint.Bg()).
		Background(tint.Yellow()).
		Padding(0, 1)

	KeywordChipStyle = lipgloss.NewStyle().
		Foreground(tint.Purple())

	// Tag cloud
	TagTierStyles = map[tagcloud.Tier]lipgloss.Style{
		tagcloud.TierSmall:  lipgloss.NewStyle().Foreground(tint.BrightBlack()),
		tagcloud.TierMedium: lipgloss.NewStyle().Foreground(tint.Fg()),
		tagcloud.TierLarge:  lipgloss.NewStyle().Foreground(tint.White()).Bold(true),
		tagcloud.TierXLarge: lipgloss.NewStyle().Foreground(tint.Purple()).Bold(true).Underline(true),
	}

	SelectedTagStyle = lipgloss.NewStyle().
		Foreground(tint.Bg()).
		Background(tint.Purple())

	TagCursorStyle = lipgloss.NewStyle().
		Reverse(true)

	TagCountStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack())

	// Sidebar
	SidebarStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(tint.BrightBlack()).
		Padding(0, 1)

	SidebarItemStyle = lipgloss.NewStyle().
		Foreground(tint.Fg())

	SidebarActiveStyle = lipgloss.NewStyle().
		Foreground(tint.Purple()).
		Bold(true)

	// Dialog overlay
	DialogBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.Yellow()).
		Padding(1, 2)

	DialogTitleStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow()).
		Bold(true)

	FocusedSectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.Purple()).
		Padding(0, 1)

	UnfocusedSectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.BrightBlack()).
		Padding(0, 1)
}

// GetFieldLabelStyle returns the appropriate style for a field label based on whether it's active
func GetFieldLabelStyle(isActive bool) lipgloss.Style {
	if isActive {
		return ActiveLabelStyle
	}
	return InactiveLabelStyle
}

// RenderButton renders a button with the appropriate style
func RenderButton(label string, isActive bool) string {
	if isActive {
		return ActiveButtonStyle.Render(" " + label + " ")
	}
	return InactiveButtonStyle.Render("[ " + label + " ]")
}

// RenderAction renders a key-bound inline action. A busy action shows
// busyLabel instead of its label; a disabled one is dimmed.
func RenderAction(keyName, label, busyLabel string, enabled, busy bool) string {
	switch {
	case busy:
		return BusyButtonStyle.Render("[ " + busyLabel + " ]")
	case !enabled:
		return DisabledButtonStyle.Render("[" + keyName + "] " + label)
	default:
		return InactiveButtonStyle.Render("[" + keyName + "] " + label)
	}
}

// RenderError renders an error message
func RenderError(msg string) string {
	return ErrorMessageStyle.Render("  ✗ " + msg)
}

// RenderViewportWithBorder renders content with a viewport border style
func RenderViewportWithBorder(content string) string {
	return ViewportBorderStyle.Render(content)
}

// RenderSection frames a page section, highlighting the focused one.
func RenderSection(content string, width int, focused bool) string {
	style := UnfocusedSectionStyle
	if focused {
		style = FocusedSectionStyle
	}
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(content)
}

// GetUserMessageContentStyle returns a style for user message content with given width
func GetUserMessageContentStyle(width int) lipgloss.Style {
	return UserMessageContentStyle.
		Width(width - 10).
		Align(lipgloss.Right)
}

// GetAssistantMessageContentStyle returns a style for assistant message content with given width
func GetAssistantMessageContentStyle(width int) lipgloss.Style {
	return AssistantMessageContentStyle.
		Width(width - 10)
}

func GetTagStyle(tier tagcloud.Tier) lipgloss.Style {
	if style, ok := TagTierStyles[tier]; ok {
		return style
	}
	return TagTierStyles[tagcloud.TierMedium]
}
