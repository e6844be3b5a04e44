package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Screen int

const (
	ScreenReferences Screen = iota
	ScreenReferenceDetail
	ScreenChat
)

const (
	sidebarWidth          = 26
	collapsedSidebarWidth = 5
)

// SidebarModel is the navigation column. It starts collapsed.
type SidebarModel struct {
	collapsed bool
	height    int
}

func NewSidebarModel() SidebarModel {
	return SidebarModel{collapsed: true}
}

func (m *SidebarModel) Toggle() {
	m.collapsed = !m.collapsed
}

func (m SidebarModel) Collapsed() bool {
	return m.collapsed
}

// Width is the number of columns the sidebar takes, border included.
func (m SidebarModel) Width() int {
	if m.collapsed {
		return collapsedSidebarWidth
	}
	return sidebarWidth
}

func (m *SidebarModel) SetHeight(height int) {
	m.height = height
}

func (m SidebarModel) View(active Screen) string {
	onReferences := active == ScreenReferences || active == ScreenReferenceDetail

	var b strings.Builder
	if m.collapsed {
		b.WriteString(TitleStyle.Render("≡") + "\n\n")
		b.WriteString(sidebarEntry("R", onReferences) + "\n")
		b.WriteString(sidebarEntry("C", active == ScreenChat))
	} else {
		b.WriteString(TitleStyle.Render("AI Research Assistant") + "\n\n")
		b.WriteString(sidebarEntry("References  ^R", onReferences) + "\n")
		b.WriteString(sidebarEntry("Chat        ^T", active == ScreenChat) + "\n\n")
		b.WriteString(HelpTextSimpleStyle.Render("Ctrl+B: Collapse"))
	}

	style := SidebarStyle.Width(m.Width() - 1)
	if m.height > 0 {
		style = style.Height(m.height)
	}
	return style.Render(b.String())
}

func sidebarEntry(label string, active bool) string {
	if active {
		return SidebarActiveStyle.Render(label)
	}
	return SidebarItemStyle.Render(label)
}

// joinWithSidebar places the sidebar left of the page content
func joinWithSidebar(sidebar, content string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
}
