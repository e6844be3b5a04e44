package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// ConfirmResultMsg reports the answer of a confirmation dialog.
type ConfirmResultMsg struct {
	ID        string
	Confirmed bool
}

// ConfirmModel is the dialog content of a yes/no question
type ConfirmModel struct {
	id       string
	title    string
	question string
	width    int
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	id := m.id
	switch keyMsg.String() {
	case "y", "Y", "enter":
		return m, func() tea.Msg { return ConfirmResultMsg{ID: id, Confirmed: true} }
	case "n", "N", "esc":
		return m, func() tea.Msg { return ConfirmResultMsg{ID: id, Confirmed: false} }
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	dialogWidth := m.width / 2
	if dialogWidth < 40 {
		dialogWidth = 40
	}

	var content strings.Builder
	content.WriteString(DialogTitleStyle.Render(m.title))
	content.WriteString("\n\n")
	content.WriteString(m.question)
	content.WriteString("\n\n")
	content.WriteString(RenderButton("y Yes", true) + "  " + RenderButton("n No", false))

	return DialogBorderStyle.Width(dialogWidth).Render(content.String())
}

// ConfirmOverlayModel shows a ConfirmModel centered over a background view.
type ConfirmOverlayModel struct {
	dialog  ConfirmModel
	visible bool
}

// Ask shows the dialog for the given subject id.
func (m *ConfirmOverlayModel) Ask(id, title, question string) {
	m.dialog.id = id
	m.dialog.title = title
	m.dialog.question = question
	m.visible = true
}

func (m *ConfirmOverlayModel) Hide() {
	m.visible = false
}

func (m *ConfirmOverlayModel) IsVisible() bool {
	return m.visible
}

func (m *ConfirmOverlayModel) UpdateSize(width int) {
	m.dialog.width = width
}

// UpdateDialog forwards msg to the dialog while visible
func (m *ConfirmOverlayModel) UpdateDialog(msg tea.Msg) tea.Cmd {
	if !m.visible {
		return nil
	}

	mdl, cmd := m.dialog.Update(msg)
	m.dialog = mdl.(ConfirmModel)
	return cmd
}

func (m ConfirmOverlayModel) RenderOverlay(backgroundView string) string {
	if !m.visible {
		return backgroundView
	}

	overlayModel := overlay.New(
		m.dialog,
		&staticViewModel{content: backgroundView},
		overlay.Center,
		overlay.Center,
		0,
		0,
	)

	return overlayModel.View()
}

// staticViewModel is a simple model that renders static content (background)
type staticViewModel struct {
	content string
}

func (m staticViewModel) Init() tea.Cmd {
	return nil
}

func (m staticViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m staticViewModel) View() string {
	return m.content
}
