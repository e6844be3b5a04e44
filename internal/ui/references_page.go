package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"research-terminal/internal/api"
	"research-terminal/internal/tagcloud"
)

type pageFocus int

const (
	focusForm pageFocus = iota
	focusList
	focusCloud
	focusCount
)

// PageOptions configure the references page
type PageOptions struct {
	PollInterval time.Duration
	MaxTags      int
}

// ReferencesPageModel composes the add form, the tag cloud and the list.
// It owns the tag selection and relays reference-added notifications to
// the list.
type ReferencesPageModel struct {
	form  AddReferenceModel
	list  ReferencesListModel
	cloud TagCloudModel

	selected []string
	focus    pageFocus

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

func NewReferencesPageModel(svc api.Service, opts PageOptions, width, height int) ReferencesPageModel {
	m := ReferencesPageModel{
		form:   NewAddReferenceModel(svc),
		list:   NewReferencesListModel(svc, opts.PollInterval, width, height),
		cloud:  NewTagCloudModel(svc, opts.MaxTags),
		focus:  focusList,
		width:  width,
		height: height,
	}
	m.list.Focus()
	m.layout()
	return m
}

// Mount starts the page lifetime: the list fetches and may begin polling,
// the tag cloud loads counts.
func (m *ReferencesPageModel) Mount(parent context.Context) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	m.ctx, m.cancel = context.WithCancel(parent)
	m.form.Mount(m.ctx)

	return tea.Batch(
		m.list.Mount(m.ctx),
		m.cloud.Mount(m.ctx),
	)
}

// Unmount cancels everything started by the page and stops polling.
func (m *ReferencesPageModel) Unmount() {
	m.list.Unmount()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Selected is the current tag filter
func (m ReferencesPageModel) Selected() []string {
	return m.selected
}

// Capturing reports whether key input currently belongs to a text field or
// dialog, so single-letter shortcuts must not be intercepted.
func (m ReferencesPageModel) Capturing() bool {
	return m.focus == focusForm || m.list.Modal()
}

func (m *ReferencesPageModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.layout()
}

func (m *ReferencesPageModel) layout() {
	m.form.SetWidth(m.width - 4)
	m.cloud.SetWidth(m.width - 6)

	formHeight := 6
	cloudHeight := lipgloss.Height(m.cloud.View()) + 2
	listHeight := m.height - formHeight - cloudHeight - 4
	if listHeight < 6 {
		listHeight = 6
	}
	m.list.SetSize(m.width-4, listHeight)
}

func (m *ReferencesPageModel) setFocus(f pageFocus) tea.Cmd {
	m.focus = f
	m.form.Blur()
	m.list.Blur()
	m.cloud.Blur()

	switch f {
	case focusForm:
		return m.form.Focus()
	case focusList:
		m.list.Focus()
	case focusCloud:
		m.cloud.Focus()
	}
	return nil
}

func (m ReferencesPageModel) Update(msg tea.Msg) (ReferencesPageModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case TagToggledMsg:
		m.selected = tagcloud.Toggle(m.selected, msg.Tag)
		cmds = append(cmds, m.list.SetKeywords(m.selected), m.cloud.SetSelected(m.selected))
		m.layout()
		return m, tea.Batch(cmds...)

	case ReferenceAddedMsg:
		// counts change with the new reference too
		cmds = append(cmds, m.list.Refresh(), m.cloud.SetSelected(m.selected))
		return m, tea.Batch(cmds...)

	case keywordCountsMsg:
		var cmd tea.Cmd
		m.cloud, cmd = m.cloud.Update(msg)
		m.layout()
		return m, cmd

	case tea.KeyMsg:
		if !m.list.Modal() {
			switch msg.String() {
			case "tab":
				return m, m.setFocus((m.focus + 1) % focusCount)
			case "shift+tab":
				return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
			}
		}

		var cmd tea.Cmd
		switch {
		case m.list.Modal() || m.focus == focusList:
			m.list, cmd = m.list.Update(msg)
		case m.focus == focusForm:
			m.form, cmd = m.form.Update(msg)
		case m.focus == focusCloud:
			m.cloud, cmd = m.cloud.Update(msg)
		}
		return m, cmd
	}

	// everything else may belong to any child
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	cmds = append(cmds, cmd)
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	m.cloud, cmd = m.cloud.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m ReferencesPageModel) View() string {
	var b strings.Builder

	b.WriteString(RenderSection(m.form.View(), m.width, m.focus == focusForm))
	b.WriteString("\n")
	b.WriteString(RenderSection(m.cloud.View(), m.width, m.focus == focusCloud))
	b.WriteString("\n")
	b.WriteString(RenderSection(m.list.View(), m.width, m.focus == focusList))
	b.WriteString("\n")

	helpText := "Tab: Switch section • ↑/↓: Navigate • Space: Expand • r: Reindex • d: Delete • Enter: Open/Toggle • Ctrl+T: Chat • Ctrl+C: Exit"
	b.WriteString(HelpTextSimpleStyle.Render(helpText))

	return b.String()
}
