package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"research-terminal/internal/api"
	"research-terminal/internal/logging"
)

// AppModel is the root model: sidebar plus the active page. Leaving the
// references page unmounts it, which stops its polling.
type AppModel struct {
	svc    api.Service
	opts   PageOptions
	ctx    context.Context
	screen Screen
	// first fetches, issued by Init
	initCmd tea.Cmd

	sidebar    SidebarModel
	references ReferencesPageModel
	detail     ReferenceDetailModel
	chat       ChatViewModel

	width  int
	height int
}

func NewAppModel(ctx context.Context, svc api.Service, opts PageOptions) AppModel {
	width, height := 100, 30
	m := AppModel{
		svc:     svc,
		opts:    opts,
		ctx:     ctx,
		screen:  ScreenReferences,
		sidebar: NewSidebarModel(),
		width:   width,
		height:  height,
	}
	m.references = NewReferencesPageModel(svc, opts, m.contentWidth(), height)
	m.chat = NewChatViewModel(svc, m.contentWidth(), height)
	m.initCmd = m.references.Mount(ctx)
	return m
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.initCmd, m.chat.Init())
}

func (m AppModel) contentWidth() int {
	return m.width - m.sidebar.Width()
}

// Screen is the page currently shown
func (m AppModel) Screen() Screen {
	return m.screen
}

func (m *AppModel) resize() {
	w := m.contentWidth()
	m.sidebar.SetHeight(m.height)
	m.references.SetSize(w, m.height)
	m.chat, _ = m.chat.Update(tea.WindowSizeMsg{Width: w, Height: m.height})
	if m.screen == ScreenReferenceDetail {
		m.detail, _ = m.detail.Update(tea.WindowSizeMsg{Width: w, Height: m.height})
	}
}

// leave tears down the current page before switching to next.
func (m *AppModel) leave(next Screen) {
	switch m.screen {
	case ScreenReferences:
		if next != ScreenReferences {
			m.references.Unmount()
		}
	case ScreenReferenceDetail:
		m.detail.Close()
	}
}

func (m *AppModel) showReferences() tea.Cmd {
	if m.screen == ScreenReferences {
		return nil
	}
	m.leave(ScreenReferences)
	m.screen = ScreenReferences
	logging.Debug("Switching to references page")
	return m.references.Mount(m.ctx)
}

func (m *AppModel) showChat() tea.Cmd {
	if m.screen == ScreenChat {
		return nil
	}
	m.leave(ScreenChat)
	m.screen = ScreenChat
	logging.Debug("Switching to chat page")
	return nil
}

func (m *AppModel) showDetail(id string) tea.Cmd {
	m.leave(ScreenReferenceDetail)
	m.screen = ScreenReferenceDetail
	m.detail = NewReferenceDetailModel(m.ctx, m.svc, id, m.contentWidth(), m.height)
	logging.Debug("Opening reference %s", id)
	return m.detail.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.leave(ScreenChat)
			m.chat.Close()
			return m, tea.Quit
		case "ctrl+b":
			m.sidebar.Toggle()
			m.resize()
			return m, nil
		case "ctrl+r":
			return m, m.showReferences()
		case "ctrl+t":
			return m, m.showChat()
		}

	case OpenReferenceMsg:
		return m, m.showDetail(msg.ID)

	case BackToReferencesMsg:
		return m, m.showReferences()
	}

	var cmd tea.Cmd
	switch m.screen {
	case ScreenReferences:
		m.references, cmd = m.references.Update(msg)
	case ScreenReferenceDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ScreenChat:
		m.chat, cmd = m.chat.Update(msg)
	}

	// stream messages keep flowing while another page is shown
	if m.screen != ScreenChat {
		switch msg.(type) {
		case ChatMessageReceived, ChatResponseComplete, ChatResponseError:
			m.chat, cmd = m.chat.Update(msg)
		}
	}

	return m, cmd
}

func (m AppModel) View() string {
	var content string
	switch m.screen {
	case ScreenReferences:
		content = m.references.View()
	case ScreenReferenceDetail:
		content = m.detail.View()
	case ScreenChat:
		content = m.chat.View()
	}

	return joinWithSidebar(m.sidebar.View(m.screen), content)
}
