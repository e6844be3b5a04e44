package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"research-terminal/internal/api"
	"research-terminal/internal/logging"
)

const (
	titleHeight    = 3
	textareaHeight = 5
	helpHeight     = 2
	padding        = 2
)

var exampleQuestions = []string{
	"What are the main topics in my references?",
	"Summarize the latest reference I added.",
	"Which references talk about machine learning?",
}

// ChatMessageReceived carries one streamed chunk together with the channels
// to keep reading from.
type ChatMessageReceived struct {
	StreamID   int
	Token      string
	StreamChan <-chan string
	ErrChan    <-chan error
}

type ChatResponseComplete struct {
	StreamID int
}

type ChatResponseError struct {
	StreamID int
	Err      error
}

type ChatViewModel struct {
	svc          api.Service
	messages     []api.ChatMessage
	viewport     viewport.Model
	textarea     textarea.Model
	spinner      spinner.Model
	streaming    bool
	streamID     int
	streamBuffer *strings.Builder
	startedAt    time.Time
	err          error
	ctx          context.Context
	cancelFunc   context.CancelFunc
	mdRenderer   *glamour.TermRenderer
	width        int
	height       int
}

func NewChatViewModel(svc api.Service, width, height int) ChatViewModel {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	// Keep only essential editing keys
	ta.KeyMap.CharacterForward = key.NewBinding(key.WithKeys("right"))
	ta.KeyMap.CharacterBackward = key.NewBinding(key.WithKeys("left"))
	ta.KeyMap.LineStart = key.NewBinding(key.WithKeys("home"))
	ta.KeyMap.LineEnd = key.NewBinding(key.WithKeys("end"))
	ta.KeyMap.DeleteCharacterBackward = key.NewBinding(key.WithKeys("backspace"))
	ta.KeyMap.DeleteCharacterForward = key.NewBinding(key.WithKeys("delete"))
	ta.KeyMap.LineNext = key.NewBinding()
	ta.KeyMap.LinePrevious = key.NewBinding()
	ta.KeyMap.InsertNewline = key.NewBinding()

	vp := viewport.New(width-6, chatViewportHeight(height))
	vp.SetContent("")
	vp.MouseWheelDelta = 2
	vp.KeyMap.Down = key.NewBinding(key.WithKeys("down"))
	vp.KeyMap.Up = key.NewBinding(key.WithKeys("up"))
	vp.KeyMap.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	vp.KeyMap.PageUp = key.NewBinding(key.WithKeys("pgup"))
	vp.KeyMap.HalfPageDown = key.NewBinding()
	vp.KeyMap.HalfPageUp = key.NewBinding()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	m := ChatViewModel{
		svc:          svc,
		viewport:     vp,
		textarea:     ta,
		spinner:      sp,
		streamBuffer: &strings.Builder{},
		ctx:          context.Background(),
		cancelFunc:   func() {},
		mdRenderer:   createMarkdownRenderer(width),
		width:        width,
		height:       height,
	}
	m.renderMessages()
	return m
}

func chatViewportHeight(height int) int {
	h := height - titleHeight - textareaHeight - helpHeight - padding
	if h < 3 {
		h = 3
	}
	return h
}

func (m ChatViewModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Streaming reports whether a response is being received
func (m ChatViewModel) Streaming() bool {
	return m.streaming
}

// Close aborts an in-flight response
func (m ChatViewModel) Close() {
	m.cancelFunc()
}

func (m ChatViewModel) Update(msg tea.Msg) (ChatViewModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = chatViewportHeight(msg.Height)
		m.textarea.SetWidth(msg.Width - 4)
		m.mdRenderer = createMarkdownRenderer(msg.Width)
		m.renderMessages()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.streaming {
				m.cancelFunc()
				m.finishStream()
				return m, nil
			}

		case "enter":
			content := strings.TrimSpace(m.textarea.Value())
			if m.streaming || content == "" {
				return m, nil
			}
			m.textarea.Reset()
			m.err = nil
			m.addMessage(api.RoleUser, content)
			return m, m.sendMessage()
		}

	case ChatMessageReceived:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		// Filter out invalid UTF-8 replacement characters
		if token := strings.ReplaceAll(msg.Token, "�", ""); token != "" {
			m.streamBuffer.WriteString(token)
			m.renderMessages()
		}
		return m, waitForStreamToken(msg.StreamID, msg.StreamChan, msg.ErrChan)

	case ChatResponseComplete:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		logging.Debug("Chat response complete in %s", time.Since(m.startedAt))
		m.finishStream()
		return m, nil

	case ChatResponseError:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		logging.Error("Chat response failed: %v", msg.Err)
		m.err = msg.Err
		m.finishStream()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.streaming {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *ChatViewModel) addMessage(role, content string) {
	m.messages = append(m.messages, api.ChatMessage{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
	})
	m.renderMessages()
}

// sendMessage starts a new response stream for the current transcript.
func (m *ChatViewModel) sendMessage() tea.Cmd {
	m.cancelFunc()
	m.ctx, m.cancelFunc = context.WithCancel(context.Background())
	m.streamID++
	m.streaming = true
	m.startedAt = time.Now()
	m.streamBuffer.Reset()
	m.textarea.Blur()

	svc, ctx, id := m.svc, m.ctx, m.streamID
	history := make([]api.ChatMessage, len(m.messages))
	copy(history, m.messages)

	return func() tea.Msg {
		streamChan, errChan, err := svc.Chat(ctx, history)
		if err != nil {
			return ChatResponseError{StreamID: id, Err: err}
		}
		return waitForStreamToken(id, streamChan, errChan)()
	}
}

// finishStream turns whatever was streamed into an assistant message.
func (m *ChatViewModel) finishStream() {
	m.streaming = false
	m.streamID++
	if m.streamBuffer.Len() > 0 {
		m.messages = append(m.messages, api.ChatMessage{
			ID:      uuid.NewString(),
			Role:    api.RoleAssistant,
			Content: m.streamBuffer.String(),
		})
		m.streamBuffer.Reset()
	}
	m.textarea.Focus()
	m.renderMessages()
}

// waitForStreamToken creates a command that waits for the next stream token
func waitForStreamToken(id int, streamChan <-chan string, errChan <-chan error) tea.Cmd {
	return func() tea.Msg {
		errs := errChan
		for {
			select {
			case token, ok := <-streamChan:
				if !ok {
					// the producer reports its error before closing
					if err, ok := <-errChan; ok && err != nil {
						return ChatResponseError{StreamID: id, Err: err}
					}
					return ChatResponseComplete{StreamID: id}
				}
				return ChatMessageReceived{
					StreamID:   id,
					Token:      token,
					StreamChan: streamChan,
					ErrChan:    errChan,
				}

			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err != nil {
					return ChatResponseError{StreamID: id, Err: err}
				}
			}
		}
	}
}

func (m *ChatViewModel) renderMessages() {
	if len(m.messages) == 0 && !m.streaming {
		m.viewport.SetContent(m.renderWelcome())
		m.viewport.GotoTop()
		return
	}

	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg.Role, msg.Content))
		b.WriteString("\n\n")
	}

	if m.streaming {
		if m.streamBuffer.Len() > 0 {
			b.WriteString(m.renderMessage(api.RoleAssistant, m.streamBuffer.String()))
		} else {
			b.WriteString(AssistantMessageLabelStyle.Render("Assistant:") + " " + m.spinner.View() + " Thinking...")
		}
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *ChatViewModel) renderMessage(role, content string) string {
	if role == api.RoleUser {
		label := UserMessageLabelStyle.Render("You:")
		return GetUserMessageContentStyle(m.width).Render(label + "\n" + content)
	}

	label := AssistantMessageLabelStyle.Render("Assistant:")
	return GetAssistantMessageContentStyle(m.width).Render(label + "\n" + safeRenderMarkdown(m.mdRenderer, content))
}

func (m ChatViewModel) renderWelcome() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Welcome to Your AI Assistant") + "\n\n")
	b.WriteString("I can help you find information, answer questions, and more.\n\n")
	b.WriteString(MetadataStyle.Render("Try asking:") + "\n")
	for _, q := range exampleQuestions {
		b.WriteString(MetadataStyle.Render("  • "+q) + "\n")
	}
	return b.String()
}

func (m ChatViewModel) View() string {
	var b strings.Builder

	b.WriteString(TitleWithPaddingStyle.Render("Chat") + "\n")

	status := fmt.Sprintf("%d messages", len(m.messages))
	if m.streaming {
		status += " | " + m.spinner.View() + " Responding..."
	}
	b.WriteString(statusBarStyle.Render(status) + "\n")

	b.WriteString(RenderViewportWithBorder(m.viewport.View()))
	b.WriteString("\n")
	if scrollInfo := renderScrollIndicator(m.viewport); scrollInfo != "" {
		b.WriteString(scrollInfo)
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(RenderError(api.Detail(m.err, m.err.Error())) + "\n")
	}

	b.WriteString(m.textarea.View() + "\n")

	helpText := "Enter: Send • ↑/↓: Scroll • PgUp/PgDn: Page Scroll • Esc: Stop response • Ctrl+R: References • Ctrl+C: Exit"
	b.WriteString(helpStyle.Render(helpText))

	return b.String()
}

func renderScrollIndicator(vp viewport.Model) string {
	if vp.TotalLineCount() <= vp.Height {
		return ""
	}

	scrollPercent := int(vp.ScrollPercent() * 100)
	indicator := fmt.Sprintf("Scroll: %d%% ↕", scrollPercent)

	return ScrollIndicatorStyle.Render(indicator)
}
