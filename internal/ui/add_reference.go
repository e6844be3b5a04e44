package ui

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"research-terminal/internal/api"
	"research-terminal/internal/logging"
)

// ReferenceAddedMsg is broadcast after the backend accepted a new reference.
type ReferenceAddedMsg struct {
	Reference api.Reference
}

type referenceAddResultMsg struct {
	Ref *api.Reference
	Err error
}

var (
	errURLRequired = errors.New("URL is required")
	errInvalidURL  = errors.New("Please enter a valid URL")
)

// validateURL trims raw and requires an absolute http(s) URL.
func validateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errURLRequired
	}

	u, err := url.ParseRequestURI(trimmed)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", errInvalidURL
	}
	return trimmed, nil
}

// AddReferenceModel is the form that submits a new URL reference.
type AddReferenceModel struct {
	svc        api.Service
	ctx        context.Context
	input      textinput.Model
	submitting bool
	err        string
	focused    bool
	width      int
}

func NewAddReferenceModel(svc api.Service) AddReferenceModel {
	ti := textinput.New()
	ti.Placeholder = "https://example.com/article"
	ti.Prompt = "URL: "
	ti.CharLimit = 2048

	return AddReferenceModel{
		svc:   svc,
		ctx:   context.Background(),
		input: ti,
	}
}

// Mount binds submissions to a page lifetime.
func (m *AddReferenceModel) Mount(ctx context.Context) {
	m.ctx = ctx
}

func (m *AddReferenceModel) Focus() tea.Cmd {
	m.focused = true
	if m.submitting {
		return nil
	}
	return m.input.Focus()
}

func (m *AddReferenceModel) Blur() {
	m.focused = false
	m.input.Blur()
}

func (m *AddReferenceModel) SetWidth(width int) {
	m.width = width
	m.input.Width = width - 24
}

func (m AddReferenceModel) Submitting() bool {
	return m.submitting
}

func (m AddReferenceModel) Update(msg tea.Msg) (AddReferenceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case referenceAddResultMsg:
		m.submitting = false
		if m.focused {
			m.input.Focus()
		}
		if msg.Err != nil {
			logging.Error("Error adding reference: %v", msg.Err)
			m.err = api.Detail(msg.Err, "Failed to add reference")
			return m, nil
		}

		m.err = ""
		m.input.Reset()
		ref := *msg.Ref
		return m, func() tea.Msg { return ReferenceAddedMsg{Reference: ref} }

	case tea.KeyMsg:
		if !m.focused || m.submitting {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	}

	if m.submitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m AddReferenceModel) submit() (AddReferenceModel, tea.Cmd) {
	rawURL, err := validateURL(m.input.Value())
	if err != nil {
		m.err = err.Error()
		return m, nil
	}

	m.err = ""
	m.submitting = true
	m.input.Blur()

	svc, ctx := m.svc, m.ctx
	return m, func() tea.Msg {
		ref, err := svc.AddReference(ctx, rawURL)
		return referenceAddResultMsg{Ref: ref, Err: err}
	}
}

func (m AddReferenceModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Add Reference") + "\n\n")
	b.WriteString(m.input.View())
	b.WriteString("  ")
	if m.submitting {
		b.WriteString(RenderButton("Adding...", false))
	} else {
		b.WriteString(RenderButton("Add", m.focused))
	}

	if m.err != "" {
		b.WriteString("\n" + RenderError(m.err))
	}

	return b.String()
}
