package ui

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"research-terminal/internal/api"
	"research-terminal/internal/logging"
)

// BackToReferencesMsg returns from the detail page to the list
type BackToReferencesMsg struct{}

type referenceLoadedMsg struct {
	ID  string
	Ref *api.Reference
	Err error
}

// ReferenceDetailModel shows one reference with its contents rendered as
// markdown.
type ReferenceDetailModel struct {
	svc        api.Service
	id         string
	ref        *api.Reference
	loading    bool
	err        error
	viewport   viewport.Model
	spinner    spinner.Model
	mdRenderer *glamour.TermRenderer
	ctx        context.Context
	cancel     context.CancelFunc
	width      int
	height     int
}

func NewReferenceDetailModel(parent context.Context, svc api.Service, id string, width, height int) ReferenceDetailModel {
	vp := viewport.New(width-4, detailViewportHeight(height))
	vp.MouseWheelDelta = 2
	vp.KeyMap.Down = key.NewBinding(key.WithKeys("down", "j"))
	vp.KeyMap.Up = key.NewBinding(key.WithKeys("up", "k"))
	vp.KeyMap.PageDown = key.NewBinding(key.WithKeys("pgdown", " "))
	vp.KeyMap.PageUp = key.NewBinding(key.WithKeys("pgup"))
	vp.KeyMap.HalfPageDown = key.NewBinding()
	vp.KeyMap.HalfPageUp = key.NewBinding()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	ctx, cancel := context.WithCancel(parent)

	return ReferenceDetailModel{
		svc:      svc,
		id:       id,
		loading:  true,
		viewport: vp,
		spinner:  sp,
		ctx:      ctx,
		cancel:   cancel,
		width:    width,
		height:   height,
	}
}

func detailViewportHeight(height int) int {
	h := height - 8
	if h < 3 {
		h = 3
	}
	return h
}

func (m ReferenceDetailModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Close aborts a pending load
func (m ReferenceDetailModel) Close() {
	m.cancel()
}

func (m ReferenceDetailModel) load() tea.Cmd {
	svc, ctx, id := m.svc, m.ctx, m.id
	return func() tea.Msg {
		ref, err := svc.GetReference(ctx, id, true)
		return referenceLoadedMsg{ID: id, Ref: ref, Err: err}
	}
}

func (m ReferenceDetailModel) Update(msg tea.Msg) (ReferenceDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = detailViewportHeight(msg.Height)
		m.mdRenderer = nil
		m.renderContents()
		return m, nil

	case referenceLoadedMsg:
		if msg.ID != m.id {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			logging.Error("Error fetching reference %s: %v", m.id, msg.Err)
			m.err = msg.Err
			return m, nil
		}
		m.ref = msg.Ref
		m.renderContents()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "esc" || msg.String() == "backspace" {
			m.cancel()
			return m, func() tea.Msg { return BackToReferencesMsg{} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *ReferenceDetailModel) renderContents() {
	if m.ref == nil {
		return
	}
	if m.mdRenderer == nil {
		m.mdRenderer = createMarkdownRenderer(m.width)
	}

	contents := m.ref.Contents
	if contents == "" {
		contents = "_No contents available yet._"
	}
	m.viewport.SetContent(safeRenderMarkdown(m.mdRenderer, contents))
}

func (m ReferenceDetailModel) View() string {
	var b strings.Builder

	b.WriteString(HelpTextSimpleStyle.Render("← Back to References (Esc)") + "\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading reference...")
		return b.String()

	case m.err != nil && api.IsStatus(m.err, http.StatusNotFound):
		b.WriteString(errorStyle.Render("Reference not found or has been deleted."))
		return b.String()

	case m.err != nil:
		b.WriteString(errorStyle.Render("Error Loading Reference\n\n" + api.Detail(m.err, m.err.Error())))
		return b.String()

	case m.ref == nil:
		b.WriteString(errorStyle.Render("Reference not found or has been deleted."))
		return b.String()
	}

	title := m.ref.Title
	if title == "" {
		title = "Untitled Reference"
	}
	b.WriteString(TitleStyle.Render(title))
	if m.ref.Indexed {
		b.WriteString(" " + IndexedBadgeStyle.Render("Indexed"))
	} else {
		b.WriteString(" " + PendingBadgeStyle.Render("Processing"))
	}
	b.WriteString("\n")

	if m.ref.Source != "" {
		b.WriteString(MetadataStyle.Render("Source: "+m.ref.Source) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(RenderViewportWithBorder(m.viewport.View()))
	b.WriteString("\n")
	if indicator := renderScrollIndicator(m.viewport); indicator != "" {
		b.WriteString(indicator)
	}

	return b.String()
}
