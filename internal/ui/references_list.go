package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"research-terminal/internal/api"
	"research-terminal/internal/references"
	"research-terminal/internal/tagcloud"
)

const processingBanner = "Some references are still being processed. The list will automatically update when complete."

type referencesFetchedMsg struct {
	Seq   uint64
	Items []api.Reference
	Err   error
}

type pollTickMsg struct {
	Gen uint64
}

type cardKeywordsMsg struct {
	ID       string
	Keywords []string
	Err      error
}

type reindexDoneMsg struct {
	ID  string
	Err error
}

type deleteDoneMsg struct {
	ID  string
	Err error
}

// OpenReferenceMsg asks the app to show a reference's detail page
type OpenReferenceMsg struct {
	ID string
}

type listKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Collapse key.Binding
	Reindex  key.Binding
	Delete   key.Binding
	Open     key.Binding
}

var listKeys = listKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	Collapse: key.NewBinding(key.WithKeys(" ", "c")),
	Reindex:  key.NewBinding(key.WithKeys("r")),
	Delete:   key.NewBinding(key.WithKeys("d")),
	Open:     key.NewBinding(key.WithKeys("enter")),
}

// ReferencesListModel renders the reference list and runs its fetches,
// polling ticks and card actions.
type ReferencesListModel struct {
	svc      api.Service
	list     *references.List
	cards    *references.Cards
	visible  []*references.Card
	cursor   int
	viewport viewport.Model
	confirm  *ConfirmOverlayModel
	focused  bool
	width    int
	height   int
}

func NewReferencesListModel(svc api.Service, pollInterval time.Duration, width, height int) ReferencesListModel {
	vp := viewport.New(width, height)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return ReferencesListModel{
		svc:      svc,
		list:     references.NewList(pollInterval),
		cards:    references.NewCards(),
		viewport: vp,
		confirm:  &ConfirmOverlayModel{},
		width:    width,
		height:   height,
	}
}

// Mount starts the list lifetime and returns the initial fetch.
func (m ReferencesListModel) Mount(parent context.Context) tea.Cmd {
	return m.fetch(m.list.Mount(parent))
}

// Unmount stops polling and aborts in-flight requests.
func (m ReferencesListModel) Unmount() {
	m.list.Unmount()
	m.confirm.Hide()
}

// SetKeywords refetches with a new tag filter.
func (m ReferencesListModel) SetKeywords(keywords []string) tea.Cmd {
	f, ok := m.list.SetKeywords(keywords)
	if !ok {
		return nil
	}
	return m.fetch(f)
}

// Refresh refetches with the current filter.
func (m ReferencesListModel) Refresh() tea.Cmd {
	f, ok := m.list.Refresh()
	if !ok {
		return nil
	}
	return m.fetch(f)
}

func (m *ReferencesListModel) Focus() {
	m.focused = true
	m.renderCards()
}

func (m *ReferencesListModel) Blur() {
	m.focused = false
	m.renderCards()
}

// Modal reports whether the list captures all keys (delete confirmation).
func (m ReferencesListModel) Modal() bool {
	return m.confirm.IsVisible()
}

func (m *ReferencesListModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - m.headerHeight()
	m.confirm.UpdateSize(width)
	m.renderCards()
}

func (m ReferencesListModel) fetch(f references.Fetch) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		items, err := svc.ListReferences(f.Ctx, f.Keywords)
		return referencesFetchedMsg{Seq: f.Seq, Items: items, Err: err}
	}
}

func pollTick(s references.Schedule) tea.Cmd {
	return tea.Tick(s.Delay, func(time.Time) tea.Msg {
		return pollTickMsg{Gen: s.Gen}
	})
}

func (m ReferencesListModel) fetchKeywords(id string) tea.Cmd {
	svc, ctx := m.svc, m.list.Context()
	return func() tea.Msg {
		keywords, err := svc.ReferenceKeywords(ctx, id)
		return cardKeywordsMsg{ID: id, Keywords: keywords, Err: err}
	}
}

func (m ReferencesListModel) reindex(id string) tea.Cmd {
	svc, ctx := m.svc, m.list.Context()
	return func() tea.Msg {
		_, err := svc.ReindexReference(ctx, id)
		return reindexDoneMsg{ID: id, Err: err}
	}
}

func (m ReferencesListModel) delete(id string) tea.Cmd {
	svc, ctx := m.svc, m.list.Context()
	return func() tea.Msg {
		return deleteDoneMsg{ID: id, Err: svc.DeleteReference(ctx, id)}
	}
}

func (m ReferencesListModel) Update(msg tea.Msg) (ReferencesListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case referencesFetchedMsg:
		var cmds []tea.Cmd
		if sched, arm := m.list.Resolve(msg.Seq, msg.Items, msg.Err); arm {
			cmds = append(cmds, pollTick(sched))
		}
		cmds = append(cmds, m.syncCards()...)
		return m, tea.Batch(cmds...)

	case pollTickMsg:
		f, ok := m.list.Tick(msg.Gen)
		if !ok {
			return m, nil
		}
		return m, m.fetch(f)

	case cardKeywordsMsg:
		if card, ok := m.cards.Get(msg.ID); ok {
			card.SetKeywords(msg.Keywords, msg.Err)
			m.renderCards()
		}
		return m, nil

	case reindexDoneMsg:
		card, ok := m.cards.Get(msg.ID)
		if !ok {
			return m, nil
		}
		refresh := card.FinishReindex(msg.Err)
		m.renderCards()
		if refresh {
			return m, m.Refresh()
		}
		return m, nil

	case deleteDoneMsg:
		card, ok := m.cards.Get(msg.ID)
		if !ok {
			return m, nil
		}
		refresh := card.FinishDelete(msg.Err)
		m.renderCards()
		if refresh {
			return m, m.Refresh()
		}
		return m, nil

	case ConfirmResultMsg:
		m.confirm.Hide()
		if !msg.Confirmed || m.list.Context() == nil {
			return m, nil
		}
		card, ok := m.cards.Get(msg.ID)
		if !ok || !card.BeginDelete() {
			return m, nil
		}
		m.renderCards()
		return m, m.delete(msg.ID)

	case tea.KeyMsg:
		if m.confirm.IsVisible() {
			return m, m.confirm.UpdateDialog(msg)
		}
		if !m.focused || m.list.Context() == nil {
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m ReferencesListModel) handleKey(msg tea.KeyMsg) (ReferencesListModel, tea.Cmd) {
	card := m.selected()

	switch {
	case key.Matches(msg, listKeys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.renderCards()
		}
		return m, nil

	case key.Matches(msg, listKeys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
			m.renderCards()
		}
		return m, nil

	case key.Matches(msg, listKeys.Collapse):
		if card != nil {
			card.ToggleCollapsed()
			m.renderCards()
		}
		return m, nil

	case key.Matches(msg, listKeys.Reindex):
		if card == nil || !card.BeginReindex() {
			return m, nil
		}
		m.renderCards()
		return m, m.reindex(card.Ref.ID)

	case key.Matches(msg, listKeys.Delete):
		if card == nil || !card.CanDelete() {
			return m, nil
		}
		m.confirm.Ask(card.Ref.ID, "Delete Reference",
			fmt.Sprintf("Are you sure you want to delete %q?", card.Title()))
		return m, nil

	case key.Matches(msg, listKeys.Open):
		if card == nil {
			return m, nil
		}
		id := card.Ref.ID
		return m, func() tea.Msg { return OpenReferenceMsg{ID: id} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ReferencesListModel) selected() *references.Card {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

// syncCards rebuilds the card list from the current items and returns the
// lazy keyword fetches newly visible cards need.
func (m *ReferencesListModel) syncCards() []tea.Cmd {
	m.visible = m.cards.Sync(m.list.Items())
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	if m.list.Context() == nil {
		m.renderCards()
		return nil
	}

	var cmds []tea.Cmd
	for _, card := range m.visible {
		if card.BeginKeywords() {
			cmds = append(cmds, m.fetchKeywords(card.Ref.ID))
		}
	}
	m.viewport.Height = m.height - m.headerHeight()
	m.renderCards()
	return cmds
}

func (m *ReferencesListModel) renderCards() {
	if len(m.visible) == 0 {
		m.viewport.SetContent("")
		return
	}

	var b strings.Builder
	selStart, selEnd := 0, 0
	line := 0
	for i, card := range m.visible {
		rendered := renderCard(card, m.focused && i == m.cursor, m.width)
		height := strings.Count(rendered, "\n") + 1
		if i == m.cursor {
			selStart, selEnd = line, line+height
		}
		b.WriteString(rendered)
		b.WriteString("\n")
		line += height
	}
	m.viewport.SetContent(b.String())

	// keep the selected card in view
	if selStart < m.viewport.YOffset {
		m.viewport.SetYOffset(selStart)
	} else if selEnd > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(selEnd - m.viewport.Height)
	}
}

func (m ReferencesListModel) headerHeight() int {
	h := 2
	if m.list.HasUnindexed() {
		h += 2
	}
	return h
}

func (m ReferencesListModel) header() string {
	title := TitleStyle.Render("Your References")
	if n := len(m.list.Items()); n > 0 {
		title += MetadataStyle.Render(" (" + formatCount(n) + ")")
	}
	if kw := m.list.Keywords(); len(kw) > 0 {
		labels := make([]string, len(kw))
		for i, k := range kw {
			labels[i] = tagcloud.Label(k)
		}
		title += " " + SubtitleStyle.Render("(Filtered by: "+strings.Join(labels, ", ")+")")
	}
	if m.list.Refreshing() {
		title += " " + MetadataStyle.Render("Refreshing...")
	}
	return title
}

func (m ReferencesListModel) View() string {
	var b strings.Builder

	switch m.list.Status() {
	case references.StatusLoading:
		b.WriteString(MetadataStyle.Render("Loading references..."))
		return b.String()

	case references.StatusError:
		b.WriteString(m.header() + "\n\n")
		b.WriteString(RenderError("Error: " + api.Detail(m.list.VisibleError(), m.list.VisibleError().Error())))
		return b.String()
	}

	b.WriteString(m.header() + "\n\n")

	if len(m.visible) == 0 {
		if len(m.list.Keywords()) > 0 {
			b.WriteString(MetadataStyle.Render("No references found matching the selected tags."))
		} else {
			b.WriteString(MetadataStyle.Render("No references found. Add your first reference above."))
		}
		return b.String()
	}

	if m.list.HasUnindexed() {
		b.WriteString(InfoBannerStyle.Render(processingBanner) + "\n\n")
	}

	b.WriteString(m.viewport.View())

	return m.confirm.RenderOverlay(b.String())
}
