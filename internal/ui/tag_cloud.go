package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"research-terminal/internal/api"
	"research-terminal/internal/logging"
	"research-terminal/internal/tagcloud"
)

// TagToggledMsg reports a tag the user toggled. The owner of the selection
// applies it.
type TagToggledMsg struct {
	Tag string
}

type keywordCountsMsg struct {
	Seq    uint64
	Counts api.KeywordCounts
	Err    error
}

var cloudKeys = struct {
	Left   key.Binding
	Right  key.Binding
	Toggle key.Binding
}{
	Left:   key.NewBinding(key.WithKeys("left", "h", "up", "k")),
	Right:  key.NewBinding(key.WithKeys("right", "l", "down", "j")),
	Toggle: key.NewBinding(key.WithKeys("enter", " ")),
}

// TagCloudModel shows keyword counts sized by frequency. Counts are fetched
// for the current selection unless the cloud was built from static counts.
type TagCloudModel struct {
	svc      api.Service
	isStatic bool
	maxTags  int

	tags     []tagcloud.Tag
	selected []string
	loading  bool
	err      error
	seq      uint64
	ctx      context.Context

	cursor  int
	focused bool
	width   int
}

func NewTagCloudModel(svc api.Service, maxTags int) TagCloudModel {
	return TagCloudModel{svc: svc, maxTags: maxTags, loading: true}
}

// NewStaticTagCloud shows fixed counts without contacting the backend.
func NewStaticTagCloud(counts api.KeywordCounts, maxTags int) TagCloudModel {
	return TagCloudModel{
		isStatic: true,
		maxTags:  maxTags,
		tags:     tagcloud.Derive(counts, maxTags),
	}
}

// Mount binds the cloud to a page lifetime and loads counts.
func (m *TagCloudModel) Mount(ctx context.Context) tea.Cmd {
	m.ctx = ctx
	return m.SetSelected(m.selected)
}

// SetSelected updates the highlighted selection and refetches counts
// restricted to it.
func (m *TagCloudModel) SetSelected(selected []string) tea.Cmd {
	m.selected = selected
	if m.isStatic || m.svc == nil || m.ctx == nil {
		return nil
	}

	m.seq++
	m.loading = true
	seq, svc, ctx := m.seq, m.svc, m.ctx
	return func() tea.Msg {
		counts, err := svc.KeywordCounts(ctx, selected)
		return keywordCountsMsg{Seq: seq, Counts: counts, Err: err}
	}
}

func (m *TagCloudModel) Focus() { m.focused = true }
func (m *TagCloudModel) Blur()  { m.focused = false }

func (m *TagCloudModel) SetWidth(width int) {
	m.width = width
}

func (m TagCloudModel) Tags() []tagcloud.Tag {
	return m.tags
}

func (m TagCloudModel) Update(msg tea.Msg) (TagCloudModel, tea.Cmd) {
	switch msg := msg.(type) {
	case keywordCountsMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			logging.Error("Error fetching keyword counts: %v", msg.Err)
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.tags = tagcloud.Derive(msg.Counts, m.maxTags)
		if m.cursor >= len(m.tags) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if !m.focused || len(m.tags) == 0 {
			return m, nil
		}
		switch {
		case key.Matches(msg, cloudKeys.Left):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, cloudKeys.Right):
			if m.cursor < len(m.tags)-1 {
				m.cursor++
			}
		case key.Matches(msg, cloudKeys.Toggle):
			tag := m.tags[m.cursor].Keyword
			return m, func() tea.Msg { return TagToggledMsg{Tag: tag} }
		}
	}

	return m, nil
}

func (m TagCloudModel) View() string {
	var b strings.Builder

	title := TitleStyle.Render("Keywords")
	if len(m.selected) > 0 {
		title += " " + SubtitleStyle.Render("(Filtered)")
	}
	b.WriteString(title + "\n\n")

	switch {
	case m.loading && len(m.tags) == 0:
		b.WriteString(MetadataStyle.Render("Loading keywords..."))
		return b.String()
	case m.err != nil:
		b.WriteString(RenderError("Failed to load keywords. Please try again later."))
		return b.String()
	case len(m.tags) == 0 && len(m.selected) > 0:
		b.WriteString(MetadataStyle.Render("No matching keywords found with the current filter."))
		return b.String()
	case len(m.tags) == 0:
		b.WriteString(MetadataStyle.Render("No keywords found."))
		return b.String()
	}

	chips := make([]string, len(m.tags))
	for i, tag := range m.tags {
		chips[i] = m.renderTag(i, tag)
	}
	b.WriteString(wrapChips(chips, m.width))

	return b.String()
}

func (m TagCloudModel) renderTag(i int, tag tagcloud.Tag) string {
	style := GetTagStyle(tag.Tier)
	if tagcloud.Contains(m.selected, tag.Keyword) {
		style = SelectedTagStyle
	}
	if m.focused && i == m.cursor {
		style = style.Inherit(TagCursorStyle)
	}
	return style.Render(tagcloud.Label(tag.Keyword)) + TagCountStyle.Render(" ("+formatCount(tag.Count)+")")
}

// wrapChips lays out chips left to right, breaking lines at width.
func wrapChips(chips []string, width int) string {
	if width <= 0 {
		return strings.Join(chips, "  ")
	}

	var lines []string
	var line []string
	lineWidth := 0
	for _, chip := range chips {
		w := lipgloss.Width(chip)
		if lineWidth > 0 && lineWidth+2+w > width {
			lines = append(lines, strings.Join(line, "  "))
			line, lineWidth = nil, 0
		}
		if lineWidth > 0 {
			lineWidth += 2
		}
		line = append(line, chip)
		lineWidth += w
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, "  "))
	}
	return strings.Join(lines, "\n")
}
