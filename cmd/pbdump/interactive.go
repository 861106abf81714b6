package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/wippyai/protobind/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateDetail
)

// maxVisible bounds the message list height.
const maxVisible = 20

type interactiveModel struct {
	err      error
	filter   textinput.Model
	filename string
	dump     string
	messages []protoreflect.MessageDescriptor
	visible  []protoreflect.MessageDescriptor
	payload  []byte
	selected int
	state    modelState
}

func newInteractiveModel(pool *schema.Pool, filename string, payload []byte) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "filter messages"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()

	m := &interactiveModel{
		filter:   ti,
		filename: filename,
		messages: pool.Messages(),
		payload:  payload,
		state:    stateBrowse,
	}
	m.applyFilter()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for _, md := range m.messages {
		if query == "" || strings.Contains(strings.ToLower(string(md.FullName())), query) {
			m.visible = append(m.visible, md)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
				m.dump = ""
				m.err = nil
				return m, nil
			}
			return m, tea.Quit

		case "up":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateBrowse && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			if m.state == stateBrowse && len(m.visible) > 0 {
				m.openDetail()
			}
			return m, nil
		}
	}

	if m.state != stateBrowse {
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *interactiveModel) openDetail() {
	m.state = stateDetail
	m.dump, m.err = "", nil
	if m.payload == nil {
		return
	}
	m.dump, m.err = dumpString(m.visible[m.selected], m.payload)
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Schema Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no matching messages"))
			b.WriteString("\n")
		}
		start := max(m.selected-maxVisible+1, 0)
		end := min(start+maxVisible, len(m.visible))
		for i := start; i < end; i++ {
			line := m.formatMessage(m.visible[i])
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter open • esc quit"))

	case stateDetail:
		md := m.visible[m.selected]
		b.WriteString(nameStyle.Render(string(md.FullName())))
		b.WriteString("\n\n")
		fields := md.Fields()
		for i := 0; i < fields.Len(); i++ {
			fd := fields.Get(i)
			fmt.Fprintf(&b, "  %-4d %-20s %s\n", fd.Number(), fd.Name(), typeStyle.Render(fieldType(fd)))
		}
		if m.payload != nil {
			fmt.Fprintf(&b, "\nPayload (%d bytes):\n\n", len(m.payload))
			if m.err != nil {
				b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			} else {
				b.WriteString(resultStyle.Render(m.dump))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • ctrl+c quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatMessage(md protoreflect.MessageDescriptor) string {
	return nameStyle.Render(string(md.FullName())) +
		typeStyle.Render(fmt.Sprintf(" (%d fields)", md.Fields().Len()))
}

func runInteractive(pool *schema.Pool, filename string, payload []byte) error {
	p := tea.NewProgram(newInteractiveModel(pool, filename, payload), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
