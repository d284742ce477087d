package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/brandtalk/internal/llm"
	"github.com/raphaelgruber/brandtalk/internal/models"
)

// Theme holds the color scheme for the chat display.
type Theme struct {
	You     lipgloss.Color
	Persona lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	You:     lipgloss.Color("#5FAFD7"), // light blue
	Persona: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) youStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.You).Bold(true)
}

func (t Theme) personaStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Persona).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// replyMsg carries the completed send.
type replyMsg struct {
	reply models.Message
	err   error
}

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	personaID string
	persona   models.Persona
	input     textinput.Model
	spin      spinner.Model
	theme     Theme

	width    int
	waiting  bool
	lastSent string
	errText  string
	quitting bool
}

func newChatModel(personaID string) chatModel {
	persona, _ := registry.Get(personaID)

	input := textinput.New()
	input.Placeholder = fmt.Sprintf("Message %s...", persona.Name)
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	return chatModel{
		personaID: personaID,
		persona:   persona,
		input:     input,
		spin:      spin,
		theme:     defaultTheme,
		width:     80,
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return m.input.Focus()
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.waiting {
				return m, nil
			}
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.waiting = true
			m.errText = ""
			m.lastSent = content
			m.input.SetValue("")
			return m, tea.Batch(m.sendCmd(content), m.spin.Tick)
		}

	case replyMsg:
		m.waiting = false
		if msg.err == nil {
			m.errText = ""
		} else if errors.Is(msg.err, llm.ErrFatalAPI) {
			// Auth, billing or quota: retrying the same message cannot
			// succeed, so don't offer it.
			m.errText = fmt.Sprintf("Send failed: %v", msg.err)
		} else {
			// The fallback reply is already in the history; offer a retry
			// by repopulating the input with the failed message.
			m.errText = fmt.Sprintf("Send failed: %v. Press enter to retry.", msg.err)
			m.input.SetValue(m.lastSent)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Chatting with %s (%s)\n\n", m.persona.Name, m.persona.Title)

	for _, msg := range svc.BranchMessages(m.personaID, svc.ActiveBranch(m.personaID)) {
		speaker := m.theme.personaStyle().Render(m.persona.Name)
		if msg.Role == models.RoleUser {
			speaker = m.theme.youStyle().Render("You")
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, wrap(msg.Content, m.width))
		for _, f := range msg.Files {
			fmt.Fprintf(&b, "  %s\n", m.theme.hintStyle().Render("(attachment: "+f.Name+")"))
		}
	}

	b.WriteString("\n")
	if m.waiting {
		fmt.Fprintf(&b, "%s %s is thinking...\n", m.spin.View(), m.persona.Name)
	}
	if m.errText != "" {
		b.WriteString(m.theme.errorStyle().Render(m.errText) + "\n")
	}

	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.theme.hintStyle().Render("enter to send, esc to leave") + "\n")
	return b.String()
}

// sendCmd runs the completion off the update loop.
func (m chatModel) sendCmd(content string) tea.Cmd {
	personaID := m.personaID
	return func() tea.Msg {
		reply, err := svc.Send(context.Background(), personaID, content, nil)
		return replyMsg{reply: reply, err: err}
	}
}

// wrap does a crude word wrap so long replies stay readable.
func wrap(s string, width int) string {
	if width <= 20 {
		return s
	}
	limit := width - 4
	var out []string
	for _, line := range strings.Split(s, "\n") {
		for len(line) > limit {
			cut := strings.LastIndexByte(line[:limit], ' ')
			if cut <= 0 {
				cut = limit
			}
			out = append(out, line[:cut])
			line = strings.TrimLeft(line[cut:], " ")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// runChatUI runs the interactive chat UI for a persona.
func runChatUI(personaID string) error {
	p := tea.NewProgram(newChatModel(personaID))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	printSessionSummary()
	return nil
}
