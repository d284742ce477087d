package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

// Format selects the export rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatMarkdown, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q (want text, markdown or json)", s)
}

func (f Format) extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

func (f Format) mimeType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain"
	}
}

// Artifact is a rendered export ready to be written somewhere.
type Artifact struct {
	Filename string
	MIMEType string
	Data     []byte
}

// timestampLayout is the human-readable local-time format used in text
// and markdown exports.
const timestampLayout = "2006-01-02 15:04:05"

type jsonExport struct {
	Persona    models.Persona   `json:"persona"`
	Messages   []models.Message `json:"messages"`
	ExportedAt time.Time        `json:"exported_at"`
}

// renderExport produces the export artifact for one branch's messages.
// An empty branch yields ErrNoMessages and no artifact.
func renderExport(persona models.Persona, msgs []models.Message, format Format, now time.Time) (*Artifact, error) {
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}

	var data []byte
	switch format {
	case FormatText:
		data = []byte(renderText(msgs))
	case FormatMarkdown:
		data = []byte(renderMarkdown(persona, msgs, now))
	case FormatJSON:
		var err error
		data, err = json.MarshalIndent(jsonExport{
			Persona:    persona,
			Messages:   msgs,
			ExportedAt: now,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal export: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}

	return &Artifact{
		Filename: fmt.Sprintf("chat-with-%s-%s.%s",
			kebabCase(persona.Name), now.Format(time.DateOnly), format.extension()),
		MIMEType: format.mimeType(),
		Data:     data,
	}, nil
}

func renderText(msgs []models.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, fmt.Sprintf("[%s] %s\n%s\n",
			msg.Role, msg.Timestamp.Local().Format(timestampLayout), msg.Content))
	}
	return strings.Join(parts, "\n")
}

func renderMarkdown(persona models.Persona, msgs []models.Message, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation with %s (%s)\n\n", persona.Name, persona.Title)
	fmt.Fprintf(&b, "Exported on: %s\n\n", now.Local().Format(timestampLayout))

	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		speaker := persona.Name
		if msg.Role == models.RoleUser {
			speaker = "You"
		}
		parts = append(parts, fmt.Sprintf("## %s (%s)\n\n%s\n",
			speaker, msg.Timestamp.Local().Format(timestampLayout), msg.Content))
	}
	b.WriteString(strings.Join(parts, "\n"))
	return b.String()
}

// kebabCase lowercases a display name and collapses runs of
// non-alphanumeric characters into single hyphens.
func kebabCase(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
