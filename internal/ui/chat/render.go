package chat

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/zjrosen/shellpal/internal/log"
	"github.com/zjrosen/shellpal/internal/ui/markdown"
	"github.com/zjrosen/shellpal/internal/ui/styles"
)

// RenderConfig configures transcript rendering.
type RenderConfig struct {
	Width int
	// Markdown renders assistant entries with glamour. Nil renders them as
	// wrapped plain text.
	Markdown *markdown.Renderer
	// AssistantLabel names the assistant, e.g. the persona.
	AssistantLabel string
}

// Render renders entries as labelled blocks separated by blank lines.
func Render(entries []Entry, cfg RenderConfig) string {
	width := max(cfg.Width, 1)
	label := cfg.AssistantLabel
	if label == "" {
		label = "Assistant"
	}

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		switch e.Role {
		case RoleUser:
			b.WriteString(styles.RoleStyle.Foreground(styles.UserColor).Render("You"))
			b.WriteString("\n")
			b.WriteString(Wrap(e.Text, width))
		default:
			b.WriteString(styles.RoleStyle.Foreground(styles.AssistantColor).Render(label))
			b.WriteString("\n")
			b.WriteString(renderReply(e.Text, width, cfg.Markdown))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func renderReply(text string, width int, md *markdown.Renderer) string {
	if md == nil {
		return Wrap(text, width)
	}
	out, err := md.Render(text, width)
	if err != nil {
		log.ErrorErr(log.CatUI, "markdown render failed", err)
		return Wrap(text, width)
	}
	return out
}

// Wrap word-wraps text at width and hard-wraps words longer than width.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wrap.String(wordwrap.String(text, width), width)
}
