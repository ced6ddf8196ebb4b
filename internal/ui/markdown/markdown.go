// Package markdown renders assistant replies for the chat pane.
package markdown

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/zjrosen/shellpal/internal/cachemanager"
	"github.com/zjrosen/shellpal/internal/log"
)

// noMarginStyle removes document margins so replies align with the role label.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer renders markdown at any width. Output is cached per
// (style, width, text), so unchanged turns are not re-rendered every frame.
// Not safe for concurrent use.
type Renderer struct {
	style     string
	renderers map[int]*glamour.TermRenderer
	cache     *cachemanager.Cache[string]
}

// New creates a renderer. style is "dark" or "light"; empty means "dark".
// A fixed style is used instead of glamour.WithAutoStyle, which queries the
// terminal and would leak the reply into the shell's input.
func New(style string) *Renderer {
	if style == "" {
		style = "dark"
	}
	return &Renderer{
		style:     style,
		renderers: make(map[int]*glamour.TermRenderer),
		cache: cachemanager.New[string]("markdown",
			cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
	}
}

// Style returns the glamour style name.
func (r *Renderer) Style() string {
	return r.style
}

// Render transforms markdown to styled terminal output wrapped at width.
// Leading and trailing blank lines are removed.
func (r *Renderer) Render(text string, width int) (string, error) {
	width = max(width, 1)
	key := cachemanager.Key(r.style, strconv.Itoa(width), text)
	return r.cache.GetOrLoad(key, func() (string, error) {
		tr, err := r.termRenderer(width)
		if err != nil {
			return "", err
		}
		out, err := tr.Render(text)
		if err != nil {
			return "", err
		}
		return strings.Trim(out, "\n"), nil
	})
}

func (r *Renderer) termRenderer(width int) (*glamour.TermRenderer, error) {
	if tr, ok := r.renderers[width]; ok {
		return tr, nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStylePath(r.style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatUI, "markdown renderer created", "style", r.style, "width", width)
	r.renderers[width] = tr
	return tr, nil
}
