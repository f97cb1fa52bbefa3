package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitepipe/internal/config"
)

// Markdown converts content bodies to HTML.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewMarkdown configures goldmark with GFM, footnotes and heading anchors.
// Raw HTML is dropped unless cfg.RawHTML is set, in which case it is passed
// through bluemonday's UGC policy unless sanitizing was switched off.
func NewMarkdown(cfg config.MarkdownConfig) *Markdown {
	var rendererOpts []goldmark.Option
	if cfg.RawHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	opts := append([]goldmark.Option{
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, rendererOpts...)

	m := &Markdown{md: goldmark.New(opts...)}
	if cfg.ShouldSanitize() {
		m.policy = bluemonday.UGCPolicy()
	}
	return m
}

// Render converts src into HTML safe for embedding in a layout.
func (m *Markdown) Render(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	out := buf.Bytes()
	if m.policy != nil {
		out = m.policy.SanitizeBytes(out)
	}
	// #nosec G203 -- goldmark escapes raw HTML unless explicitly enabled
	return template.HTML(out), nil
}
