package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/config"
)

func TestMarkdownRender(t *testing.T) {
	md := NewMarkdown(config.MarkdownConfig{})
	out, err := md.Render([]byte("# Hello World\n\nSome *text* and ~~gone~~.\n"))
	require.NoError(t, err)

	assert.Contains(t, string(out), `<h1 id="hello-world">Hello World</h1>`)
	assert.Contains(t, string(out), "<em>text</em>")
	assert.Contains(t, string(out), "<del>gone</del>")
}

func TestMarkdownDropsRawHTMLByDefault(t *testing.T) {
	md := NewMarkdown(config.MarkdownConfig{})
	out, err := md.Render([]byte("<div class=\"x\">hi</div>\n"))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<div")
}

func TestMarkdownRawHTMLIsSanitized(t *testing.T) {
	md := NewMarkdown(config.MarkdownConfig{RawHTML: true})
	out, err := md.Render([]byte("<b>bold</b><script>alert(1)</script>\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<b>bold</b>")
	assert.NotContains(t, string(out), "<script>")
}

func TestMarkdownRawHTMLUnsanitized(t *testing.T) {
	off := false
	md := NewMarkdown(config.MarkdownConfig{RawHTML: true, Sanitize: &off})
	out, err := md.Render([]byte("<script>alert(1)</script>\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<script>")
}

func TestSummary(t *testing.T) {
	html := `<h1>Title</h1><p>The quick <em>brown</em> fox.</p><script>var x;</script><pre>code</pre>`
	assert.Equal(t, "Title The quick brown fox.", Summary(html, 0))
	assert.Equal(t, "Title The quick…", Summary(html, 17))
	assert.Equal(t, "", Summary("", 10))
	assert.Equal(t, "a &amp; b", Summary("<p>a &amp;amp; b</p>", 0))
}
