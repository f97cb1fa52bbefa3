package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage() *Page {
	return &Page{
		Kind:          KindPage,
		Site:          Site{Title: "Blog", Language: "en", BaseURL: "https://example.org"},
		Title:         "Hello",
		Date:          time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		HasDate:       true,
		DateFormatted: "January 2, 2024",
		Tags:          []TagLink{{Name: "go", URL: "/tags/go/"}},
		Content:       "<p>body</p>",
	}
}

func TestRegistryBuiltins(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "index", "post", "tag"}, r.Names())
}

func TestLookupFallsBackToDefault(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, name, fellBack := r.Lookup("")
	assert.Equal(t, DefaultLayout, name)
	assert.False(t, fellBack)

	_, name, fellBack = r.Lookup("post")
	assert.Equal(t, "post", name)
	assert.False(t, fellBack)

	_, name, fellBack = r.Lookup("gallery")
	assert.Equal(t, DefaultLayout, name)
	assert.True(t, fellBack)
}

func TestRenderPostLayout(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "post", testPage()))
	out := buf.String()

	assert.Contains(t, out, "<h1>Hello</h1>")
	assert.Contains(t, out, `<time datetime="2024-01-02">January 2, 2024</time>`)
	assert.Contains(t, out, "<p>body</p>")
	assert.Contains(t, out, `<a href="/tags/go/">go</a>`)
	assert.Contains(t, out, "<title>Hello · Blog</title>")
	assert.Contains(t, out, `href="https://example.org/feed.xml"`)
}

func TestRenderEscapesTitle(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	p := testPage()
	p.Title = "<script>x</script>"
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "default", p))
	assert.NotContains(t, buf.String(), "<script>x</script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestRenderIndexEntries(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	p := &Page{
		Kind:  KindIndex,
		Site:  Site{Title: "Blog"},
		Title: "Blog",
		Entries: []Entry{
			{Title: "B", URL: "/b/", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), DateFormatted: "Feb 1"},
			{Title: "A", URL: "/a/", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DateFormatted: "Jan 1", Summary: "first"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "index", p))
	out := buf.String()

	b := bytes.Index(buf.Bytes(), []byte(`<a href="/b/">B</a>`))
	a := bytes.Index(buf.Bytes(), []byte(`<a href="/a/">A</a>`))
	require.NotEqual(t, -1, a)
	require.NotEqual(t, -1, b)
	assert.Less(t, b, a)
	assert.Contains(t, out, "<p>first</p>")
	assert.Contains(t, out, "<title>Blog</title>")
}

func TestLoadDirOverridesAndExtends(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post.html"), []byte(`CUSTOM {{.Title}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gallery.html"), []byte(`{{template "head" .}}GALLERY{{template "foot" .}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o600))

	r, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, r.LoadDir(dir))

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "post", testPage()))
	assert.Equal(t, "CUSTOM Hello", buf.String())

	buf.Reset()
	require.NoError(t, r.Render(&buf, "gallery", testPage()))
	assert.Contains(t, buf.String(), "GALLERY")
	assert.Contains(t, buf.String(), "<!DOCTYPE html>")

	_, _, fellBack := r.Lookup("notes")
	assert.True(t, fellBack)
}

func TestLoadDirPartialsOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.html"), []byte(`{{define "head"}}HEAD{{end}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.html"), []byte(`{{template "head" .}}ABOUT`), 0o600))

	r, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, r.LoadDir(dir))

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "about", testPage()))
	assert.Equal(t, "HEADABOUT", buf.String())
}

func TestLoadDirMissingIsNoop(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, r.LoadDir(filepath.Join(t.TempDir(), "absent")))
}

func TestLoadDirParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.html"), []byte(`{{if}}`), 0o600))

	r, err := NewRegistry()
	require.NoError(t, err)
	err = r.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestAbsURL(t *testing.T) {
	assert.Equal(t, "https://x.org/a/", AbsURL("https://x.org/", "/a/"))
	assert.Equal(t, "/a/", AbsURL("", "/a/"))
}
