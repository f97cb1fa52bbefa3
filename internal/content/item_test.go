package content

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RecognizedKeys(t *testing.T) {
	raw := []byte(`---
layout: post
title: "Hello, world"
date: 2024-01-02
img: /images/hello.png
tags: [go, blog, go]
series: intro
---
# Hello
`)
	it, err := Parse("posts/hello.md", raw)
	require.NoError(t, err)

	assert.Equal(t, "posts/hello.md", it.Path)
	assert.Equal(t, "Hello, world", it.Title())
	assert.Equal(t, "post", it.Layout())
	assert.Equal(t, "/images/hello.png", it.Image())
	assert.Equal(t, []string{"go", "blog"}, it.Tags())
	assert.Equal(t, "intro", it.Params()["series"])
	assert.NotContains(t, it.Params(), "title")
	assert.Equal(t, "# Hello\n", string(it.Body))
	assert.NotEmpty(t, it.Fingerprint)

	d, err := it.Date()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), d)
}

func TestParse_NoFrontMatter(t *testing.T) {
	it, err := Parse("notes.md", []byte("just text\n"))
	require.NoError(t, err)
	assert.Empty(t, it.FrontMatter)
	assert.Equal(t, "", it.Title())

	_, err = it.Listable()
	assert.ErrorIs(t, err, ErrMissingTitle)
}

func TestParse_MalformedFrontMatter(t *testing.T) {
	cases := map[string]string{
		"unclosed block": "---\ntitle: A\nbody\n",
		"bad yaml":       "---\ntitle: [A\n---\nbody\n",
		"not a mapping":  "---\n- a\n---\nbody\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("posts/bad.md", []byte(raw))
			var fmErr *FrontMatterParseError
			require.True(t, errors.As(err, &fmErr), "got %v", err)
			assert.Equal(t, "posts/bad.md", fmErr.Path)
			assert.Contains(t, err.Error(), "posts/bad.md")
		})
	}
}

func TestItem_Date(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
		err  error
	}{
		{"date: 2024-01-02\n", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), nil},
		{"date: \"2024-01-02 10:30:00\"\n", time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), nil},
		{"date: 2024-01-02T10:30:00Z\n", time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), nil},
		{"date: not-a-date\n", time.Time{}, ErrInvalidDate},
		{"date: 42\n", time.Time{}, ErrInvalidDate},
		{"title: x\n", time.Time{}, ErrMissingDate},
	}
	for _, tc := range cases {
		it, err := Parse("p.md", []byte("---\n"+tc.raw+"---\n"))
		require.NoError(t, err)
		got, err := it.Date()
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.True(t, tc.want.Equal(got), "%s: got %v", tc.raw, got)
	}
}

func TestItem_TagsFromString(t *testing.T) {
	it, err := Parse("p.md", []byte("---\ntags: \"go, web ,, go\"\n---\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web"}, it.Tags())
}

func TestItem_OutputPath(t *testing.T) {
	cases := map[string]string{
		"hello.md":            "hello/index.html",
		"posts/hello.md":      "posts/hello/index.html",
		"about/index.md":      "about/index.html",
		"2024/01/a.b.test.md": "2024/01/a.b.test/index.html",
	}
	for src, want := range cases {
		it := &Item{Path: src}
		assert.Equal(t, want, it.OutputPath(), src)
	}
	assert.Equal(t, "/posts/hello/", (&Item{Path: "posts/hello.md"}).Permalink())
}

func TestFingerprint_Deterministic(t *testing.T) {
	raw := []byte("---\ntitle: A\n---\nbody\n")
	a, err := Parse("a.md", raw)
	require.NoError(t, err)
	b, err := Parse("b.md", raw)
	require.NoError(t, err)
	c, err := Parse("c.md", []byte("---\ntitle: A\n---\nother\n"))
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}
