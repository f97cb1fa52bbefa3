package content

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitepipe/internal/frontmatter"
)

// Recognized front matter keys. Any other key is preserved for templates.
const (
	KeyLayout      = "layout"
	KeyTitle       = "title"
	KeyDate        = "date"
	KeyImage       = "img"
	KeyTags        = "tags"
	KeyDescription = "description"
)

var (
	ErrMissingDate  = errors.New("date is missing")
	ErrInvalidDate  = errors.New("date is not a calendar date")
	ErrMissingTitle = errors.New("title is missing")
)

// FrontMatterParseError reports a malformed metadata block in one file.
type FrontMatterParseError struct {
	Path string
	Err  error
}

func (e *FrontMatterParseError) Error() string {
	return fmt.Sprintf("front matter of %s: %v", e.Path, e.Err)
}

func (e *FrontMatterParseError) Unwrap() error { return e.Err }

// Item is a single content document.
type Item struct {
	Path        string         // source path relative to the source root, slash separated
	FrontMatter map[string]any // every declared key, recognized or not
	Body        []byte         // raw Markdown
	Fingerprint string         // mdfp fingerprint of front matter and body
}

// Parse builds an Item from raw file bytes. A malformed front matter block
// yields a *FrontMatterParseError naming relPath.
func Parse(relPath string, raw []byte) (*Item, error) {
	doc, err := frontmatter.Split(raw)
	if err != nil {
		return nil, &FrontMatterParseError{Path: relPath, Err: err}
	}
	fields, err := frontmatter.ParseYAML(doc.FrontMatter)
	if err != nil {
		return nil, &FrontMatterParseError{Path: relPath, Err: err}
	}

	return &Item{
		Path:        relPath,
		FrontMatter: fields,
		Body:        doc.Body,
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSpace(string(doc.FrontMatter)), string(doc.Body)),
	}, nil
}

// Title returns the trimmed title, or "".
func (it *Item) Title() string { return it.stringField(KeyTitle) }

// Layout returns the requested layout name, or "" for the default.
func (it *Item) Layout() string { return it.stringField(KeyLayout) }

// Image returns the img asset reference, or "".
func (it *Item) Image() string { return it.stringField(KeyImage) }

// Description returns the description, or "".
func (it *Item) Description() string { return it.stringField(KeyDescription) }

// Date parses the date key.
func (it *Item) Date() (time.Time, error) {
	v, ok := it.FrontMatter[KeyDate]
	if !ok || v == nil {
		return time.Time{}, ErrMissingDate
	}
	return ParseDate(v)
}

// Listable reports whether the item belongs in the site index, and why not.
func (it *Item) Listable() (time.Time, error) {
	if it.Title() == "" {
		return time.Time{}, ErrMissingTitle
	}
	return it.Date()
}

// Tags returns the tags as declared. A YAML list and a comma separated string
// are both accepted; blanks and duplicates are dropped.
func (it *Item) Tags() []string {
	var raw []string
	switch v := it.FrontMatter[KeyTags].(type) {
	case []any:
		for _, t := range v {
			if t != nil {
				raw = append(raw, fmt.Sprint(t))
			}
		}
	case []string:
		raw = v
	case string:
		raw = strings.Split(v, ",")
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

// Params returns the front matter keys that the pipeline does not interpret.
func (it *Item) Params() map[string]any {
	out := make(map[string]any)
	for k, v := range it.FrontMatter {
		switch k {
		case KeyLayout, KeyTitle, KeyDate, KeyImage, KeyTags:
			continue
		}
		out[k] = v
	}
	return out
}

// OutputPath derives the artifact path for the item: "posts/hello.md" becomes
// "posts/hello/index.html" and "about/index.md" becomes "about/index.html".
func (it *Item) OutputPath() string {
	dir, file := path.Split(it.Path)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if strings.EqualFold(stem, "index") {
		return path.Join(dir, "index.html")
	}
	return path.Join(dir, stem, "index.html")
}

// Permalink is the site-relative URL of the item's output page.
func (it *Item) Permalink() string {
	out := it.OutputPath()
	return "/" + strings.TrimSuffix(out, "index.html")
}

func (it *Item) stringField(key string) string {
	switch v := it.FrontMatter[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// SortPaths sorts relative paths in place, for deterministic iteration.
func SortPaths(paths []string) { sort.Strings(paths) }
