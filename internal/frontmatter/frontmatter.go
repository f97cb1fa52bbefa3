// Package frontmatter splits YAML front matter from a Markdown document.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a front matter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a content file split into its metadata block and body.
type Document struct {
	FrontMatter    []byte // raw YAML without delimiters
	Body           []byte
	HasFrontMatter bool
}

// Split separates a `---` delimited YAML block from the body. The block must
// start on the first line; the closing delimiter is `---` or `...` on a line
// of its own. A document without an opening delimiter is returned whole as
// the body.
func Split(content []byte) (Document, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	first, rest, ok := cutLine(content)
	if !ok && len(first) == 0 {
		return Document{Body: content}, nil
	}
	if !isDelimiter(first, false) {
		return Document{Body: content}, nil
	}

	offset := len(content) - len(rest)
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if isDelimiter(line, true) {
			fmEnd := len(content) - len(rest)
			bodyStart := len(content) - len(next)
			return Document{
				FrontMatter:    content[offset:fmEnd],
				Body:           content[bodyStart:],
				HasFrontMatter: true,
			}, nil
		}
		rest = next
	}
	return Document{}, ErrMissingClosingDelimiter
}

// ParseYAML decodes a raw front matter block into a map. An empty block yields
// an empty, non-nil map. A block that is valid YAML but not a mapping is an error.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return map[string]any{}, nil
	}
	if kind := node.Content[0].Kind; kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter must be a mapping of keys to values, got %s", kindName(kind))
	}

	fields := map[string]any{}
	if err := node.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// cutLine returns the first line (without its line ending) and the remainder.
// ok is false when content has no newline.
func cutLine(content []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(content, '\n')
	if i < 0 {
		return bytes.TrimSuffix(content, []byte("\r")), nil, false
	}
	return bytes.TrimSuffix(content[:i], []byte("\r")), content[i+1:], true
}

func isDelimiter(line []byte, closing bool) bool {
	line = bytes.TrimRight(line, " \t")
	if bytes.Equal(line, []byte("---")) {
		return true
	}
	return closing && bytes.Equal(line, []byte("..."))
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unsupported node"
	}
}
