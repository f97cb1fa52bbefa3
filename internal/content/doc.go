// Package content discovers and parses the Content Items of a source tree.
//
// A Content Item is a Markdown file with an optional YAML front matter block.
// Items are immutable once parsed; every build re-reads them from disk.
package content
