// Package site builds the static site artifact from a content source tree.
//
// A build walks the source root, parses every content file, renders pages
// through the layout registry, derives the date-ordered site index, tag pages
// and feeds, and copies static assets. Output is written to a staging
// directory next to the output directory and promoted only when the build
// succeeds, so the output directory always holds a complete artifact.
package site
