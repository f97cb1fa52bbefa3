package content

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Tree is the result of walking a source root.
type Tree struct {
	Root    string
	Content []string // content files, slash separated, relative to Root, sorted
	Assets  []string // every other published file, same form
}

// Discover walks root and classifies every regular file by extension. VCS
// metadata directories and anything under one of the exclude directories
// (layouts, build output) are skipped. Dotfiles and names starting with "_"
// are published like any other file.
func Discover(root, ext string, exclude ...string) (*Tree, error) {
	excluded := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		if abs, err := filepath.Abs(e); err == nil {
			excluded[abs] = struct{}{}
		}
	}

	tree := &Tree{Root: root}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if d.IsDir() {
			if IsVCSDir(d.Name()) {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(p); err == nil {
				if _, skip := excluded[abs]; skip {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.EqualFold(filepath.Ext(d.Name()), ext) {
			tree.Content = append(tree.Content, rel)
		} else {
			tree.Assets = append(tree.Assets, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	SortPaths(tree.Content)
	SortPaths(tree.Assets)
	return tree, nil
}

var vcsDirs = map[string]struct{}{".git": {}, ".hg": {}, ".svn": {}, ".bzr": {}}

// IsVCSDir reports whether name is a version control metadata directory.
func IsVCSDir(name string) bool {
	_, ok := vcsDirs[name]
	return ok
}
