package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitepipe/internal/content"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

// SourceWatcher watches a content tree recursively and enqueues a debounced
// run after changes settle.
type SourceWatcher struct {
	root     string
	ignore   []string // absolute paths whose subtrees are not watched
	watcher  *fsnotify.Watcher
	debounce *debouncer
}

// NewSourceWatcher creates a watcher for root. Changes under any of the
// ignore directories (the build output and its staging siblings) are skipped
// so that builds do not retrigger themselves.
func NewSourceWatcher(root string, debounce time.Duration, q *Queue, ignore ...string) (*SourceWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	sw := &SourceWatcher{root: abs, watcher: w}
	for _, dir := range ignore {
		if a, aerr := filepath.Abs(dir); aerr == nil {
			sw.ignore = append(sw.ignore, a)
		}
	}
	sw.debounce = newDebouncer(debounce, func(detail string) {
		q.Enqueue(pipeline.Trigger{Source: pipeline.TriggerFSNotify, Detail: detail})
	})
	return sw, nil
}

// Start adds the tree to the watcher and processes events until ctx is done.
func (sw *SourceWatcher) Start(ctx context.Context) error {
	if err := sw.addTree(sw.root); err != nil {
		_ = sw.watcher.Close()
		return err
	}
	slog.Info("Watching source tree", logfields.Path(sw.root))
	go sw.debounce.stopOnDone(ctx)
	go sw.loop(ctx)
	return nil
}

func (sw *SourceWatcher) loop(ctx context.Context) {
	defer func() { _ = sw.watcher.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handle(ev)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Source watcher error", logfields.Error(err))
		}
	}
}

func (sw *SourceWatcher) handle(ev fsnotify.Event) {
	if sw.skip(ev.Name) || ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := sw.addTree(ev.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}
	rel, err := filepath.Rel(sw.root, ev.Name)
	if err != nil {
		rel = ev.Name
	}
	slog.Debug("Source change detected", logfields.File(filepath.ToSlash(rel)), "op", ev.Op.String())
	sw.debounce.touch(filepath.ToSlash(rel))
}

// skip reports whether path is inside an ignored or VCS directory, or is an
// editor temp file.
func (sw *SourceWatcher) skip(path string) bool {
	for _, dir := range sw.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	rel, err := filepath.Rel(sw.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if content.IsVCSDir(part) {
			return true
		}
	}
	return isEditorTemp(filepath.Base(path))
}

func isEditorTemp(name string) bool {
	switch {
	case strings.HasPrefix(name, ".#"), strings.HasSuffix(name, "~"):
		return true
	case strings.HasPrefix(name, ".") && (strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".swx")):
		return true
	}
	return false
}

func (sw *SourceWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != sw.root && sw.skip(path) {
			return filepath.SkipDir
		}
		if err := sw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
