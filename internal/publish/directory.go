package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/site"
)

const (
	releasesDir = "releases"
	currentLink = "current"
	releaseID   = 16 // digest prefix length used as release directory name
)

// DirectoryTarget publishes into <root>/releases/<id> and atomically points
// the <root>/current symlink at the new release.
type DirectoryTarget struct {
	root string
	keep int
	now  func() time.Time
}

// NewDirectoryTarget returns a directory target keeping the newest keep releases.
func NewDirectoryTarget(root string, keep int) *DirectoryTarget {
	if keep < 1 {
		keep = 1
	}
	return &DirectoryTarget{root: root, keep: keep, now: time.Now}
}

func (t *DirectoryTarget) Name() string { return "directory" }

// Transfer extracts the bundle as a new release and swaps the current link
// with a rename, which readers observe as a single step.
func (t *DirectoryTarget) Transfer(ctx context.Context, _ *site.Artifact, b *Bundle) (*Receipt, error) {
	releases := filepath.Join(t.root, releasesDir)
	if err := os.MkdirAll(releases, 0o755); err != nil {
		return nil, fmt.Errorf("create releases dir: %w", err)
	}

	id := b.Digest
	if len(id) > releaseID {
		id = id[:releaseID]
	}
	release := filepath.Join(releases, id)
	if _, err := os.Stat(release); os.IsNotExist(err) {
		if err := t.extract(b, releases, release); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat release: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := t.now()
	if err := os.Chtimes(release, now, now); err != nil {
		return nil, fmt.Errorf("mark release: %w", err)
	}

	link := filepath.Join(t.root, currentLink)
	want := filepath.Join(releasesDir, id)
	tmpLink := filepath.Join(t.root, "."+currentLink+"-"+id)
	_ = os.Remove(tmpLink)
	if err := os.Symlink(want, tmpLink); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}
	if err := os.Rename(tmpLink, link); err != nil {
		_ = os.Remove(tmpLink)
		return nil, fmt.Errorf("swap current link: %w", err)
	}

	got, err := os.Readlink(link)
	if err != nil {
		return nil, fmt.Errorf("confirm current link: %w", err)
	}
	if got != want {
		return nil, fmt.Errorf("current link points at %s, expected %s", got, want)
	}

	t.prune(releases, id)
	return &Receipt{Location: link, Revision: id}, nil
}

func (t *DirectoryTarget) extract(b *Bundle, releases, release string) error {
	tmp, err := os.MkdirTemp(releases, ".incoming-*")
	if err != nil {
		return fmt.Errorf("create incoming dir: %w", err)
	}
	if err := ExtractBundle(b.Path, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("extract bundle: %w", err)
	}
	// MkdirTemp creates 0700
	if err := os.Chmod(tmp, 0o755); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("chmod release: %w", err)
	}
	if err := os.Rename(tmp, release); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("install release: %w", err)
	}
	return nil
}

// prune removes the oldest releases beyond keep. The live release always
// survives. Failures are logged only; the new version is already live.
func (t *DirectoryTarget) prune(releases, live string) {
	entries, err := os.ReadDir(releases)
	if err != nil {
		slog.Warn("Failed to list releases", logfields.Path(releases), logfields.Error(err))
		return
	}
	type rel struct {
		name string
		mod  time.Time
	}
	var all []rel
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || e.Name() == live {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		all = append(all, rel{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].mod.Equal(all[j].mod) {
			return all[i].mod.After(all[j].mod)
		}
		return all[i].name < all[j].name
	})
	// live counts toward keep
	for i := t.keep - 1; i < len(all); i++ {
		p := filepath.Join(releases, all[i].name)
		if err := os.RemoveAll(p); err != nil {
			slog.Warn("Failed to prune release", logfields.Path(p), logfields.Error(err))
			continue
		}
		slog.Debug("Pruned release", logfields.Path(p))
	}
}
