package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/site"
)

// ArchiveTarget writes the bundle to a fixed file path. The file is replaced
// with a rename, so readers see either the old or the new bundle.
type ArchiveTarget struct {
	path string
}

// NewArchiveTarget returns a target writing to path.
func NewArchiveTarget(path string) *ArchiveTarget { return &ArchiveTarget{path: path} }

func (t *ArchiveTarget) Name() string { return "archive" }

func (t *ArchiveTarget) Transfer(_ context.Context, _ *site.Artifact, b *Bundle) (*Receipt, error) {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	tmp := t.path + ".tmp"
	if err := copyBundle(b.Path, tmp); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, t.path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("replace archive: %w", err)
	}
	info, err := os.Stat(t.path)
	if err != nil {
		return nil, fmt.Errorf("confirm archive: %w", err)
	}
	if info.Size() != b.Size {
		return nil, fmt.Errorf("archive size %d, expected %d", info.Size(), b.Size)
	}
	return &Receipt{Location: t.path, Revision: b.Digest}, nil
}

func copyBundle(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- bundle produced by CreateBundle
	if err != nil {
		return fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = in.Close() }()
	// #nosec G302 -- the archive is the published artifact
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	return out.Close()
}
