package publish

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// epoch is stamped on every bundle entry so identical trees give identical bundles.
var epoch = time.Unix(0, 0).UTC()

// Bundle is a packaged artifact.
type Bundle struct {
	Path   string // tar.gz file
	Digest string // hex SHA-256 of the bundle bytes
	Size   int64
	Files  int
}

// CreateBundle writes dir as a gzip-compressed tarball to dst. Entries are
// sorted, owners cleared and timestamps fixed, so the same tree always
// yields the same bytes.
func CreateBundle(dir, dst string) (*Bundle, error) {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304 -- caller chosen path
	if err != nil {
		return nil, fmt.Errorf("create bundle: %w", err)
	}
	h := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(f, h)}

	gz, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	files := 0
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)
		switch {
		case d.IsDir():
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     0o755,
				ModTime:  epoch,
			})
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeReg,
				Name:     name,
				Mode:     0o644,
				Size:     info.Size(),
				ModTime:  epoch,
			}); err != nil {
				return err
			}
			src, err := os.Open(p) // #nosec G304 -- walking the artifact
			if err != nil {
				return err
			}
			_, err = io.Copy(tw, src)
			_ = src.Close()
			if err != nil {
				return err
			}
			files++
		}
		return nil
	})

	closeErr := errors.Join(tw.Close(), gz.Close(), f.Close())
	if walkErr != nil {
		return nil, fmt.Errorf("write bundle: %w", walkErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("finish bundle: %w", closeErr)
	}
	return &Bundle{
		Path:   dst,
		Digest: hex.EncodeToString(h.Sum(nil)),
		Size:   counter.n,
		Files:  files,
	}, nil
}

// ExtractBundle unpacks a bundle into dst. Entries escaping dst are rejected.
func ExtractBundle(bundlePath, dst string) error {
	f, err := os.Open(bundlePath) // #nosec G304 -- bundle produced by CreateBundle
	if err != nil {
		return fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		clean := path.Clean(hdr.Name)
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("bundle entry %q escapes destination", hdr.Name)
		}
		target := filepath.Join(dst, filepath.FromSlash(clean))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			// #nosec G302 -- published site content
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			// #nosec G110 -- bundle size is bounded by the artifact we built
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
