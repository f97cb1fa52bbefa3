package publish

import (
	"archive/tar"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/site"
)

func artifact(t *testing.T, files map[string]string) *site.Artifact {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return &site.Artifact{Dir: dir}
}

type fakeTarget struct {
	calls int
	err   error
}

func (f *fakeTarget) Name() string { return "fake" }

func (f *fakeTarget) Transfer(_ context.Context, _ *site.Artifact, b *Bundle) (*Receipt, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Receipt{Location: "mem", Revision: b.Digest}, nil
}

func TestPublishEmptyArtifactFailsClosed(t *testing.T) {
	cases := map[string]*site.Artifact{
		"nil":         nil,
		"no dir":      {},
		"missing dir": {Dir: filepath.Join(t.TempDir(), "absent")},
		"empty dir":   {Dir: t.TempDir()},
	}
	withSubdir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(withSubdir, "a", "b"), 0o750))
	cases["only dirs"] = &site.Artifact{Dir: withSubdir}

	for name, art := range cases {
		t.Run(name, func(t *testing.T) {
			ft := &fakeTarget{}
			p := New(ft, t.TempDir())
			res, err := p.Publish(context.Background(), art)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrEmptyArtifact), "got %v", err)
			assert.Equal(t, derrors.CategoryPublish, derrors.GetCategory(err))
			assert.Equal(t, 0, ft.calls)
		})
	}
}

func TestPublishTransferError(t *testing.T) {
	ft := &fakeTarget{err: errors.New("connection reset")}
	p := New(ft, t.TempDir())

	_, err := p.Publish(context.Background(), artifact(t, map[string]string{"index.html": "x"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransfer))
	assert.Equal(t, 1, ft.calls, "no retry")
	assert.Equal(t, derrors.ExitExternal, derrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestPublishResult(t *testing.T) {
	ft := &fakeTarget{}
	work := t.TempDir()
	p := New(ft, work)

	res, err := p.Publish(context.Background(), artifact(t, map[string]string{"index.html": "x", "a/b.css": "y"}))
	require.NoError(t, err)
	assert.Equal(t, "fake", res.Target)
	assert.Equal(t, 2, res.Files)
	assert.Len(t, res.Digest, 64)
	assert.Equal(t, res.Digest, res.Revision)

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "bundle scratch dir should be removed")
}

func TestBundleDeterministicAndRoundTrip(t *testing.T) {
	files := map[string]string{
		"index.html":         "<h1>home</h1>",
		"posts/a/index.html": "a",
		"img/x.png":          "\x89PNG\x00",
	}
	a := artifact(t, files)
	b := artifact(t, files)
	tmp := t.TempDir()

	b1, err := CreateBundle(a.Dir, filepath.Join(tmp, "1.tar.gz"))
	require.NoError(t, err)
	b2, err := CreateBundle(b.Dir, filepath.Join(tmp, "2.tar.gz"))
	require.NoError(t, err)
	assert.Equal(t, b1.Digest, b2.Digest)
	assert.Equal(t, 3, b1.Files)

	info, err := os.Stat(b1.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), b1.Size)

	out := filepath.Join(tmp, "out")
	require.NoError(t, ExtractBundle(b1.Path, out))
	for rel, body := range files {
		got, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
		require.NoError(t, err)
		assert.Equal(t, body, string(got))
	}
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	tmp := t.TempDir()
	evil := filepath.Join(tmp, "evil.tar.gz")
	f, err := os.Create(evil)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../escape.txt", Mode: 0o644, Size: 1, Typeflag: tar.TypeReg}))
	_, err = tw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	err = ExtractBundle(evil, filepath.Join(tmp, "out"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(tmp, "escape.txt"))
}

func TestDirectoryTargetSwapsAndPrunes(t *testing.T) {
	root := t.TempDir()
	p := New(NewDirectoryTarget(root, 2), t.TempDir())
	ctx := context.Background()

	var revisions []string
	for _, body := range []string{"v1", "v2", "v3"} {
		res, err := p.Publish(ctx, artifact(t, map[string]string{"index.html": body}))
		require.NoError(t, err)
		revisions = append(revisions, res.Revision)

		live, err := os.ReadFile(filepath.Join(root, "current", "index.html"))
		require.NoError(t, err)
		assert.Equal(t, body, string(live))
	}

	entries, err := os.ReadDir(filepath.Join(root, releasesDir))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, revisions[1:], names, "keep=2 retains the two newest releases")

	link, err := os.Readlink(filepath.Join(root, "current"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(releasesDir, revisions[2]), link)
}

func TestDirectoryTargetFailureKeepsLiveVersion(t *testing.T) {
	root := t.TempDir()
	target := NewDirectoryTarget(root, 3)
	p := New(target, t.TempDir())

	_, err := p.Publish(context.Background(), artifact(t, map[string]string{"index.html": "live"}))
	require.NoError(t, err)

	broken := &Bundle{Path: filepath.Join(t.TempDir(), "missing.tar.gz"), Digest: "deadbeefdeadbeefdeadbeef"}
	_, err = target.Transfer(context.Background(), nil, broken)
	require.Error(t, err)

	live, err := os.ReadFile(filepath.Join(root, "current", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "live", string(live))
	assert.NoDirExists(t, filepath.Join(root, releasesDir, "deadbeefdeadbeef"))
}

func TestDirectoryTargetRepublishSameArtifact(t *testing.T) {
	root := t.TempDir()
	p := New(NewDirectoryTarget(root, 3), t.TempDir())
	files := map[string]string{"index.html": "same"}

	r1, err := p.Publish(context.Background(), artifact(t, files))
	require.NoError(t, err)
	r2, err := p.Publish(context.Background(), artifact(t, files))
	require.NoError(t, err)
	assert.Equal(t, r1.Revision, r2.Revision)
}

func TestArchiveTarget(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "site.tar.gz")
	p := New(NewArchiveTarget(dest), t.TempDir())

	res, err := p.Publish(context.Background(), artifact(t, map[string]string{"index.html": "hello"}))
	require.NoError(t, err)
	assert.Equal(t, dest, res.Location)
	assert.NoFileExists(t, dest+".tmp")

	out := t.TempDir()
	require.NoError(t, ExtractBundle(dest, out))
	body, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestGitTarget(t *testing.T) {
	bare := filepath.Join(t.TempDir(), "pages.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	cfg := config.PublishConfig{
		Target: config.TargetGit,
		Git: config.GitTarget{
			URL:         bare,
			Branch:      "gh-pages",
			Message:     "Publish site",
			AuthorName:  "sitepipe",
			AuthorEmail: "sitepipe@localhost",
		},
	}
	p, err := NewFromConfig(cfg, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "git", p.TargetName())

	res, err := p.Publish(context.Background(), artifact(t, map[string]string{"index.html": "pages"}))
	require.NoError(t, err)

	repo, err := git.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	assert.Equal(t, ref.Hash().String(), res.Revision)
}

func TestNewFromConfig(t *testing.T) {
	p, err := NewFromConfig(config.PublishConfig{Target: config.TargetDirectory, Directory: config.DirectoryTarget{Root: t.TempDir(), Keep: 2}}, "")
	require.NoError(t, err)
	assert.Equal(t, "directory", p.TargetName())

	p, err = NewFromConfig(config.PublishConfig{Target: config.TargetArchive, Archive: config.ArchiveTarget{Path: "x.tar.gz"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "archive", p.TargetName())

	_, err = NewFromConfig(config.PublishConfig{}, "")
	assert.Equal(t, derrors.CategoryConfig, derrors.GetCategory(err))
	_, err = NewFromConfig(config.PublishConfig{Target: "ftp"}, "")
	assert.Equal(t, derrors.CategoryConfig, derrors.GetCategory(err))
}
