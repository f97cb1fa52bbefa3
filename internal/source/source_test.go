package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/testutil"
)

func seedContentRepo(t *testing.T) string {
	return testutil.SeedBareRepo(t, "main", map[string]string{
		"blog/a.md": testutil.Post("A", "", ""),
	})
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(config.SourceConfig{Directory: dir}, "", false)
	snap, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, snap.Root)
	assert.Empty(t, snap.Commit)
	assert.NoError(t, snap.Release())
}

func TestResolveRepository(t *testing.T) {
	bare := seedContentRepo(t)
	base := t.TempDir()
	r := NewResolver(config.SourceConfig{
		Directory:  "blog",
		Repository: &config.RepositoryConfig{URL: bare, Branch: "main"},
	}, base, false)

	snap, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(snap.Root, "a.md"))
	assert.Len(t, snap.Commit, 40)
	assert.Equal(t, "main", snap.Branch)

	require.NoError(t, snap.Release())
	assert.NoDirExists(t, snap.Root)
}

func TestResolvePersistentRepository(t *testing.T) {
	bare := seedContentRepo(t)
	base := t.TempDir()
	r := NewResolver(config.SourceConfig{
		Directory:  "blog",
		Repository: &config.RepositoryConfig{URL: bare, Branch: "main"},
	}, base, true)

	for i := 0; i < 2; i++ {
		snap, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "sitepipe-source", "repo", "blog"), snap.Root)
		require.NoError(t, snap.Release())
		assert.DirExists(t, snap.Root)
	}
}

func TestResolveCloneFailure(t *testing.T) {
	r := NewResolver(config.SourceConfig{
		Directory:  ".",
		Repository: &config.RepositoryConfig{URL: filepath.Join(t.TempDir(), "missing.git"), Branch: "main"},
	}, t.TempDir(), false)

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, derrors.CategoryGit, derrors.GetCategory(err))
}
