package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/config"
)

// seedRemote creates a bare repository with one commit on main holding files.
func seedRemote(t *testing.T, files map[string]string) string {
	t.Helper()
	tmp := t.TempDir()
	barePath := filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(barePath, true)
	require.NoError(t, err)

	workPath := filepath.Join(tmp, "seed")
	repo, err := git.PlainInitWithOptions(workPath, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)
	_, err = repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}})
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	for rel, body := range files {
		p := filepath.Join(workPath, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err = wt.Commit("seed", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)
	require.NoError(t, repo.Push(&git.PushOptions{RemoteName: "origin"}))
	return barePath
}

func TestCloneCheckout(t *testing.T) {
	remote := seedRemote(t, map[string]string{"content/hello.md": "# hi"})
	c := NewClient(t.TempDir())

	co, err := c.Clone(context.Background(), "source", config.RepositoryConfig{URL: remote, Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, "main", co.Branch)
	assert.Len(t, co.Commit, 40)

	data, err := os.ReadFile(filepath.Join(co.Path, "content", "hello.md"))
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))

	// a second clone replaces the first
	co2, err := c.Clone(context.Background(), "source", config.RepositoryConfig{URL: remote, Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, co.Commit, co2.Commit)
}

func TestCloneMissingBranch(t *testing.T) {
	remote := seedRemote(t, map[string]string{"a.md": "x"})
	c := NewClient(t.TempDir())
	_, err := c.Clone(context.Background(), "source", config.RepositoryConfig{URL: remote, Branch: "nope"})
	require.Error(t, err)
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return dir
}

func TestPushTreeReplacesBranch(t *testing.T) {
	tmp := t.TempDir()
	bare := filepath.Join(tmp, "pages.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	c := NewClient(t.TempDir())
	req := PushRequest{
		URL:         bare,
		Branch:      "gh-pages",
		Message:     "Publish site",
		AuthorName:  "sitepipe",
		AuthorEmail: "sitepipe@localhost",
	}

	req.Dir = writeSite(t, map[string]string{"index.html": "v1", "old.html": "gone soon"})
	first, err := c.PushTree(context.Background(), req)
	require.NoError(t, err)

	req.Dir = writeSite(t, map[string]string{"index.html": "v2", "posts/a/index.html": "a"})
	second, err := c.PushTree(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	repo, err := git.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	assert.Equal(t, second, ref.Hash().String())

	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, 0, commit.NumParents(), "publish commits are parentless")
	assert.Equal(t, "Publish site", commit.Message)

	tree, err := commit.Tree()
	require.NoError(t, err)
	f, err := tree.File("index.html")
	require.NoError(t, err)
	body, err := f.Contents()
	require.NoError(t, err)
	assert.Equal(t, "v2", body)
	_, err = tree.File("old.html")
	assert.Error(t, err)
	_, err = tree.File("posts/a/index.html")
	assert.NoError(t, err)
}

func TestPushTreeUnreachableRemote(t *testing.T) {
	c := NewClient(t.TempDir())
	_, err := c.PushTree(context.Background(), PushRequest{
		Dir:         writeSite(t, map[string]string{"index.html": "x"}),
		URL:         filepath.Join(t.TempDir(), "does-not-exist.git"),
		Branch:      "gh-pages",
		Message:     "m",
		AuthorName:  "a",
		AuthorEmail: "a@b",
	})
	require.Error(t, err)
}

func TestAuth(t *testing.T) {
	a, err := Auth(nil)
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = Auth(&config.AuthConfig{Type: config.AuthNone})
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = Auth(&config.AuthConfig{Type: config.AuthToken, Token: "secret"})
	require.NoError(t, err)
	basic, ok := a.(*http.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "token", basic.Username)
	assert.Equal(t, "secret", basic.Password)

	a, err = Auth(&config.AuthConfig{Type: config.AuthBasic, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, &http.BasicAuth{Username: "u", Password: "p"}, a)

	for _, bad := range []*config.AuthConfig{
		{Type: config.AuthToken},
		{Type: config.AuthBasic, Username: "u"},
		{Type: config.AuthSSH, KeyPath: filepath.Join(t.TempDir(), "missing")},
		{Type: "kerberos"},
	} {
		_, err := Auth(bad)
		var ae *AuthError
		assert.True(t, errors.As(err, &ae), "type %s: %v", bad.Type, err)
	}
}

func TestClassifyRemoteError(t *testing.T) {
	var ae *AuthError
	assert.True(t, errors.As(classifyRemoteError("push", "u", errors.New("authentication required")), &ae))
	var nf *NotFoundError
	assert.True(t, errors.As(classifyRemoteError("clone", "u", errors.New("repository not found")), &nf))
	var to *NetworkTimeoutError
	assert.True(t, errors.As(classifyRemoteError("clone", "u", errors.New("dial tcp: i/o timeout")), &to))
	plain := errors.New("boom")
	assert.ErrorIs(t, classifyRemoteError("push", "u", plain), plain)
	assert.NoError(t, classifyRemoteError("push", "u", nil))
}
