package gitfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"

	"github.com/fsmirror/fsmirror/pkg/config"
	"github.com/fsmirror/fsmirror/pkg/fileserver"
	"github.com/stretchr/testify/require"
)

// serve local fixture repositories in-process instead of exec'ing
// git-upload-pack, so the tests run without a git installation
func init() {
	client.InstallProtocol("file", server.DefaultServer)
}

// upstream is a throwaway git repository standing in for a remote
type upstream struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	return newUpstreamAt(t, t.TempDir())
}

func newUpstreamAt(t *testing.T, dir string) *upstream {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &upstream{t: t, dir: dir, repo: repo}
}

func (u *upstream) commit(name, content, msg string) string {
	u.t.Helper()
	wt, err := u.repo.Worktree()
	require.NoError(u.t, err)
	require.NoError(u.t, os.WriteFile(filepath.Join(u.dir, name), []byte(content), 0600))
	_, err = wt.Add(name)
	require.NoError(u.t, err)
	h, err := wt.Commit(msg, &git.CommitOptions{Author: testSignature()})
	require.NoError(u.t, err)
	return h.String()
}

func (u *upstream) tag(name, rev string) {
	u.t.Helper()
	_, err := u.repo.CreateTag(name, plumbing.NewHash(rev), nil)
	require.NoError(u.t, err)
}

// resetHard rewrites history back to rev, as an upstream force-push would
func (u *upstream) resetHard(rev string) {
	u.t.Helper()
	wt, err := u.repo.Worktree()
	require.NoError(u.t, err)
	require.NoError(u.t, wt.Reset(&git.ResetOptions{
		Commit: plumbing.NewHash(rev),
		Mode:   git.HardReset,
	}))
}

func testSignature() *object.Signature {
	return &object.Signature{
		Name:  "tester",
		Email: "tester@example.com",
		When:  time.Now(),
	}
}

// url points at the .git directory: the layout a remote endpoint serves
func (u *upstream) url() string {
	return filepath.Join(u.dir, ".git")
}

func remoteOf(u *upstream) config.Remote {
	return config.Remote{URL: u.url(), Ref: "master"}
}

func testBackend(t *testing.T, remotes ...config.Remote) *Backend {
	t.Helper()
	cfg := &config.Config{
		CacheRoot: t.TempDir(),
		Workers:   2,
		Timeout:   30 * time.Second,
		States:    config.Tree{Remotes: remotes},
	}
	return New(fileserver.States, cfg)
}

func slotFile(t *testing.T, b *Backend, src config.Remote, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(b.SlotDir(src), name))
	require.NoError(t, err)
	return string(raw)
}
