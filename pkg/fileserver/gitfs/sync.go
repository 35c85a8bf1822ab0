package gitfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/fsmirror/fsmirror/pkg/config"
	"github.com/fsmirror/fsmirror/pkg/errors"
	"github.com/fsmirror/fsmirror/pkg/fileserver"
	"github.com/fsmirror/fsmirror/pkg/fileserver/status"
	"go.uber.org/zap"
)

// syncSource walks one source through its state machine for this cycle:
// missing slot → clone; existing slot → fetch, then fast-forward checkout
// when the remote moved. Every exit path is a terminal outcome and the
// source is eligible for another attempt next cycle.
func (b *Backend) syncSource(ctx context.Context, src config.Remote) fileserver.SyncOutcome {
	out := fileserver.SyncOutcome{Source: src.String()}
	dir := b.SlotDir(src)

	lock := b.slotLock(dir)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	auth, err := loadAuth(src)
	if err != nil {
		return b.failure(ctx, out, err)
	}

	repo, err := git.PlainOpen(dir)
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		return b.clone(ctx, dir, src, auth, out)
	case err != nil:
		return b.failure(ctx, out, err)
	}
	return b.advance(ctx, repo, dir, src, auth, out)
}

// clone is the Uncloned → Cloning → Cloned leg. A failed clone removes the
// partial slot so the next cycle starts from Uncloned again.
func (b *Backend) clone(ctx context.Context, dir string, src config.Remote, auth transport.AuthMethod, out fileserver.SyncOutcome) fileserver.SyncOutcome {
	if err := os.MkdirAll(filepath.Dir(dir), 0700); err != nil {
		return b.failure(ctx, out, err)
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  src.URL,
		Auth: auth,
		Tags: git.AllTags,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return b.failure(ctx, out, err)
	}
	target, err := resolveTarget(repo, src.Ref)
	if err != nil {
		_ = os.RemoveAll(dir)
		return b.failure(ctx, out, err)
	}
	if err = checkout(ctx, repo, target); err != nil {
		_ = os.RemoveAll(dir)
		return b.failure(ctx, out, err)
	}
	if err = publishRevision(dir, target.String()); err != nil {
		_ = os.RemoveAll(dir)
		return b.failure(ctx, out, err)
	}

	out.State = fileserver.Updated
	out.NewRev = target.String()
	b.l.Info("cloned remote source",
		zap.String("source", src.String()),
		zap.String("slot", dir),
		zap.String("rev", out.NewRev),
	)
	return out
}

// advance is the Cloned → Fetching → {Unchanged | FastForwarding → Updated
// | Failed} leg. A failure leaves the slot at its last published revision.
func (b *Backend) advance(ctx context.Context, repo *git.Repository, dir string, src config.Remote, auth transport.AuthMethod, out fileserver.SyncOutcome) fileserver.SyncOutcome {
	err := repo.FetchContext(ctx, &git.FetchOptions{
		Auth:  auth,
		Tags:  git.AllTags,
		Force: true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return b.failure(ctx, out, err)
	}

	head, err := repo.Head()
	if err != nil {
		return b.failure(ctx, out, err)
	}
	out.OldRev = head.Hash().String()

	target, err := resolveTarget(repo, src.Ref)
	if err != nil {
		return b.failure(ctx, out, err)
	}

	if head.Hash() == target {
		out.State = fileserver.Unchanged
		out.NewRev = target.String()
		return out
	}

	ff, err := isFastForward(repo, head.Hash(), target)
	if err != nil {
		return b.failure(ctx, out, err)
	}
	if !ff {
		return b.failure(ctx, out, status.ErrNonFastForward.Wrap(
			errors.New("remote "+src.String()+" no longer descends from "+out.OldRev)))
	}

	// last cancellation gate before touching the worktree: the checkout
	// itself must run to completion once started
	if err = ctx.Err(); err != nil {
		return b.failure(ctx, out, err)
	}
	if err = checkout(ctx, repo, target); err != nil {
		return b.failure(ctx, out, err)
	}
	if err = publishRevision(dir, target.String()); err != nil {
		return b.failure(ctx, out, err)
	}

	out.State = fileserver.Updated
	out.NewRev = target.String()
	b.l.Info("updated remote source",
		zap.String("source", src.String()),
		zap.String("slot", dir),
		zap.String("old_rev", out.OldRev),
		zap.String("new_rev", out.NewRev),
	)
	return out
}

func (b *Backend) failure(ctx context.Context, out fileserver.SyncOutcome, err error) fileserver.SyncOutcome {
	serr := toSentinelError(ctx, err)
	out.State = fileserver.Failed
	out.Err = serr
	out.Reason = reasonOf(serr)
	b.l.Warn("source synchronization failed",
		zap.String("source", out.Source),
		zap.String("reason", out.Reason),
		zap.Error(serr),
	)
	return out
}

func checkout(_ context.Context, repo *git.Repository, target plumbing.Hash) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	// the fast-forward gate already ran: Force here only clears stray
	// local writes in the cache, it cannot mask a history rewrite
	return wt.Checkout(&git.CheckoutOptions{Hash: target, Force: true})
}

// resolveTarget resolves a configured ref, which may be a remote branch, a
// tag, or a full commit hash, to the commit the slot should sit at.
func resolveTarget(repo *git.Repository, ref string) (plumbing.Hash, error) {
	if isCommitHash(ref) {
		return plumbing.NewHash(ref), nil
	}
	for _, rev := range []plumbing.Revision{
		plumbing.Revision("refs/remotes/origin/" + ref),
		plumbing.Revision("refs/tags/" + ref),
		plumbing.Revision(ref),
	} {
		if h, err := repo.ResolveRevision(rev); err == nil {
			return *h, nil
		}
	}
	return plumbing.ZeroHash, errors.New("ref " + ref + " not found on remote")
}

func isCommitHash(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, r := range ref {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

func isFastForward(repo *git.Repository, old, target plumbing.Hash) (bool, error) {
	oldCommit, err := repo.CommitObject(old)
	if err != nil {
		return false, err
	}
	newCommit, err := repo.CommitObject(target)
	if err != nil {
		return false, err
	}
	return oldCommit.IsAncestor(newCommit)
}

// toSentinelError maps transport, context and filesystem failures onto the
// status taxonomy
func toSentinelError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, status.ErrNonFastForward):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return status.ErrTimeout.Wrap(err)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return status.ErrCancelled.Wrap(err)
	case isFilesystemError(err):
		return status.ErrFilesystem.Wrap(err)
	default:
		return status.ErrNetwork.Wrap(err)
	}
}

func isFilesystemError(err error) bool {
	var pathErr *os.PathError
	var linkErr *os.LinkError
	return errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.Is(err, os.ErrPermission)
}

func reasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, status.ErrTimeout):
		return "timeout"
	case errors.Is(err, status.ErrCancelled):
		return "cancelled"
	case errors.Is(err, status.ErrNonFastForward):
		return "non-fast-forward"
	case errors.Is(err, status.ErrFilesystem):
		return "filesystem"
	case errors.Is(err, status.ErrNetwork):
		return "network"
	default:
		return "error"
	}
}

func loadAuth(src config.Remote) (transport.AuthMethod, error) {
	if src.Credential == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(src.Credential)
	if err != nil {
		return nil, err
	}
	user, pass, ok := strings.Cut(strings.TrimSpace(string(raw)), ":")
	if !ok {
		return nil, errors.New("credential reference " + src.Credential + " must hold user:password")
	}
	return &githttp.BasicAuth{Username: user, Password: pass}, nil
}
