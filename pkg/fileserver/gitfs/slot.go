package gitfs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsmirror/fsmirror/pkg/config"
	"golang.org/x/crypto/blake2b"
)

// revMarkerName is the per-slot file recording the last published revision.
// It is written staged-then-renamed, so a reader either sees the previous
// revision or the new one, never a torn write.
const revMarkerName = ".fsmirror-rev"

// SlotDir returns the cache slot owned by a remote source. The name is a
// stable function of {url, ref}: re-running after a process restart resumes
// from the existing clone instead of re-cloning.
func (b *Backend) SlotDir(src config.Remote) string {
	return filepath.Join(b.cacheDir, slotID(src))
}

func slotID(src config.Remote) string {
	sum := blake2b.Sum256([]byte(src.URL + "\n" + src.Ref))
	return fmt.Sprintf("%s-%x", sanitize(path.Base(strings.TrimSuffix(src.URL, ".git"))), sum[:8])
}

func sanitize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, s)
	mapped = strings.Trim(mapped, "-.")
	if mapped == "" {
		return "remote"
	}
	return mapped
}

// slotLock serializes synchronization of one slot across overlapping
// update cycles. Distinct slots synchronize freely in parallel.
func (b *Backend) slotLock(dir string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[dir]
	if !ok {
		lock = new(sync.Mutex)
		b.locks[dir] = lock
	}
	return lock
}

func publishRevision(dir, rev string) error {
	staged, err := os.CreateTemp(dir, revMarkerName+".*")
	if err != nil {
		return err
	}
	if _, err = staged.WriteString(rev + "\n"); err != nil {
		_ = staged.Close()
		_ = os.Remove(staged.Name())
		return err
	}
	if err = staged.Close(); err != nil {
		_ = os.Remove(staged.Name())
		return err
	}
	return os.Rename(staged.Name(), filepath.Join(dir, revMarkerName))
}

// PublishedRevision reads the revision last published for a slot. Readers
// of the cache should trust this over HEAD: it only moves after a checkout
// fully completed.
func PublishedRevision(dir string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, revMarkerName))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
