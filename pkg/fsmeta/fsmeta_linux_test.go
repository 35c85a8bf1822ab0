//go:build linux

package fsmeta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStat(t *testing.T) {
	svc := New()
	dir := t.TempDir()
	file := filepath.Join(dir, "data.yaml")
	require.NoError(t, os.WriteFile(file, []byte("content"), 0640))

	info, err := svc.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, TypeFile, info.Type)
	assert.Equal(t, int64(len("content")), info.Size)
	assert.Equal(t, os.FileMode(0640), info.Mode)
	assert.False(t, info.Mtime.IsZero())
	assert.NotEmpty(t, info.Owner.User)
	assert.NotEmpty(t, info.Owner.Group)

	info, err = svc.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, TypeDir, info.Type)
}

func TestStatSymlink(t *testing.T) {
	svc := New()
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0600))
	require.NoError(t, os.Symlink(target, link))

	// stat does not follow symlinks
	info, err := svc.Stat(link)
	require.NoError(t, err)
	assert.Equal(t, TypeSymlink, info.Type)
}

func TestStatMissingPath(t *testing.T) {
	svc := New()
	_, err := svc.Stat(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestGetOwner(t *testing.T) {
	svc := New()
	file := filepath.Join(t.TempDir(), "owned")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	owner, err := svc.GetOwner(file)
	require.NoError(t, err)
	assert.NotEmpty(t, owner.User)
	assert.NotEmpty(t, owner.Group)
}

func TestSetOwnerKeepsCurrentWhenEmpty(t *testing.T) {
	svc := New()
	file := filepath.Join(t.TempDir(), "owned")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	before, err := svc.GetOwner(file)
	require.NoError(t, err)

	// empty user and group: chown(-1, -1), a no-op
	require.NoError(t, svc.SetOwner(file, "", ""))

	after, err := svc.GetOwner(file)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSetOwnerUnknownUser(t *testing.T) {
	svc := New()
	file := filepath.Join(t.TempDir(), "owned")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	require.Error(t, svc.SetOwner(file, "no-such-user-fsmirror", ""))
}
