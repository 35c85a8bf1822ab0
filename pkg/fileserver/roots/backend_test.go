package roots

import (
	"context"
	"testing"

	"github.com/fsmirror/fsmirror/pkg/config"
	"github.com/fsmirror/fsmirror/pkg/errors"
	"github.com/fsmirror/fsmirror/pkg/fileserver"
	"github.com/fsmirror/fsmirror/pkg/fileserver/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackend(t *testing.T, paths ...string) (*Backend, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	cfg := &config.Config{States: config.Tree{Roots: paths}}
	return New(fileserver.States, cfg, Filesystem(fs)), fs
}

func TestIsAvailable(t *testing.T) {
	b, fs := testBackend(t, "/srv/states")
	require.NoError(t, fs.MkdirAll("/srv/states", 0755))

	assert.NoError(t, b.IsAvailable(context.Background(), fileserver.States))
}

func TestIsAvailableMissingRoot(t *testing.T) {
	b, _ := testBackend(t, "/srv/states")

	err := b.IsAvailable(context.Background(), fileserver.States)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnavailable))
}

func TestIsAvailableRootIsAFile(t *testing.T) {
	b, fs := testBackend(t, "/srv/states")
	require.NoError(t, afero.WriteFile(fs, "/srv/states", []byte("not a dir"), 0644))

	err := b.IsAvailable(context.Background(), fileserver.States)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnavailable))
}

func TestIsAvailableNoRootsConfigured(t *testing.T) {
	b, _ := testBackend(t)

	err := b.IsAvailable(context.Background(), fileserver.States)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnavailable))
}

func TestSynchronizeIsANoop(t *testing.T) {
	b, fs := testBackend(t, "/srv/states", "/srv/formulas")
	require.NoError(t, fs.MkdirAll("/srv/states", 0755))
	require.NoError(t, fs.MkdirAll("/srv/formulas", 0755))

	outcomes, err := b.Synchronize(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "/srv/states", outcomes[0].Source)
	assert.Equal(t, "/srv/formulas", outcomes[1].Source)
	for _, o := range outcomes {
		assert.Equal(t, fileserver.Unchanged, o.State)
	}

	// no mirroring happened: synchronization is reading in place
	again, err := b.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, outcomes, again)
}

func TestString(t *testing.T) {
	b, _ := testBackend(t, "/srv/states", "/srv/formulas")
	assert.Equal(t, "roots@/srv/states,/srv/formulas", b.String())
}
