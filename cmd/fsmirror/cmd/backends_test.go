package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheRootOwnership(t *testing.T) {
	dir := t.TempDir()

	line, ok := cacheRootOwnership(dir)
	if ok {
		assert.Contains(t, line, dir)
		assert.Contains(t, line, "owned by")
	}

	// a missing cache root has no owner to report
	_, ok = cacheRootOwnership(filepath.Join(dir, "missing"))
	assert.False(t, ok)
}
