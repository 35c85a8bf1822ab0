package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromYAML(t *testing.T, doc string) *Config {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(doc)))
	c, err := Load(v)
	require.NoError(t, err)
	return c
}

func TestLoad(t *testing.T) {
	c := loadFromYAML(t, `
cache_root: /tmp/cache
workers: 2
timeout: 30s
states:
  backends: [roots, git]
  roots: [/srv/states]
  remotes:
    - url: https://example.com/states.git
      ref: main
pillar:
  backends: [git]
  remotes:
    - url: https://example.com/pillar.git
      credential: /etc/fsmirror/cred
`)
	assert.Equal(t, "/tmp/cache", c.CacheRoot)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, 30*time.Second, c.Timeout)

	states, ok := c.ForConsumer("states")
	require.True(t, ok)
	assert.Equal(t, []string{"roots", "git"}, states.Backends)
	assert.Equal(t, []string{"/srv/states"}, states.Roots)
	require.Len(t, states.Remotes, 1)
	assert.Equal(t, "main", states.Remotes[0].Ref)

	pillar, ok := c.ForConsumer("pillar")
	require.True(t, ok)
	require.Len(t, pillar.Remotes, 1)
	assert.Equal(t, DefaultRef, pillar.Remotes[0].Ref)
	assert.Equal(t, "/etc/fsmirror/cred", pillar.Remotes[0].Credential)

	_, ok = c.ForConsumer("grains")
	assert.False(t, ok)
}

func TestLoadDefaults(t *testing.T) {
	c := loadFromYAML(t, `
states:
  backends: [roots]
`)
	assert.Equal(t, DefaultCacheRoot, c.CacheRoot)
	assert.Equal(t, DefaultWorkers, c.Workers)
	assert.Equal(t, DefaultTimeout, c.Timeout)
}

func TestRemoteShorthand(t *testing.T) {
	c := loadFromYAML(t, `
pillar:
  backends: [git]
  remotes:
    - https://example.com/pillar.git@develop
    - git@example.com:ops/pillar.git
`)
	require.Len(t, c.Pillar.Remotes, 2)
	assert.Equal(t, "https://example.com/pillar.git", c.Pillar.Remotes[0].URL)
	assert.Equal(t, "develop", c.Pillar.Remotes[0].Ref)
	// scp-style URLs keep their "@" when no ref suffix is given
	assert.Equal(t, "git@example.com:ops/pillar.git", c.Pillar.Remotes[1].URL)
	assert.Equal(t, DefaultRef, c.Pillar.Remotes[1].Ref)
}
