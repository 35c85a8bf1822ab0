// Package config describes the configuration surface consumed by the
// fileserver: which backends serve each content tree, where remote
// sources point, and where the local cache lives.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultCacheRoot is where backends keep their cache slots unless
	// configured otherwise
	DefaultCacheRoot = "/var/cache/fsmirror"

	// DefaultWorkers bounds concurrent remote synchronizations within one backend
	DefaultWorkers = 4

	// DefaultTimeout bounds the synchronization of a single remote source
	DefaultTimeout = time.Minute

	// DefaultRef is the ref tracked when a remote entry does not name one
	DefaultRef = "master"
)

// Remote is one configured {url, ref} source mirrored by a
// version-controlled backend, with an optional credential reference
// (a path to a file holding "user:password", never the secret itself).
type Remote struct {
	URL        string `json:"url" yaml:"url" mapstructure:"url"`
	Ref        string `json:"ref" yaml:"ref" mapstructure:"ref"`
	Credential string `json:"credential,omitempty" yaml:"credential,omitempty" mapstructure:"credential"`
}

func (r Remote) String() string {
	return r.URL + "@" + r.Ref
}

// Tree holds the per-consumer settings: the ordered backend list plus
// the sources each backend draws from.
type Tree struct {
	Backends []string `json:"backends" yaml:"backends" mapstructure:"backends"`
	Roots    []string `json:"roots,omitempty" yaml:"roots,omitempty" mapstructure:"roots"`
	Remotes  []Remote `json:"remotes,omitempty" yaml:"remotes,omitempty" mapstructure:"remotes"`
}

// Config is the full fileserver configuration
type Config struct {
	CacheRoot string        `json:"cache_root" yaml:"cache_root" mapstructure:"cache_root"`
	Workers   int           `json:"workers,omitempty" yaml:"workers,omitempty" mapstructure:"workers"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	States    Tree          `json:"states" yaml:"states" mapstructure:"states"`
	Pillar    Tree          `json:"pillar" yaml:"pillar" mapstructure:"pillar"`
}

// ForConsumer returns the tree settings for a consumer name ("states" or "pillar")
func (c *Config) ForConsumer(name string) (Tree, bool) {
	switch name {
	case "states":
		return c.States, true
	case "pillar":
		return c.Pillar, true
	default:
		return Tree{}, false
	}
}

// Load decodes the configuration held by a viper instance.
//
// Remote entries may be written either as a {url, ref, credential} mapping or
// as a compact "url@ref" string.
func Load(v *viper.Viper) (*Config, error) {
	c := new(Config)
	err := v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		remoteFromString(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.CacheRoot == "" {
		c.CacheRoot = DefaultCacheRoot
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	for _, tree := range []*Tree{&c.States, &c.Pillar} {
		for i := range tree.Remotes {
			if tree.Remotes[i].Ref == "" {
				tree.Remotes[i].Ref = DefaultRef
			}
		}
	}
}

// remoteFromString decodes "url@ref" shorthand into a Remote.
// The split is on the last "@" so that user@host URLs survive.
func remoteFromString() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(Remote{}) {
			return data, nil
		}
		s := data.(string)
		if i := strings.LastIndex(s, "@"); i > 0 && !strings.ContainsAny(s[i+1:], ":/") {
			return Remote{URL: s[:i], Ref: s[i+1:]}, nil
		}
		return Remote{URL: s}, nil
	}
}
