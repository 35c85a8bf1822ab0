// Package backends wires the stock backend implementations into a factory
// set consumable by a fileserver registry. It exists so that the registry
// package does not import its own implementations.
package backends

import (
	"github.com/fsmirror/fsmirror/pkg/fileserver"
	"github.com/fsmirror/fsmirror/pkg/fileserver/gitfs"
	"github.com/fsmirror/fsmirror/pkg/fileserver/roots"
)

// Factories returns the stock factory set, keyed by canonical backend name
func Factories() map[string]fileserver.Factory {
	return map[string]fileserver.Factory{
		"roots": roots.Factory,
		"git":   gitfs.Factory,
	}
}
