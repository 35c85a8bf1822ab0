// Package fsmeta exposes file ownership and metadata queries behind a
// uniform, platform-neutral result shape. The synchronization core never
// calls OS-specific security APIs directly; it consumes this boundary.
package fsmeta

import (
	"os"
	"time"

	"github.com/fsmirror/fsmirror/pkg/errors"
)

// ErrNotSupported is returned on platforms without an implementation
var ErrNotSupported = errors.New("fsmeta is not supported on this platform")

// FileType classifies a path
type FileType string

const (
	// TypeFile is a regular file
	TypeFile FileType = "file"

	// TypeDir is a directory
	TypeDir FileType = "dir"

	// TypeSymlink is a symbolic link
	TypeSymlink FileType = "link"

	// TypeOther covers sockets, devices and the rest
	TypeOther FileType = "other"
)

// Owner of a path
type Owner struct {
	User  string
	Group string
}

// Info is the uniform stat result
type Info struct {
	Size  int64
	Mtime time.Time
	Ctime time.Time
	Type  FileType
	Owner Owner
	Mode  os.FileMode
}

// Service answers ownership and metadata queries for local paths
type Service interface {
	// GetOwner returns the owning user and group of a path
	GetOwner(path string) (Owner, error)

	// SetOwner changes the owning user and/or group of a path. An empty
	// user or group keeps the current one.
	SetOwner(path, user, group string) error

	// Stat returns the uniform metadata of a path without following symlinks
	Stat(path string) (Info, error)
}
