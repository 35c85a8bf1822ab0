//go:build !linux

package fsmeta

// New returns the platform service
func New() Service {
	return unsupported{}
}

type unsupported struct{}

func (unsupported) GetOwner(string) (Owner, error)        { return Owner{}, ErrNotSupported }
func (unsupported) SetOwner(string, string, string) error { return ErrNotSupported }
func (unsupported) Stat(string) (Info, error)             { return Info{}, ErrNotSupported }
