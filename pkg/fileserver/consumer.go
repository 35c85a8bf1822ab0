package fileserver

import "fmt"

// Consumer is the logical content tree a backend set serves.
//
// A states fileserver and a pillar fileserver are fully independent, even
// when their backends point at the same sources: each consumer owns its own
// instances and its own cache root.
type Consumer int

const (
	// States serves the state-definition tree
	States Consumer = iota

	// Pillar serves the pillar (secret/variable) tree
	Pillar
)

func (c Consumer) String() string {
	switch c {
	case States:
		return "states"
	case Pillar:
		return "pillar"
	default:
		return fmt.Sprintf("consumer(%d)", int(c))
	}
}

// ParseConsumer maps a consumer name to its tag
func ParseConsumer(name string) (Consumer, error) {
	switch name {
	case "states":
		return States, nil
	case "pillar":
		return Pillar, nil
	default:
		return 0, fmt.Errorf("unknown consumer %q", name)
	}
}

// Consumers lists every consumer the fileserver serves, in update order
func Consumers() []Consumer {
	return []Consumer{States, Pillar}
}
