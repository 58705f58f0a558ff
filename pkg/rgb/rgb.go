// Package rgb holds the object kinds a wallet persists in container files.
package rgb

import (
	"fmt"

	"github.com/agenthands/rgbkit/pkg/container"
	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
)

// New returns an empty object of the given kind, ready to be decoded into.
func New(kind magic.Number) (container.Object, error) {
	switch kind {
	case magic.Schema:
		return &Schema{}, nil
	case magic.Genesis:
		return &Genesis{}, nil
	case magic.Transition:
		return &Transition{}, nil
	case magic.Anchor:
		return &Anchor{}, nil
	case magic.Consignment:
		return &Consignment{}, nil
	case magic.Stash:
		return &Stash{}, nil
	default:
		return nil, fmt.Errorf("%w: no object type for %s", core.ErrInvalidInput, kind)
	}
}

// Decode resolves the kind of container bytes and decodes them into a new
// object of that kind.
func Decode(b []byte) (container.Object, error) {
	kind, err := container.Peek(b)
	if err != nil {
		return nil, err
	}
	obj, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := container.Unmarshal(b, obj); err != nil {
		return nil, err
	}
	return obj, nil
}
