package wallet

import (
	"context"

	"github.com/agenthands/rgbkit/pkg/container"
	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
)

var (
	ErrNotFound     = core.ErrNotFound
	ErrInvalidInput = core.ErrInvalidInput
	ErrCorrupt      = core.ErrCorrupt
	ErrTooLarge     = core.ErrTooLarge
	ErrClosed       = core.ErrClosed
)

// ReindexResult summarizes a catalog rebuild.
type ReindexResult struct {
	Indexed int
	Skipped int // unreadable, foreign or duplicate files
	PerKind map[magic.Number]int
}

// Store is a wallet data directory: one container file per object, grouped
// by kind, plus an index keyed by container ID.
type Store interface {
	Put(ctx context.Context, obj container.Object) (core.ID, error)
	Get(ctx context.Context, id core.ID, obj container.Object) error
	List(ctx context.Context, kind magic.Number) ([]core.ID, error)
	Delete(ctx context.Context, id core.ID) error

	Reindex(ctx context.Context) (ReindexResult, error)
	Export(ctx context.Context, path string) (int, error)
	Import(ctx context.Context, path string) (int, error)

	Close() error
}

// DirName returns the subdirectory holding files of kind.
func DirName(kind magic.Number) string {
	switch kind {
	case magic.Schema:
		return "schemata"
	case magic.Genesis:
		return "genesis"
	case magic.Transition:
		return "transitions"
	case magic.Anchor:
		return "anchors"
	case magic.Consignment:
		return "consignments"
	case magic.Stash:
		return "stash"
	default:
		return ""
	}
}
