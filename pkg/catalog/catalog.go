package catalog

import (
	"context"
	"fmt"

	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/cockroachdb/pebble"
)

var (
	PrefixID   = []byte("id:")  // id -> kind || file name
	PrefixKind = []byte("k2i:") // kind || id -> nil
)

// Entry locates a container file in the wallet directory.
type Entry struct {
	Kind magic.Number
	Name string // file name relative to the kind's directory
}

// Catalog defines the interface for the embedded index.
type Catalog interface {
	Get(ctx context.Context, id core.ID) (Entry, bool, error)
	Put(batch *pebble.Batch, id core.ID, e Entry) error
	Delete(batch *pebble.Batch, id core.ID, kind magic.Number) error

	IterateKind(ctx context.Context, kind magic.Number, fn func(id core.ID) error) error
	Count(ctx context.Context, kind magic.Number) (int, error)
	Reset() error

	NewBatch() *pebble.Batch
	Close() error
}

type pebbleCatalog struct {
	db *pebble.DB
}

// Open opens a Pebble-based catalog in the specified directory.
func Open(dir string) (Catalog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db: %w", err)
	}
	return &pebbleCatalog{db: db}, nil
}

func (c *pebbleCatalog) Close() error {
	return c.db.Close()
}

func (c *pebbleCatalog) NewBatch() *pebble.Batch {
	return c.db.NewBatch()
}

func (c *pebbleCatalog) Get(ctx context.Context, id core.ID) (Entry, bool, error) {
	val, closer, err := c.db.Get(idKey(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	defer closer.Close()

	if len(val) < magic.Size {
		return Entry{}, false, fmt.Errorf("%w: invalid catalog entry length", core.ErrCorrupt)
	}
	kind, err := magic.FromBytes(val)
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: %v", core.ErrCorrupt, err)
	}
	return Entry{Kind: kind, Name: string(val[magic.Size:])}, true, nil
}

func (c *pebbleCatalog) Put(batch *pebble.Batch, id core.ID, e Entry) error {
	tag := e.Kind.Bytes()
	val := make([]byte, 0, magic.Size+len(e.Name))
	val = append(val, tag[:]...)
	val = append(val, e.Name...)

	if batch != nil {
		if err := batch.Set(idKey(id), val, nil); err != nil {
			return err
		}
		return batch.Set(kindKey(e.Kind, id), nil, nil)
	}

	b := c.db.NewBatch()
	defer b.Close()
	if err := c.Put(b, id, e); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (c *pebbleCatalog) Delete(batch *pebble.Batch, id core.ID, kind magic.Number) error {
	if batch != nil {
		if err := batch.Delete(idKey(id), nil); err != nil {
			return err
		}
		return batch.Delete(kindKey(kind, id), nil)
	}

	b := c.db.NewBatch()
	defer b.Close()
	if err := c.Delete(b, id, kind); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (c *pebbleCatalog) IterateKind(ctx context.Context, kind magic.Number, fn func(id core.ID) error) error {
	prefix := kindKey(kind, core.ID{})
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: incrementByte(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		raw := iter.Key()[len(prefix):]
		idCopy := make([]byte, len(raw))
		copy(idCopy, raw)

		if err := fn(core.ID{Bytes: idCopy}); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (c *pebbleCatalog) Count(ctx context.Context, kind magic.Number) (int, error) {
	n := 0
	err := c.IterateKind(ctx, kind, func(core.ID) error {
		n++
		return nil
	})
	return n, err
}

// Reset drops every entry. Used before rebuilding the index from disk.
func (c *pebbleCatalog) Reset() error {
	for _, prefix := range [][]byte{PrefixID, PrefixKind} {
		if err := c.db.DeleteRange(prefix, incrementByte(prefix), pebble.Sync); err != nil {
			return err
		}
	}
	return nil
}

func idKey(id core.ID) []byte {
	k := make([]byte, 0, len(PrefixID)+len(id.Bytes))
	k = append(k, PrefixID...)
	return append(k, id.Bytes...)
}

func kindKey(kind magic.Number, id core.ID) []byte {
	tag := kind.Bytes()
	k := make([]byte, 0, len(PrefixKind)+magic.Size+len(id.Bytes))
	k = append(k, PrefixKind...)
	k = append(k, tag[:]...)
	return append(k, id.Bytes...)
}

func incrementByte(b []byte) []byte {
	res := make([]byte, len(b))
	copy(res, b)
	for i := len(res) - 1; i >= 0; i-- {
		res[i]++
		if res[i] != 0 {
			return res
		}
	}
	return nil
}
