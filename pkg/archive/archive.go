// Package archive bundles container files into a single CARv2 file for
// wallet export and import.
//
// Each block holds one whole container (magic number and payload) passed
// through a transform. The block CID is the container ID, computed over the
// untransformed bytes, so an import can verify every container it restores.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/agenthands/rgbkit/pkg/cidutil"
	"github.com/agenthands/rgbkit/pkg/container"
	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/transform"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	carv2 "github.com/ipld/go-car/v2"
	"github.com/ipld/go-car/v2/blockstore"
)

// Writer appends containers to a new archive.
type Writer struct {
	bs    *blockstore.ReadWrite
	tr    transform.Transform
	ids   cidutil.Builder
	count int
}

// Create starts a new archive at path, replacing any existing file.
func Create(path string, tr transform.Transform) (*Writer, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to replace archive: %w", err)
	}

	bs, err := blockstore.OpenReadWrite(path, []cid.Cid{})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive %s: %w", path, err)
	}
	return &Writer{bs: bs, tr: tr, ids: cidutil.NewBuilder()}, nil
}

// Add stores one container and returns its ID. The container must start
// with a registered magic number.
func (w *Writer) Add(ctx context.Context, raw []byte) (core.ID, error) {
	if _, err := container.Peek(raw); err != nil {
		return core.ID{}, err
	}

	id, err := w.ids.ContainerID(raw)
	if err != nil {
		return core.ID{}, err
	}
	c, err := cidutil.ToCid(id)
	if err != nil {
		return core.ID{}, err
	}

	has, err := w.bs.Has(ctx, c)
	if err != nil {
		return core.ID{}, err
	}
	if has {
		return id, nil
	}

	stored, err := w.tr.Encode(raw)
	if err != nil {
		return core.ID{}, err
	}
	blk, err := blocks.NewBlockWithCid(stored, c)
	if err != nil {
		return core.ID{}, err
	}
	if err := w.bs.Put(ctx, blk); err != nil {
		return core.ID{}, err
	}
	w.count++
	return id, nil
}

// Count returns the number of distinct containers added so far.
func (w *Writer) Count() int {
	return w.count
}

// Close finalizes the archive index.
func (w *Writer) Close() error {
	if err := w.bs.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// Walk reads the archive at path block by block and calls fn with the ID and
// raw bytes of every container, after checking both.
func Walk(ctx context.Context, path string, tr transform.Transform, fn func(id core.ID, raw []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	// The block data is transformed, so the CIDs cannot be checked against
	// it; each container is verified after decoding instead.
	br, err := carv2.NewBlockReader(f, carv2.WithTrustedCAR(true))
	if err != nil {
		return fmt.Errorf("failed to create block reader for %s: %w", path, err)
	}

	ids := cidutil.NewBuilder()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		blk, err := br.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read block from %s: %w", path, err)
		}

		raw, err := tr.Decode(blk.RawData())
		if err != nil {
			return err
		}
		id := core.ID{Bytes: blk.Cid().Bytes()}
		if err := ids.Verify(id, raw); err != nil {
			return err
		}
		if _, err := container.Peek(raw); err != nil {
			return err
		}

		if err := fn(id, raw); err != nil {
			return err
		}
	}
}
