// Package wallet keeps a wallet's container files in a data directory and
// indexes them by container ID.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/agenthands/rgbkit/pkg/archive"
	"github.com/agenthands/rgbkit/pkg/catalog"
	"github.com/agenthands/rgbkit/pkg/cidutil"
	"github.com/agenthands/rgbkit/pkg/container"
	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/dirlist"
	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/agenthands/rgbkit/pkg/rgb"
	"github.com/agenthands/rgbkit/pkg/transform"
	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog/log"
)

type validator interface {
	Validate(limits core.LimitsConfig) error
}

type store struct {
	cfg core.Config

	ids       cidutil.Builder
	catalog   catalog.Catalog
	transform transform.Transform

	putMu  sync.Mutex // single writer
	closed atomic.Bool
}

// Open prepares the data directory and opens its catalog.
func Open(ctx context.Context, cfg core.Config) (Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: wallet directory is required", ErrInvalidInput)
	}
	if err := core.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.Limits = cfg.Limits.WithDefaults()
	if cfg.Catalog.Dir == "" {
		cfg.Catalog.Dir = filepath.Join(cfg.Dir, "catalog")
	}

	for _, kind := range magic.All() {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, DirName(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create wallet directory: %w", err)
		}
	}

	tr, err := transform.New(cfg.Archive)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(cfg.Catalog.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	log.Debug().Str("dir", cfg.Dir).Str("transform", tr.Name()).Msg("wallet opened")

	return newStore(cfg, cidutil.NewBuilder(), cat, tr), nil
}

func newStore(cfg core.Config, ids cidutil.Builder, cat catalog.Catalog, tr transform.Transform) *store {
	return &store{
		cfg:       cfg,
		ids:       ids,
		catalog:   cat,
		transform: tr,
	}
}

func (s *store) Close() error {
	if s.closed.Swap(true) {
		return ErrClosed
	}
	return s.catalog.Close()
}

func (s *store) Put(ctx context.Context, obj container.Object) (core.ID, error) {
	if s.closed.Load() {
		return core.ID{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return core.ID{}, err
	}

	if v, ok := obj.(validator); ok {
		if err := v.Validate(s.cfg.Limits); err != nil {
			return core.ID{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	raw, err := container.Marshal(obj)
	if err != nil {
		return core.ID{}, err
	}
	if err := s.checkSize(int64(len(raw))); err != nil {
		return core.ID{}, err
	}

	id, err := s.ids.ContainerID(raw)
	if err != nil {
		return core.ID{}, err
	}

	s.putMu.Lock()
	defer s.putMu.Unlock()

	if _, exists, err := s.catalog.Get(ctx, id); err != nil {
		return core.ID{}, err
	} else if exists {
		return id, nil
	}

	kind := obj.Magic()
	name := fileName(id, kind)
	if _, err := container.WriteFileAtomic(obj, s.path(kind, name)); err != nil {
		return core.ID{}, err
	}
	if err := s.catalog.Put(nil, id, catalog.Entry{Kind: kind, Name: name}); err != nil {
		return core.ID{}, err
	}

	log.Debug().Str("id", cidutil.String(id)).Stringer("kind", kind).Msg("container stored")
	return id, nil
}

func (s *store) Get(ctx context.Context, id core.ID, obj container.Object) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if id.IsZero() {
		return fmt.Errorf("%w: empty ID", ErrInvalidInput)
	}
	entry, ok, err := s.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if entry.Kind != obj.Magic() {
		return &container.MismatchError{Found: entry.Kind, Expected: obj.Magic()}
	}

	raw, err := s.readRaw(s.path(entry.Kind, entry.Name))
	if err != nil {
		return err
	}
	if err := s.ids.Verify(id, raw); err != nil {
		return err
	}
	return container.Unmarshal(raw, obj)
}

func (s *store) List(ctx context.Context, kind magic.Number) ([]core.ID, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if _, err := magic.FromUint32(kind.Uint32()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var ids []core.ID
	err := s.catalog.IterateKind(ctx, kind, func(id core.ID) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *store) Delete(ctx context.Context, id core.ID) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if id.IsZero() {
		return fmt.Errorf("%w: empty ID", ErrInvalidInput)
	}

	s.putMu.Lock()
	defer s.putMu.Unlock()

	entry, ok, err := s.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	if err := os.Remove(s.path(entry.Kind, entry.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return s.catalog.Delete(nil, id, entry.Kind)
}

// Reindex drops the catalog and rebuilds it from the files on disk. Files
// that are not containers of their directory's kind are skipped.
func (s *store) Reindex(ctx context.Context) (ReindexResult, error) {
	if s.closed.Load() {
		return ReindexResult{}, ErrClosed
	}

	s.putMu.Lock()
	defer s.putMu.Unlock()

	if err := s.catalog.Reset(); err != nil {
		return ReindexResult{}, err
	}

	batch := s.catalog.NewBatch()
	defer batch.Close()

	res := ReindexResult{PerKind: make(map[magic.Number]int)}
	seen := make(map[string]struct{})

	for _, kind := range magic.All() {
		dir := filepath.Join(s.cfg.Dir, DirName(kind))
		names, err := dirlist.ListFilenames(dir, kind.Extension())
		if err != nil {
			return ReindexResult{}, err
		}

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return ReindexResult{}, err
			}

			path := filepath.Join(dir, name)
			id, err := s.scanFile(path, kind)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("skipping file")
				res.Skipped++
				continue
			}
			if _, dup := seen[string(id.Bytes)]; dup {
				log.Warn().Str("path", path).Str("id", cidutil.String(id)).Msg("skipping duplicate container")
				res.Skipped++
				continue
			}
			seen[string(id.Bytes)] = struct{}{}

			if err := s.catalog.Put(batch, id, catalog.Entry{Kind: kind, Name: name}); err != nil {
				return ReindexResult{}, err
			}
			res.Indexed++
			res.PerKind[kind]++
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return ReindexResult{}, err
	}

	log.Info().Int("indexed", res.Indexed).Int("skipped", res.Skipped).Msg("catalog rebuilt")
	return res, nil
}

// Export writes every indexed container into a CARv2 archive at path.
func (s *store) Export(ctx context.Context, path string) (n int, err error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	w, err := archive.Create(path, s.transform)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	for _, kind := range magic.All() {
		ids, err := s.List(ctx, kind)
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			entry, ok, err := s.catalog.Get(ctx, id)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			raw, err := s.readRaw(s.path(entry.Kind, entry.Name))
			if err != nil {
				return 0, err
			}
			if err := s.ids.Verify(id, raw); err != nil {
				return 0, fmt.Errorf("export %s: %w", entry.Name, err)
			}
			if _, err := w.Add(ctx, raw); err != nil {
				return 0, err
			}
		}
	}

	log.Info().Str("path", path).Int("containers", w.Count()).Msg("wallet exported")
	return w.Count(), nil
}

// Import stores every container of the archive at path. Containers already
// present are counted but not rewritten.
func (s *store) Import(ctx context.Context, path string) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	n := 0
	err := archive.Walk(ctx, path, s.transform, func(id core.ID, raw []byte) error {
		if err := s.checkSize(int64(len(raw))); err != nil {
			return err
		}
		obj, err := rgb.Decode(raw)
		if err != nil {
			return err
		}
		got, err := s.Put(ctx, obj)
		if err != nil {
			return err
		}
		if string(got.Bytes) != string(id.Bytes) {
			return fmt.Errorf("%w: %s is not canonically encoded", ErrCorrupt, cidutil.String(id))
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}

	log.Info().Str("path", path).Int("containers", n).Msg("wallet imported")
	return n, nil
}

func (s *store) scanFile(path string, kind magic.Number) (core.ID, error) {
	raw, err := s.readRaw(path)
	if err != nil {
		return core.ID{}, err
	}
	obj, err := rgb.New(kind)
	if err != nil {
		return core.ID{}, err
	}
	if err := container.Unmarshal(raw, obj); err != nil {
		return core.ID{}, err
	}
	return s.ids.ContainerID(raw)
}

// readRaw reads a whole container file, refusing files whose payload
// exceeds the configured limit.
func (s *store) readRaw(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s is indexed but missing, reindex the wallet", ErrNotFound, path)
		}
		return nil, err
	}
	if err := s.checkSize(fi.Size()); err != nil {
		return nil, err
	}

	tag, payload, err := container.ReadFileRaw(path)
	if err != nil {
		return nil, err
	}
	b := magic.Number(tag).Bytes()
	raw := make([]byte, 0, magic.Size+len(payload))
	raw = append(raw, b[:]...)
	return append(raw, payload...), nil
}

func (s *store) checkSize(containerLen int64) error {
	limit := s.cfg.Limits.MaxPayloadBytes
	if containerLen <= magic.Size {
		return nil
	}
	if uint64(containerLen-magic.Size) > limit {
		return fmt.Errorf("%w: payload of %d bytes exceeds limit of %d", ErrTooLarge, containerLen-magic.Size, limit)
	}
	return nil
}

func (s *store) path(kind magic.Number, name string) string {
	return filepath.Join(s.cfg.Dir, DirName(kind), name)
}

func fileName(id core.ID, kind magic.Number) string {
	return cidutil.String(id) + "." + kind.Extension()
}
