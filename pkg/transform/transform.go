// Package transform turns container bytes into archive block data and back.
package transform

import (
	"errors"
	"fmt"

	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/klauspost/compress/zstd"
)

// Block layout written by the zstd transform:
//
//	offset 0 : 4 bytes  "RGBK"
//	offset 4 : 1 byte   envelope version
//	offset 5 : 1 byte   flags
//	offset 6 : 1 byte   algorithm, AlgNone for a body stored as is
//	offset 7 : body
const (
	Magic   = "RGBK"
	Version = 1
)

const FlagCompressed = 1 << 0

const (
	AlgNone = 0
	AlgZstd = 1
)

const headerLen = len(Magic) + 3

// maxDecoded bounds a decompressed block to the largest container the codec
// accepts.
const maxDecoded = core.DefaultMaxPayloadBytes + magic.Size

// Transform encodes blocks on export and decodes them on import.
type Transform interface {
	Name() string
	Encode(plain []byte) ([]byte, error)
	Decode(stored []byte) ([]byte, error)
}

// New builds the transform named in cfg.
func New(cfg core.ArchiveConfig) (Transform, error) {
	switch cfg.Transform {
	case "zstd":
		return NewZstd(cfg.ZstdLevel)
	case "none", "":
		return NewNone(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported transform %q", core.ErrInvalidInput, cfg.Transform)
	}
}

type identity struct{}

// NewNone returns a transform that stores blocks unchanged.
func NewNone() Transform { return identity{} }

func (identity) Name() string                         { return "none" }
func (identity) Encode(plain []byte) ([]byte, error)  { return plain, nil }
func (identity) Decode(stored []byte) ([]byte, error) { return stored, nil }

type compressor struct {
	enc   *zstd.Encoder
	dec   *zstd.Decoder
	limit uint64
}

// NewZstd returns a zstd transform. A level of 0 selects the default level.
// Blocks that do not shrink are kept uncompressed inside the envelope.
func NewZstd(level int) (Transform, error) {
	c, err := newZstd(level, maxDecoded)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newZstd(level int, maxOut uint64) (*compressor, error) {
	if level == 0 {
		level = core.DefaultZstdLevel
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderCRC(true))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxOut))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &compressor{enc: enc, dec: dec, limit: maxOut}, nil
}

func (c *compressor) Name() string { return "zstd" }

func (c *compressor) Encode(plain []byte) ([]byte, error) {
	out := c.enc.EncodeAll(plain, envelope(FlagCompressed, AlgZstd, len(plain)))
	if len(out)-headerLen < len(plain) {
		return out, nil
	}
	return append(envelope(0, AlgNone, len(plain)), plain...), nil
}

func (c *compressor) Decode(stored []byte) ([]byte, error) {
	flags, alg, body, err := parseEnvelope(stored)
	if err != nil {
		return nil, err
	}

	if flags&FlagCompressed == 0 {
		if alg != AlgNone {
			return nil, fmt.Errorf("%w: uncompressed block names algorithm %d", core.ErrCorrupt, alg)
		}
		return body, nil
	}
	if alg != AlgZstd {
		return nil, fmt.Errorf("%w: unsupported compression algorithm %d", core.ErrCorrupt, alg)
	}

	plain, err := c.dec.DecodeAll(body, nil)
	switch {
	case errors.Is(err, zstd.ErrDecoderSizeExceeded):
		return nil, fmt.Errorf("%w: decompressed block exceeds %d bytes", core.ErrTooLarge, c.limit)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", core.ErrCorrupt, err)
	}
	return plain, nil
}

// envelope returns a header with room for a body of about bodyLen bytes.
func envelope(flags, alg byte, bodyLen int) []byte {
	h := make([]byte, 0, headerLen+bodyLen)
	h = append(h, Magic...)
	return append(h, Version, flags, alg)
}

func parseEnvelope(stored []byte) (flags, alg byte, body []byte, err error) {
	if len(stored) < headerLen {
		return 0, 0, nil, fmt.Errorf("%w: block of %d bytes has no envelope", core.ErrCorrupt, len(stored))
	}
	if string(stored[:len(Magic)]) != Magic {
		return 0, 0, nil, fmt.Errorf("%w: invalid envelope magic", core.ErrCorrupt)
	}
	if v := stored[len(Magic)]; v != Version {
		return 0, 0, nil, fmt.Errorf("%w: unsupported envelope version %d", core.ErrCorrupt, v)
	}
	return stored[len(Magic)+1], stored[len(Magic)+2], stored[headerLen:], nil
}
