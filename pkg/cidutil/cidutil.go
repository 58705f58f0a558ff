package cidutil

import (
	"bytes"
	"fmt"

	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Builder defines the interface for creating and verifying container IDs.
//
// An ID is a CIDv1 (raw codec, sha2-256) over the whole container: magic
// number and payload. Equal payloads of different kinds get different IDs.
type Builder interface {
	ContainerID(raw []byte) (core.ID, error)
	Verify(id core.ID, raw []byte) error
}

type builder struct{}

// NewBuilder returns a new ID builder implementation.
func NewBuilder() Builder {
	return &builder{}
}

func (b *builder) ContainerID(raw []byte) (core.ID, error) {
	hash, err := multihash.Sum(raw, multihash.SHA2_256, -1)
	if err != nil {
		return core.ID{}, fmt.Errorf("failed to compute multihash: %w", err)
	}

	c := cid.NewCidV1(cid.Raw, hash)
	return core.ID{Bytes: c.Bytes()}, nil
}

func (b *builder) Verify(id core.ID, raw []byte) error {
	c, err := cid.Cast(id.Bytes)
	if err != nil {
		return fmt.Errorf("%w: invalid ID bytes: %v", core.ErrCorrupt, err)
	}

	prefix := c.Prefix()
	hash, err := multihash.Sum(raw, prefix.MhType, prefix.MhLength)
	if err != nil {
		return fmt.Errorf("failed to compute multihash for verification: %w", err)
	}

	if !bytes.Equal(c.Hash(), hash) {
		return fmt.Errorf("%w: ID mismatch", core.ErrCorrupt)
	}

	return nil
}

// String renders an ID in the default CIDv1 text form (base32).
func String(id core.ID) string {
	c, err := cid.Cast(id.Bytes)
	if err != nil {
		return fmt.Sprintf("invalid-id(%x)", id.Bytes)
	}
	return c.String()
}

// Parse decodes the text form of an ID.
func Parse(s string) (core.ID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return core.ID{}, fmt.Errorf("%w: invalid ID %q: %v", core.ErrInvalidInput, s, err)
	}
	return core.ID{Bytes: c.Bytes()}, nil
}

// ToCid converts an ID for use with IPLD libraries.
func ToCid(id core.ID) (cid.Cid, error) {
	c, err := cid.Cast(id.Bytes)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: invalid ID bytes: %v", core.ErrCorrupt, err)
	}
	return c, nil
}
