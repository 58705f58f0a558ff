// Package magic defines the 32-bit tags that identify the kind of object
// stored in a container file or encoded string.
//
// Each tag is the first four bytes of SHA-256 over a fixed ASCII label
// ("rgb:schema", "rgb:genesis", ...). The values were derived once and are
// fixed here as constants; they are not part of any commitment or id.
package magic

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// Number is a registered magic number.
type Number uint32

const (
	// Schema = SHA256("rgb:schema")[:4]
	Schema Number = 0x18429ce3
	// Genesis = SHA256("rgb:genesis")[:4]
	Genesis Number = 0x2e91cbc0
	// Transition = SHA256("rgb:transition")[:4]
	Transition Number = 0xbf11926e
	// Anchor = SHA256("rgb:anchor")[:4]
	Anchor Number = 0xdd53b6f1
	// Consignment = SHA256("rgb:consignment")[:4]
	Consignment Number = 0x4c82bf53
	// Stash = SHA256("rgb:stash")[:4]
	Stash Number = 0xcd22a2cb
)

// Size is the on-disk length of a tag.
const Size = 4

// UnknownError is returned by FromUint32 for a value that names no kind.
type UnknownError struct {
	Value uint32
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("magic: unknown magic number 0x%08x", e.Value)
}

// All returns every registered kind in declaration order.
func All() []Number {
	return []Number{Schema, Genesis, Transition, Anchor, Consignment, Stash}
}

// FromUint32 resolves a raw tag.
func FromUint32(v uint32) (Number, error) {
	switch n := Number(v); n {
	case Schema, Genesis, Transition, Anchor, Consignment, Stash:
		return n, nil
	default:
		return 0, &UnknownError{Value: v}
	}
}

// FromBytes resolves a big-endian tag from the first Size bytes of b.
func FromBytes(b []byte) (Number, error) {
	if len(b) < Size {
		return 0, fmt.Errorf("magic: need %d bytes, got %d", Size, len(b))
	}
	return FromUint32(binary.BigEndian.Uint32(b))
}

// Uint32 returns the raw tag value.
func (n Number) Uint32() uint32 {
	return uint32(n)
}

// Bytes returns the big-endian on-disk form of the tag.
func (n Number) Bytes() [Size]byte {
	var b [Size]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	return b
}

func (n Number) String() string {
	switch n {
	case Schema:
		return "Schema"
	case Genesis:
		return "Genesis"
	case Transition:
		return "Transition"
	case Anchor:
		return "Anchor"
	case Consignment:
		return "Consignment"
	case Stash:
		return "Stash"
	default:
		return fmt.Sprintf("Number(0x%08x)", uint32(n))
	}
}

// Label returns the ASCII label the tag was derived from.
func (n Number) Label() string {
	switch n {
	case Schema:
		return "rgb:schema"
	case Genesis:
		return "rgb:genesis"
	case Transition:
		return "rgb:transition"
	case Anchor:
		return "rgb:anchor"
	case Consignment:
		return "rgb:consignment"
	case Stash:
		return "rgb:stash"
	default:
		return ""
	}
}

// Extension returns the default file extension, without the dot.
func (n Number) Extension() string {
	return strings.TrimPrefix(n.Label(), "rgb:")
}

// ParseName resolves a kind by name or extension, ignoring case.
func ParseName(s string) (Number, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range All() {
		if s == strings.ToLower(n.String()) || s == n.Extension() {
			return n, nil
		}
	}
	return 0, fmt.Errorf("magic: unknown kind %q", s)
}

// Derive computes the tag for a label. Only used to check the constant table.
func Derive(label string) uint32 {
	sum := sha256.Sum256([]byte(label))
	return binary.BigEndian.Uint32(sum[:Size])
}
