// Package strict is the boundary to the deterministic binary encoding used
// for protocol objects. Objects encode themselves into a stream and decode
// themselves from one; the container layer never looks inside a payload.
package strict

import (
	"fmt"
	"io"

	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/fxamacker/cbor/v2"
)

// Encoder writes the strict encoding of a value and returns the byte count.
type Encoder interface {
	StrictEncode(w io.Writer) (int, error)
}

// Decoder replaces its receiver with the value decoded from r. It consumes r
// to the end: trailing bytes are an error for structured encodings.
type Decoder interface {
	StrictDecode(r io.Reader) error
}

// DefaultLimit bounds how much a single decode will read.
const DefaultLimit = core.DefaultMaxPayloadBytes

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Core Deterministic Encoding: same value, same bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("strict: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("strict: CBOR decoder initialization failed: " + err.Error())
	}
}

// WriteBytes writes b verbatim.
func WriteBytes(w io.Writer, b []byte) (int, error) {
	n, err := w.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return n, err
}

// ReadAll reads r to the end. A limit of 0 disables the bound.
func ReadAll(r io.Reader, limit uint64) ([]byte, error) {
	if limit == 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > limit {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", core.ErrTooLarge, limit)
	}
	return b, nil
}

// Marshal returns the deterministic CBOR encoding of v.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a complete CBOR item into v. Trailing bytes, duplicate
// map keys and unknown fields are rejected.
func Unmarshal(b []byte, v any) error {
	if err := decMode.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrCorrupt, err)
	}
	return nil
}

// Encode writes the deterministic CBOR encoding of v to w.
func Encode(w io.Writer, v any) (int, error) {
	b, err := Marshal(v)
	if err != nil {
		return 0, err
	}
	return WriteBytes(w, b)
}

// Decode reads r to the end and decodes it as a single CBOR item.
func Decode(r io.Reader, v any, limit uint64) error {
	b, err := ReadAll(r, limit)
	if err != nil {
		return err
	}
	return Unmarshal(b, v)
}
