package rgb

import (
	"fmt"
	"io"

	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/agenthands/rgbkit/pkg/strict"
)

// Version is the only supported encoding version of compound objects.
const Version = 1

// Consignment is the data sent to a counterparty: the contract's schema and
// genesis plus the transitions and anchors the recipient needs to verify.
type Consignment struct {
	Version     uint16
	Schema      Schema
	Genesis     Genesis
	Transitions []Transition
	Anchors     []Anchor
}

// Stash is the wallet's whole body of contract data.
type Stash struct {
	Version     uint16
	Schemata    []Schema
	Genesis     []Genesis
	Transitions []Transition
	Anchors     []Anchor
}

type consignmentWire struct {
	Version     uint16   `cbor:"1,keyasint"`
	Schema      []byte   `cbor:"2,keyasint"`
	Genesis     []byte   `cbor:"3,keyasint"`
	Transitions [][]byte `cbor:"4,keyasint"`
	Anchors     [][]byte `cbor:"5,keyasint"`
}

type stashWire struct {
	Version     uint16   `cbor:"1,keyasint"`
	Schemata    [][]byte `cbor:"2,keyasint"`
	Genesis     [][]byte `cbor:"3,keyasint"`
	Transitions [][]byte `cbor:"4,keyasint"`
	Anchors     [][]byte `cbor:"5,keyasint"`
}

var defaultLimits = core.LimitsConfig{MaxItems: core.DefaultMaxItems}

func (c *Consignment) Magic() magic.Number { return magic.Consignment }

// Validate checks the structural invariants of c.
func (c *Consignment) Validate(limits core.LimitsConfig) error {
	if c.Version != Version {
		return fmt.Errorf("unsupported consignment version %d", c.Version)
	}
	if len(c.Schema.Data) == 0 {
		return fmt.Errorf("consignment has no schema")
	}
	if len(c.Genesis.Data) == 0 {
		return fmt.Errorf("consignment has no genesis")
	}
	if err := checkCount("transitions", len(c.Transitions), limits); err != nil {
		return err
	}
	if err := checkCount("anchors", len(c.Anchors), limits); err != nil {
		return err
	}
	// Every anchor commits to at least one transition.
	if len(c.Anchors) > len(c.Transitions) {
		return fmt.Errorf("consignment has %d anchors for %d transitions", len(c.Anchors), len(c.Transitions))
	}
	return nil
}

func (c *Consignment) StrictEncode(w io.Writer) (int, error) {
	if err := c.Validate(defaultLimits); err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return strict.Encode(w, consignmentWire{
		Version:     c.Version,
		Schema:      c.Schema.Data,
		Genesis:     c.Genesis.Data,
		Transitions: transitionBytes(c.Transitions),
		Anchors:     anchorBytes(c.Anchors),
	})
}

func (c *Consignment) StrictDecode(r io.Reader) error {
	var wire consignmentWire
	if err := strict.Decode(r, &wire, strict.DefaultLimit); err != nil {
		return err
	}

	out := Consignment{
		Version:     wire.Version,
		Schema:      Schema{Data: wire.Schema},
		Genesis:     Genesis{Data: wire.Genesis},
		Transitions: toTransitions(wire.Transitions),
		Anchors:     toAnchors(wire.Anchors),
	}
	if err := out.Validate(defaultLimits); err != nil {
		return fmt.Errorf("%w: %v", core.ErrCorrupt, err)
	}
	*c = out
	return nil
}

func (s *Stash) Magic() magic.Number { return magic.Stash }

// Validate checks the structural invariants of s.
func (s *Stash) Validate(limits core.LimitsConfig) error {
	if s.Version != Version {
		return fmt.Errorf("unsupported stash version %d", s.Version)
	}
	counts := []struct {
		name string
		n    int
	}{
		{"schemata", len(s.Schemata)},
		{"genesis", len(s.Genesis)},
		{"transitions", len(s.Transitions)},
		{"anchors", len(s.Anchors)},
	}
	for _, c := range counts {
		if err := checkCount(c.name, c.n, limits); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stash) StrictEncode(w io.Writer) (int, error) {
	if err := s.Validate(defaultLimits); err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	return strict.Encode(w, stashWire{
		Version:     s.Version,
		Schemata:    schemaBytes(s.Schemata),
		Genesis:     genesisBytes(s.Genesis),
		Transitions: transitionBytes(s.Transitions),
		Anchors:     anchorBytes(s.Anchors),
	})
}

func (s *Stash) StrictDecode(r io.Reader) error {
	var wire stashWire
	if err := strict.Decode(r, &wire, strict.DefaultLimit); err != nil {
		return err
	}

	out := Stash{
		Version:     wire.Version,
		Schemata:    toSchemata(wire.Schemata),
		Genesis:     toGenesis(wire.Genesis),
		Transitions: toTransitions(wire.Transitions),
		Anchors:     toAnchors(wire.Anchors),
	}
	if err := out.Validate(defaultLimits); err != nil {
		return fmt.Errorf("%w: %v", core.ErrCorrupt, err)
	}
	*s = out
	return nil
}

func checkCount(name string, n int, limits core.LimitsConfig) error {
	if limits.MaxItems > 0 && n > limits.MaxItems {
		return fmt.Errorf("too many %s: %d > %d", name, n, limits.MaxItems)
	}
	return nil
}

// The converters below keep nil lists nil so that a decoded value is
// structurally equal to the encoded one.

func schemaBytes(ss []Schema) [][]byte {
	if ss == nil {
		return nil
	}
	out := make([][]byte, len(ss))
	for i := range ss {
		out[i] = ss[i].Data
	}
	return out
}

func genesisBytes(gs []Genesis) [][]byte {
	if gs == nil {
		return nil
	}
	out := make([][]byte, len(gs))
	for i := range gs {
		out[i] = gs[i].Data
	}
	return out
}

func toSchemata(bs [][]byte) []Schema {
	if bs == nil {
		return nil
	}
	out := make([]Schema, len(bs))
	for i, b := range bs {
		out[i] = Schema{Data: b}
	}
	return out
}

func toGenesis(bs [][]byte) []Genesis {
	if bs == nil {
		return nil
	}
	out := make([]Genesis, len(bs))
	for i, b := range bs {
		out[i] = Genesis{Data: b}
	}
	return out
}

func transitionBytes(ts []Transition) [][]byte {
	if ts == nil {
		return nil
	}
	out := make([][]byte, len(ts))
	for i := range ts {
		out[i] = ts[i].Data
	}
	return out
}

func anchorBytes(as []Anchor) [][]byte {
	if as == nil {
		return nil
	}
	out := make([][]byte, len(as))
	for i := range as {
		out[i] = as[i].Data
	}
	return out
}

func toTransitions(bs [][]byte) []Transition {
	if bs == nil {
		return nil
	}
	out := make([]Transition, len(bs))
	for i, b := range bs {
		out[i] = Transition{Data: b}
	}
	return out
}

func toAnchors(bs [][]byte) []Anchor {
	if bs == nil {
		return nil
	}
	out := make([]Anchor, len(bs))
	for i, b := range bs {
		out[i] = Anchor{Data: b}
	}
	return out
}
