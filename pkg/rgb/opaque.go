package rgb

import (
	"io"

	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/agenthands/rgbkit/pkg/strict"
)

// Schema, Genesis, Transition and Anchor are produced and validated by the
// protocol library. The wallet stores their strict encoding as-is, so Data
// is both the in-memory value and the container payload.

type Schema struct {
	Data []byte
}

type Genesis struct {
	Data []byte
}

type Transition struct {
	Data []byte
}

type Anchor struct {
	Data []byte
}

func (s *Schema) Magic() magic.Number                   { return magic.Schema }
func (s *Schema) StrictEncode(w io.Writer) (int, error) { return strict.WriteBytes(w, s.Data) }
func (s *Schema) StrictDecode(r io.Reader) error        { return readOpaque(r, &s.Data) }

func (g *Genesis) Magic() magic.Number                   { return magic.Genesis }
func (g *Genesis) StrictEncode(w io.Writer) (int, error) { return strict.WriteBytes(w, g.Data) }
func (g *Genesis) StrictDecode(r io.Reader) error        { return readOpaque(r, &g.Data) }

func (t *Transition) Magic() magic.Number                   { return magic.Transition }
func (t *Transition) StrictEncode(w io.Writer) (int, error) { return strict.WriteBytes(w, t.Data) }
func (t *Transition) StrictDecode(r io.Reader) error        { return readOpaque(r, &t.Data) }

func (a *Anchor) Magic() magic.Number                   { return magic.Anchor }
func (a *Anchor) StrictEncode(w io.Writer) (int, error) { return strict.WriteBytes(w, a.Data) }
func (a *Anchor) StrictDecode(r io.Reader) error        { return readOpaque(r, &a.Data) }

// readOpaque reads the rest of r as the object's data. An empty payload
// leaves the data nil.
func readOpaque(r io.Reader, dst *[]byte) error {
	b, err := strict.ReadAll(r, strict.DefaultLimit)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		b = nil
	}
	*dst = b
	return nil
}
