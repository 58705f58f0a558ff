package magic

import (
	"errors"
	"math/rand"
	"testing"
)

func TestTagTable(t *testing.T) {
	want := map[Number]uint32{
		Schema:      0x18429ce3,
		Genesis:     0x2e91cbc0,
		Transition:  0xbf11926e,
		Anchor:      0xdd53b6f1,
		Consignment: 0x4c82bf53,
		Stash:       0xcd22a2cb,
	}
	if len(All()) != len(want) {
		t.Fatalf("expected %d kinds, got %d", len(want), len(All()))
	}
	for _, n := range All() {
		if n.Uint32() != want[n] {
			t.Errorf("%s: expected 0x%08x, got 0x%08x", n, want[n], n.Uint32())
		}
	}
}

func TestDeriveMatchesConstants(t *testing.T) {
	for _, n := range All() {
		if got := Derive(n.Label()); got != n.Uint32() {
			t.Errorf("%s: SHA256(%q)[:4] = 0x%08x, constant is 0x%08x", n, n.Label(), got, n.Uint32())
		}
	}
}

func TestInjective(t *testing.T) {
	seen := make(map[uint32]Number)
	for _, n := range All() {
		if prev, ok := seen[n.Uint32()]; ok {
			t.Fatalf("%s and %s share tag 0x%08x", prev, n, n.Uint32())
		}
		seen[n.Uint32()] = n
	}
}

func TestFromUint32(t *testing.T) {
	t.Run("Known", func(t *testing.T) {
		for _, n := range All() {
			got, err := FromUint32(n.Uint32())
			if err != nil {
				t.Fatalf("FromUint32(0x%08x) failed: %v", n.Uint32(), err)
			}
			if got != n {
				t.Errorf("expected %s, got %s", n, got)
			}
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		values := []uint32{0, 1, 0xffffffff, 0x18429ce4, 0xa2e498cf}
		r := rand.New(rand.NewSource(7))
		for i := 0; i < 1000; i++ {
			values = append(values, r.Uint32())
		}

		for _, v := range values {
			if _, known := lookup(v); known {
				continue
			}
			_, err := FromUint32(v)
			var unknown *UnknownError
			if !errors.As(err, &unknown) {
				t.Fatalf("FromUint32(0x%08x): expected *UnknownError, got %v", v, err)
			}
			if unknown.Value != v {
				t.Errorf("expected error to carry 0x%08x, got 0x%08x", v, unknown.Value)
			}
		}
	})
}

func lookup(v uint32) (Number, bool) {
	for _, n := range All() {
		if n.Uint32() == v {
			return n, true
		}
	}
	return 0, false
}

func TestFromBytes(t *testing.T) {
	b := Genesis.Bytes()
	if b != [4]byte{0x2e, 0x91, 0xcb, 0xc0} {
		t.Fatalf("unexpected big-endian form % x", b)
	}

	n, err := FromBytes(append(b[:], 0x01))
	if err != nil || n != Genesis {
		t.Fatalf("expected Genesis, got %s (%v)", n, err)
	}

	if _, err := FromBytes([]byte{0x2e, 0x91}); err == nil {
		t.Error("expected error for short input")
	}
}

func TestNames(t *testing.T) {
	for _, n := range All() {
		byName, err := ParseName(n.String())
		if err != nil || byName != n {
			t.Errorf("ParseName(%q) = %s, %v", n.String(), byName, err)
		}
		byExt, err := ParseName(n.Extension())
		if err != nil || byExt != n {
			t.Errorf("ParseName(%q) = %s, %v", n.Extension(), byExt, err)
		}
	}

	if _, err := ParseName("wallet"); err == nil {
		t.Error("expected error for unknown kind name")
	}

	if s := Number(0x01020304).String(); s != "Number(0x01020304)" {
		t.Errorf("unexpected string for unknown number: %s", s)
	}
	if Genesis.Extension() != "genesis" {
		t.Errorf("unexpected extension %q", Genesis.Extension())
	}
}
