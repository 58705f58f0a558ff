package container_test

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/agenthands/rgbkit/internal/testkit"
	"github.com/agenthands/rgbkit/pkg/container"
	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/agenthands/rgbkit/pkg/rgb"
)

func TestGenesisScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.dat")

	n, err := container.WriteFile(&rgb.Genesis{Data: []byte{0x01, 0x02, 0x03}}, path)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 payload bytes written, got %d", n)
	}

	want := []byte{0x2e, 0x91, 0xcb, 0xc0, 0x01, 0x02, 0x03}
	if got := testkit.ReadRaw(t, path); !bytes.Equal(got, want) {
		t.Fatalf("expected file % x, got % x", want, got)
	}

	var g rgb.Genesis
	if err := container.ReadFile(path, &g); err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(g.Data, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("unexpected payload % x", g.Data)
	}

	var s rgb.Schema
	err = container.ReadFile(path, &s)
	var mismatch *container.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *MismatchError, got %v", err)
	}
	if mismatch.Found != magic.Genesis || mismatch.Expected != magic.Schema {
		t.Errorf("expected found Genesis, expected Schema; got found %s, expected %s", mismatch.Found, mismatch.Expected)
	}
	if s.Data != nil {
		t.Error("object must not be touched on mismatch")
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	dir := t.TempDir()
	for _, obj := range sampleObjects() {
		kind := obj.Magic()
		t.Run(kind.String(), func(t *testing.T) {
			path := filepath.Join(dir, "obj."+kind.Extension())

			n, err := container.WriteFile(obj, path)
			if err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			raw := testkit.ReadRaw(t, path)
			if len(raw) != n+magic.Size {
				t.Errorf("file is %d bytes, expected %d payload + 4", len(raw), n)
			}

			got, err := rgb.New(kind)
			if err != nil {
				t.Fatal(err)
			}
			if err := container.ReadFile(path, got); err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			assertEqual(t, obj, got)
		})
	}
}

func TestRoundTripStructural(t *testing.T) {
	cases := map[string]container.Object{
		"EmptySchema":     &rgb.Schema{},
		"EmptyGenesis":    &rgb.Genesis{},
		"EmptyTransition": &rgb.Transition{},
		"EmptyAnchor":     &rgb.Anchor{},
		"BareConsignment": &rgb.Consignment{
			Version: rgb.Version,
			Schema:  rgb.Schema{Data: []byte("schema")},
			Genesis: rgb.Genesis{Data: []byte("genesis")},
		},
		"EmptyStash": &rgb.Stash{Version: rgb.Version},
		"PartialStash": &rgb.Stash{
			Version:     rgb.Version,
			Transitions: []rgb.Transition{{Data: []byte("t")}},
		},
	}

	dir := t.TempDir()
	for name, obj := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if _, err := container.WriteFile(obj, path); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			got, _ := rgb.New(obj.Magic())
			if err := container.ReadFile(path, got); err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			assertEqual(t, obj, got)

			b, err := container.Marshal(obj)
			if err != nil {
				t.Fatal(err)
			}
			fromBytes, _ := rgb.New(obj.Magic())
			if err := container.Unmarshal(b, fromBytes); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			assertEqual(t, obj, fromBytes)
		})
	}
}

func TestMismatchAcrossKinds(t *testing.T) {
	dir := t.TempDir()
	objs := sampleObjects()
	for _, written := range objs {
		path := filepath.Join(dir, written.Magic().Extension())
		if _, err := container.WriteFile(written, path); err != nil {
			t.Fatal(err)
		}
		for _, kind := range magic.All() {
			if kind == written.Magic() {
				continue
			}
			target, _ := rgb.New(kind)
			err := container.ReadFile(path, target)

			var mismatch *container.MismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("%s read as %s: expected *MismatchError, got %v", written.Magic(), kind, err)
			}
			var unknown *container.UnknownMagicError
			if errors.As(err, &unknown) {
				t.Errorf("mismatch must not be reported as unknown magic")
			}
			if !errors.Is(err, core.ErrCorrupt) {
				t.Errorf("expected mismatch to match ErrCorrupt")
			}
		}
	}
}

func TestUnknownMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unknown.dat")
	testkit.WriteRaw(t, path, []byte{0xde, 0xad, 0xbe, 0xef, 0x01})

	var g rgb.Genesis
	err := container.ReadFile(path, &g)
	var unknown *container.UnknownMagicError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownMagicError, got %v", err)
	}
	if unknown.Found != 0xdeadbeef {
		t.Errorf("expected raw value 0xdeadbeef, got 0x%08x", unknown.Found)
	}
	if unknown.Expected != magic.Genesis {
		t.Errorf("expected Genesis as expectation, got %s", unknown.Expected)
	}
	var mismatch *container.MismatchError
	if errors.As(err, &mismatch) {
		t.Error("unknown magic must not be reported as a mismatch")
	}
	if want := "wrong file type: expected genesis file, got unknown magic number 0xdeadbeef"; err.Error() != want {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestTruncatedFiles(t *testing.T) {
	dir := t.TempDir()
	for size := 0; size < magic.Size; size++ {
		path := filepath.Join(dir, "short.dat")
		full := magic.Genesis.Bytes()
		testkit.WriteRaw(t, path, full[:size])

		var g rgb.Genesis
		err := container.ReadFile(path, &g)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("%d-byte file: expected short read, got %v", size, err)
		}
		if errors.Is(err, core.ErrCorrupt) {
			t.Errorf("%d-byte file: short read must not be a data-integrity error", size)
		}

		if _, _, err := container.ReadFileRaw(path); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("%d-byte file: ReadFileRaw expected short read, got %v", size, err)
		}
	}
}

func TestTagOnlyFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("OpaqueAcceptsEmpty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.genesis")
		tag := magic.Genesis.Bytes()
		testkit.WriteRaw(t, path, tag[:])

		var g rgb.Genesis
		if err := container.ReadFile(path, &g); err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if len(g.Data) != 0 {
			t.Errorf("expected empty payload, got % x", g.Data)
		}
	})

	t.Run("CompoundRejectsEmpty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.consignment")
		tag := magic.Consignment.Bytes()
		testkit.WriteRaw(t, path, tag[:])

		var c rgb.Consignment
		err := container.ReadFile(path, &c)
		if !errors.Is(err, core.ErrCorrupt) {
			t.Errorf("expected decode error, got %v", err)
		}
		var mismatch *container.MismatchError
		if errors.As(err, &mismatch) {
			t.Error("decode failure must not look like a mismatch")
		}
	})
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	c := sampleConsignment()
	path := filepath.Join(dir, "c.consignment")
	if _, err := container.WriteFile(c, path); err != nil {
		t.Fatal(err)
	}

	t.Run("TruncatedPayload", func(t *testing.T) {
		raw := testkit.ReadRaw(t, path)
		p := filepath.Join(dir, "truncated.consignment")
		testkit.WriteRaw(t, p, raw[:len(raw)-3])

		var got rgb.Consignment
		if err := container.ReadFile(p, &got); !errors.Is(err, core.ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("TrailingGarbage", func(t *testing.T) {
		raw := testkit.ReadRaw(t, path)
		p := filepath.Join(dir, "trailing.consignment")
		testkit.WriteRaw(t, p, append(raw, 0x00, 0x01))

		var got rgb.Consignment
		if err := container.ReadFile(p, &got); !errors.Is(err, core.ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})
}

func TestMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.genesis")

	var g rgb.Genesis
	err := container.ReadFile(path, &g)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Errorf("expected the OS error to be preserved, got %T", err)
	}
}

func TestWriteFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("UnregisteredKind", func(t *testing.T) {
		obj := &testkit.FailingObject{Kind: magic.Number(0x01020304)}
		_, err := container.WriteFile(obj, filepath.Join(dir, "x"))
		if !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "x")); !errors.Is(err, fs.ErrNotExist) {
			t.Error("no file should be created for an unregistered kind")
		}
	})

	t.Run("EncoderErrorPassedThrough", func(t *testing.T) {
		sentinel := errors.New("invariant violated")
		obj := &testkit.FailingObject{Kind: magic.Anchor, Partial: []byte{0xaa}, Err: sentinel}
		_, err := container.WriteFile(obj, filepath.Join(dir, "failing.anchor"))
		if err != sentinel {
			t.Errorf("expected encoder error unchanged, got %v", err)
		}
	})

	t.Run("InvalidCompound", func(t *testing.T) {
		c := sampleConsignment()
		c.Version = 7
		_, err := container.WriteFile(c, filepath.Join(dir, "bad.consignment"))
		if !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		_, err := container.WriteFile(&rgb.Schema{Data: []byte{1}}, filepath.Join(dir, "nope", "s.schema"))
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected ErrNotExist, got %v", err)
		}
	})
}

func TestCreateTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.schema")
	if _, err := container.WriteFile(&rgb.Schema{Data: bytes.Repeat([]byte{0x55}, 64)}, path); err != nil {
		t.Fatal(err)
	}
	if _, err := container.WriteFile(&rgb.Schema{Data: []byte{0x01}}, path); err != nil {
		t.Fatal(err)
	}

	raw := testkit.ReadRaw(t, path)
	if len(raw) != 5 {
		t.Fatalf("expected rewritten file of 5 bytes, got %d", len(raw))
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "g.genesis")

	g := &rgb.Genesis{Data: []byte{0x01, 0x02, 0x03}}
	n, err := container.WriteFileAtomic(g, path)
	if err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 bytes, got %d", n)
	}

	plain := filepath.Join(dir, "plain.genesis")
	if _, err := container.WriteFile(g, plain); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(testkit.ReadRaw(t, path), testkit.ReadRaw(t, plain)) {
		t.Error("atomic and plain writes must produce identical bytes")
	}

	failing := &testkit.FailingObject{Kind: magic.Genesis, Partial: []byte{0xff}}
	if _, err := container.WriteFileAtomic(failing, path); !errors.Is(err, testkit.ErrInjectedFault) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	if !bytes.Equal(testkit.ReadRaw(t, path), testkit.ReadRaw(t, plain)) {
		t.Error("failed atomic write must leave the previous file intact")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestReadFileRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.dat")
	testkit.WriteRaw(t, path, []byte{0xde, 0xad, 0xbe, 0xef, 0x10, 0x20})

	tag, payload, err := container.ReadFileRaw(path)
	if err != nil {
		t.Fatalf("ReadFileRaw failed: %v", err)
	}
	if tag != 0xdeadbeef {
		t.Errorf("expected tag 0xdeadbeef, got 0x%08x", tag)
	}
	if !bytes.Equal(payload, []byte{0x10, 0x20}) {
		t.Errorf("unexpected payload % x", payload)
	}
}

func TestOpenFileModes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	if _, err := container.OpenFile(path, container.Read); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read on a missing file: expected ErrNotExist, got %v", err)
	}
	if _, err := container.OpenFile(path, container.Write); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Write on a missing file: expected ErrNotExist, got %v", err)
	}

	f, err := container.OpenFile(path, container.Create)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	f.Write([]byte{0x2e, 0x91, 0xcb, 0xc0, 0x01, 0x02})
	f.Close()

	// Write mode rewrites in place without truncating.
	f, err = container.OpenFile(path, container.Write)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := f.WriteAt([]byte{0x09}, 5); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if got := testkit.ReadRaw(t, path); !bytes.Equal(got, []byte{0x2e, 0x91, 0xcb, 0xc0, 0x01, 0x09}) {
		t.Errorf("unexpected contents % x", got)
	}

	f, err = container.OpenFile(path, container.Read)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte{0x00}); err == nil {
		t.Error("Read mode must not allow writes")
	}
	f.Close()

	if _, err := container.OpenFile(path, container.FileMode(9)); err == nil {
		t.Error("expected error for invalid mode")
	}
	if container.Create.String() != "Create" {
		t.Errorf("unexpected mode name %q", container.Create.String())
	}
}

func sampleConsignment() *rgb.Consignment {
	return &rgb.Consignment{
		Version:     rgb.Version,
		Schema:      rgb.Schema{Data: []byte("schema")},
		Genesis:     rgb.Genesis{Data: []byte("genesis")},
		Transitions: []rgb.Transition{{Data: []byte("t1")}, {Data: []byte("t2")}},
		Anchors:     []rgb.Anchor{{Data: []byte("a1")}},
	}
}

func sampleObjects() []container.Object {
	r := testkit.RNG(42)
	return []container.Object{
		&rgb.Schema{Data: testkit.RandomBytes(r, 300)},
		&rgb.Genesis{Data: []byte{0x01, 0x02, 0x03}},
		&rgb.Transition{Data: testkit.RandomBytes(r, 17)},
		&rgb.Anchor{Data: testkit.RandomBytes(r, 64)},
		sampleConsignment(),
		&rgb.Stash{
			Version:  rgb.Version,
			Schemata: []rgb.Schema{{Data: []byte("s")}},
			Genesis:  []rgb.Genesis{{Data: []byte("g1")}, {Data: []byte("g2")}},
		},
	}
}

// assertEqual requires structural equality and equal container encodings.
func assertEqual(t *testing.T, want, got container.Object) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Errorf("objects differ:\nwant %#v\n got %#v", want, got)
	}
	a, err := container.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	b, err := container.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("objects differ:\nwant % x\n got % x", a, b)
	}
}
