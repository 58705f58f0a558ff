// Package container reads and writes typed container files: a 4-byte
// big-endian magic number followed by the strict encoding of one object.
//
//	offset 0 : 4 bytes  magic number
//	offset 4 : N bytes  strict-encoded payload, N = remaining length
//
// There is no length prefix, checksum or version field. The magic number is
// validated before any payload byte is decoded.
package container

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/agenthands/rgbkit/pkg/strict"
)

// Object is a value that can be stored in a container. Magic names the
// kind written on encode and expected on decode.
type Object interface {
	Magic() magic.Number
	strict.Encoder
	strict.Decoder
}

// WriteFile creates (or truncates) path and writes obj into it. It returns
// the number of payload bytes written, not counting the magic number.
//
// The tag and the payload are two separate writes; a concurrent reader may
// observe a tag with a partial payload. Use WriteFileAtomic when that matters.
func WriteFile(obj Object, path string) (n int, err error) {
	if err := checkRegistered(obj); err != nil {
		return 0, err
	}

	f, err := OpenFile(path, Create)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return writeTo(f, obj)
}

// WriteFileAtomic writes the same bytes as WriteFile into a temporary file in
// the target directory and renames it over path once it is synced.
func WriteFileAtomic(obj Object, path string) (int, error) {
	if err := checkRegistered(obj); err != nil {
		return 0, err
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	fail := func(err error) (int, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return 0, err
	}

	n, err := writeTo(tmp, obj)
	if err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	return n, nil
}

// ReadFile reads path into obj. The leading tag must name obj.Magic();
// otherwise an *UnknownMagicError or *MismatchError is returned and obj is
// left untouched. Errors from the payload decoder are returned unchanged.
func ReadFile(path string, obj Object) error {
	f, err := OpenFile(path, Read)
	if err != nil {
		return err
	}
	defer f.Close()

	return readFrom(bufio.NewReader(f), obj)
}

// ReadFileRaw returns the tag and payload of path without interpreting
// either.
func ReadFileRaw(path string) (uint32, []byte, error) {
	f, err := OpenFile(path, Read)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	tag, err := readMagic(r)
	if err != nil {
		return 0, nil, err
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return 0, nil, err
	}
	return tag, payload, nil
}

func checkRegistered(obj Object) error {
	if _, err := magic.FromUint32(obj.Magic().Uint32()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return nil
}

func writeTo(w io.Writer, obj Object) (int, error) {
	tag := obj.Magic().Bytes()
	if _, err := strict.WriteBytes(w, tag[:]); err != nil {
		return 0, fmt.Errorf("container: writing magic number: %w", err)
	}
	return obj.StrictEncode(w)
}

func readFrom(r io.Reader, obj Object) error {
	tag, err := readMagic(r)
	if err != nil {
		return err
	}
	if err := Check(tag, obj.Magic()); err != nil {
		return err
	}
	return obj.StrictDecode(r)
}

// readMagic reads exactly magic.Size bytes. Fewer bytes, including none at
// all, is a short read.
func readMagic(r io.Reader) (uint32, error) {
	var buf [magic.Size]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("container: reading magic number: %w", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
