package container

import (
	"fmt"
	"strings"

	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
)

// UnknownMagicError reports a leading tag that names no registered kind:
// the data is not a container at all.
type UnknownMagicError struct {
	Expected magic.Number // zero when the caller had no expectation
	Found    uint32
}

func (e *UnknownMagicError) Error() string {
	if e.Expected == 0 {
		return fmt.Sprintf("wrong file type: unknown magic number 0x%08x", e.Found)
	}
	return fmt.Sprintf("wrong file type: expected %s file, got unknown magic number 0x%08x",
		strings.ToLower(e.Expected.String()), e.Found)
}

func (e *UnknownMagicError) Is(target error) bool {
	return target == core.ErrCorrupt
}

// MismatchError reports a container of a registered kind other than the
// one the caller asked for.
type MismatchError struct {
	Found    magic.Number
	Expected magic.Number
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("wrong file type: expected %s file, got %s",
		strings.ToLower(e.Expected.String()), e.Found)
}

func (e *MismatchError) Is(target error) bool {
	return target == core.ErrCorrupt
}

// Check validates a raw tag against the expected kind.
func Check(found uint32, expected magic.Number) error {
	n, err := magic.FromUint32(found)
	if err != nil {
		return &UnknownMagicError{Expected: expected, Found: found}
	}
	if n != expected {
		return &MismatchError{Found: n, Expected: expected}
	}
	return nil
}
