package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/agenthands/rgbkit/pkg/container"
	"github.com/agenthands/rgbkit/pkg/core"
)

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// describe renders err for the terminal. Wrong-kind containers, files that
// are no containers at all and damaged files each get their own prefix.
func describe(err error) string {
	var unknown *container.UnknownMagicError
	var mismatch *container.MismatchError
	switch {
	case errors.As(err, &unknown):
		return "not a container file: " + err.Error()
	case errors.As(err, &mismatch):
		return "container of the wrong kind: " + err.Error()
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "file is truncated: " + err.Error()
	case errors.Is(err, core.ErrCorrupt):
		return "file is corrupted: " + err.Error()
	case errors.Is(err, fs.ErrNotExist):
		return "no such file: " + err.Error()
	case errors.Is(err, core.ErrNotFound):
		return "not in wallet: " + err.Error()
	default:
		return err.Error()
	}
}
