package core

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("rgbkit: not found")
	ErrInvalidInput = errors.New("rgbkit: invalid input")
	ErrCorrupt      = errors.New("rgbkit: corrupt data")
	ErrTooLarge     = errors.New("rgbkit: too large")
	ErrClosed       = errors.New("rgbkit: store closed")
)
