package testkit

import (
	"errors"
	"io"

	"github.com/agenthands/rgbkit/pkg/magic"
)

var ErrInjectedFault = errors.New("injected fault")

// ErrorReader wraps an io.Reader and returns an error after returning N bytes.
type ErrorReader struct {
	r     io.Reader
	limit int64
	read  int64
	err   error
}

// NewErrorReader returns a reader that will inject the given error after reading 'limit' bytes.
// If err is nil, ErrInjectedFault is used.
func NewErrorReader(r io.Reader, limit int64, err error) *ErrorReader {
	if err == nil {
		err = ErrInjectedFault
	}
	return &ErrorReader{
		r:     r,
		limit: limit,
		err:   err,
	}
}

func (e *ErrorReader) Read(p []byte) (n int, err error) {
	if e.read >= e.limit {
		return 0, e.err
	}

	space := e.limit - e.read
	if int64(len(p)) > space {
		p = p[:space]
	}

	n, err = e.r.Read(p)
	e.read += int64(n)

	if err != nil {
		return n, err
	}

	if e.read >= e.limit {
		return n, e.err
	}

	return n, nil
}

// ErrorWriter accepts 'limit' bytes and then fails every write.
type ErrorWriter struct {
	limit   int
	written int
	err     error
	Data    []byte
}

// NewErrorWriter returns a writer that injects err once 'limit' bytes are written.
// If err is nil, ErrInjectedFault is used.
func NewErrorWriter(limit int, err error) *ErrorWriter {
	if err == nil {
		err = ErrInjectedFault
	}
	return &ErrorWriter{limit: limit, err: err}
}

func (e *ErrorWriter) Write(p []byte) (int, error) {
	space := e.limit - e.written
	if space <= 0 {
		return 0, e.err
	}
	if len(p) > space {
		e.Data = append(e.Data, p[:space]...)
		e.written += space
		return space, e.err
	}
	e.Data = append(e.Data, p...)
	e.written += len(p)
	return len(p), nil
}

// FailingObject is a container object whose encoder always fails after
// writing Partial bytes.
type FailingObject struct {
	Kind    magic.Number
	Partial []byte
	Err     error
}

func (f *FailingObject) Magic() magic.Number { return f.Kind }

func (f *FailingObject) StrictEncode(w io.Writer) (int, error) {
	n, err := w.Write(f.Partial)
	if err != nil {
		return n, err
	}
	if f.Err == nil {
		return n, ErrInjectedFault
	}
	return n, f.Err
}

func (f *FailingObject) StrictDecode(r io.Reader) error {
	return ErrInjectedFault
}
