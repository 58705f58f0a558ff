package container

import (
	"bytes"

	"github.com/agenthands/rgbkit/pkg/magic"
)

// Marshal returns the container bytes of obj, as WriteFile would store them.
func Marshal(obj Object) ([]byte, error) {
	if err := checkRegistered(obj); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := writeTo(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes container bytes into obj with the same checks as
// ReadFile.
func Unmarshal(b []byte, obj Object) error {
	return readFrom(bytes.NewReader(b), obj)
}

// Peek resolves the kind of container bytes without decoding the payload.
func Peek(b []byte) (magic.Number, error) {
	tag, err := readMagic(bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	n, err := magic.FromUint32(tag)
	if err != nil {
		return 0, &UnknownMagicError{Found: tag}
	}
	return n, nil
}
