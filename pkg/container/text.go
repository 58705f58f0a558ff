package container

import (
	"fmt"

	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/multiformats/go-multibase"
)

// TextEncoding is the multibase used by EncodeString.
const TextEncoding = multibase.Base58BTC

// EncodeString returns the container bytes of obj as a multibase string.
func EncodeString(obj Object) (string, error) {
	b, err := Marshal(obj)
	if err != nil {
		return "", err
	}
	return multibase.Encode(TextEncoding, b)
}

// DecodeString decodes a multibase string produced by EncodeString. Any
// multibase prefix is accepted.
func DecodeString(s string, obj Object) error {
	b, err := decodeText(s)
	if err != nil {
		return err
	}
	return Unmarshal(b, obj)
}

// PeekString resolves the kind of an encoded string.
func PeekString(s string) (magic.Number, error) {
	b, err := decodeText(s)
	if err != nil {
		return 0, err
	}
	return Peek(b)
}

func decodeText(s string) ([]byte, error) {
	_, b, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid multibase string: %v", core.ErrCorrupt, err)
	}
	return b, nil
}
