package core

// ID holds the binary CID of a container file.
type ID struct {
	Bytes []byte
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return len(id.Bytes) == 0
}
