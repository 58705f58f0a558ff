package testkit

import (
	"os"
	"testing"
)

// WriteRaw writes b to path, failing the test on error.
func WriteRaw(t testing.TB, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadRaw returns the bytes of path, failing the test on error.
func ReadRaw(t testing.TB, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return b
}

// CorruptByte flips every bit of the byte at offset in the file at path.
func CorruptByte(t testing.TB, path string, offset int) {
	t.Helper()
	b := ReadRaw(t, path)
	if offset >= len(b) {
		t.Fatalf("offset %d beyond %d-byte file %s", offset, len(b), path)
	}
	b[offset] ^= 0xFF
	WriteRaw(t, path, b)
}

// Truncate cuts the file at path down to size bytes.
func Truncate(t testing.TB, path string, size int64) {
	t.Helper()
	if err := os.Truncate(path, size); err != nil {
		t.Fatalf("failed to truncate %s: %v", path, err)
	}
}
