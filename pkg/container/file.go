package container

import (
	"fmt"
	"os"
)

// FileMode selects how OpenFile opens a path.
type FileMode int

const (
	// Read opens an existing file read-only.
	Read FileMode = iota
	// Write opens an existing file for reading and writing without
	// truncating it. The leading magic number is not touched; callers
	// rewriting a file in place must not clobber it.
	Write
	// Create creates the file, or truncates it if it exists.
	Create
)

func (m FileMode) String() string {
	switch m {
	case Read:
		return "Read"
	case Write:
		return "Write"
	case Create:
		return "Create"
	default:
		return fmt.Sprintf("FileMode(%d)", int(m))
	}
}

// OpenFile opens path in the given mode. Errors from the filesystem are
// returned as-is.
func OpenFile(path string, mode FileMode) (*os.File, error) {
	switch mode {
	case Read:
		return os.Open(path)
	case Write:
		return os.OpenFile(path, os.O_RDWR, 0)
	case Create:
		return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	default:
		return nil, fmt.Errorf("container: invalid file mode %d", int(mode))
	}
}
