package media

import (
	"errors"
	"io/fs"
	"os"
	"sync"
)

// TempFile is a scoped handle for a transient artifact on disk. The zero value
// is not usable; instances come from Codec.
type TempFile struct {
	path string
	size int64

	mu       sync.Mutex
	released bool
}

// Path returns the file-system path of the artifact.
func (f *TempFile) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

// Size returns the number of bytes written.
func (f *TempFile) Size() int64 {
	if f == nil {
		return 0
	}
	return f.size
}

// Released reports whether Release already removed the file.
func (f *TempFile) Released() bool {
	if f == nil {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// Release removes the artifact. It is safe to call more than once.
func (f *TempFile) Release() error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return nil
	}
	f.released = true
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// String returns the path so handles print like the paths they wrap.
func (f *TempFile) String() string {
	return f.Path()
}

// ReleaseAll releases every handle and returns the first error.
func ReleaseAll(files ...*TempFile) error {
	var first error
	for _, file := range files {
		if err := file.Release(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
