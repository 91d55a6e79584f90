package os

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Flock guards against multiple instances of the app on one machine
// binding the same source name and genlock port.
type Flock struct {
	f *flock.Flock
}

func NewFileLock(path string) (*Flock, error) {
	if path == "" {
		path = os.TempDir() + string(os.PathSeparator) + "html2ndi.lock"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, err
	} else {
		f, err := os.Create(path)
		defer func() { _ = f.Close() }()
		if err != nil {
			return nil, err
		}
	}

	return &Flock{f: flock.New(path)}, nil
}

func (f *Flock) TryLock() (bool, error) { return f.f.TryLock() }
func (f *Flock) Lock() error            { return f.f.Lock() }
func (f *Flock) Unlock() error          { return f.f.Unlock() }
