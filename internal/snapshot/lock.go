package snapshot

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another run currently holds the data dir.
var ErrLocked = errors.New("another run is in progress")

// AcquireLock takes the data-dir run lock. The model is single-process,
// single-run-at-a-time; a held lock is a caller error, not a wait condition.
func AcquireLock(dataDir string) (*flock.Flock, error) {
	l := flock.New(filepath.Join(dataDir, "run.lock"))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("run lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return l, nil
}
