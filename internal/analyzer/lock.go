package analyzer

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// packageLock couples an advisory flock with a read-only permission hold on
// the archive, so a package under validation is neither reprocessed nor
// rewritten from outside.
type packageLock struct {
	path     string
	flock    *flock.Flock
	held     bool
	prevMode os.FileMode
}

func newPackageLock(path string) *packageLock {
	return &packageLock{path: path, flock: flock.New(path + ".lock")}
}

// Lock acquires the exclusive hold and drops the archive to read-only.
func (a *Analyzer) Lock() error {
	if a.lock.held {
		return nil
	}

	ok, err := a.lock.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock package %q: %w", a.path, err)
	}
	if !ok {
		return fmt.Errorf("lock package %q: already held", a.path)
	}

	info, err := os.Stat(a.path)
	if err != nil {
		_ = a.lock.flock.Unlock()
		return fmt.Errorf("lock package %q: %w", a.path, err)
	}
	a.lock.prevMode = info.Mode().Perm()

	if err := os.Chmod(a.path, 0o444); err != nil {
		_ = a.lock.flock.Unlock()
		return fmt.Errorf("lock package %q: %w", a.path, err)
	}

	a.lock.held = true
	return nil
}

// Restore releases the hold and puts the original permissions back. It is
// safe to call on an unlocked analyzer.
func (a *Analyzer) Restore() error {
	if !a.lock.held {
		return nil
	}
	a.lock.held = false

	chmodErr := os.Chmod(a.path, a.lock.prevMode)
	unlockErr := a.lock.flock.Unlock()
	_ = os.Remove(a.lock.flock.Path())

	if chmodErr != nil {
		return fmt.Errorf("restore package %q: %w", a.path, chmodErr)
	}
	if unlockErr != nil {
		return fmt.Errorf("unlock package %q: %w", a.path, unlockErr)
	}
	return nil
}
