package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrLocked means another run holds the lock and it is not stale.
var ErrLocked = errors.New("another run is in progress")

// Lock is a filesystem mutex for the whole run. A lock file older than
// StaleAfter is treated as the residue of a crashed run and reclaimed.
type Lock struct {
	Path       string
	StaleAfter time.Duration

	// now is replaceable for staleness tests.
	now func() time.Time
}

// Acquire takes the lock, reclaiming a stale one first. The lock file holds
// the owner's PID for operator inspection.
func (l *Lock) Acquire() error {
	if l.now == nil {
		l.now = time.Now
	}

	if err := l.create(); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create lock %s: %w", l.Path, err)
	}

	info, err := os.Stat(l.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// The holder released between our attempts; try again once.
			if cerr := l.create(); cerr == nil {
				return nil
			}

			return ErrLocked
		}

		return fmt.Errorf("stat lock %s: %w", l.Path, err)
	}

	if l.StaleAfter <= 0 || l.now().Sub(info.ModTime()) < l.StaleAfter {
		return ErrLocked
	}

	if err := os.Remove(l.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale lock %s: %w", l.Path, err)
	}

	if err := l.create(); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrLocked
		}

		return fmt.Errorf("create lock %s: %w", l.Path, err)
	}

	return nil
}

// Release removes the lock file. Releasing an already removed lock is not an
// error.
func (l *Lock) Release() error {
	if err := os.Remove(l.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.Path, err)
	}

	return nil
}

func (l *Lock) create() error {
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")

	if cerr := f.Close(); werr == nil {
		werr = cerr
	}

	return werr
}
