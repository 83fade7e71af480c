package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempLock(t *testing.T) *Lock {
	t.Helper()

	return &Lock{
		Path:       filepath.Join(t.TempDir(), "run.lock"),
		StaleAfter: 20 * time.Minute,
	}
}

func TestLockAcquireRelease(t *testing.T) {
	l := tempLock(t)

	require.NoError(t, l.Acquire())

	data, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	require.NoError(t, l.Release())

	_, err = os.Stat(l.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestLockHeldByFreshHolder(t *testing.T) {
	l := tempLock(t)
	require.NoError(t, l.Acquire())

	other := &Lock{Path: l.Path, StaleAfter: l.StaleAfter}

	assert.ErrorIs(t, other.Acquire(), ErrLocked)
}

func TestLockStaleHolderReclaimed(t *testing.T) {
	l := tempLock(t)
	require.NoError(t, l.Acquire())

	other := &Lock{
		Path:       l.Path,
		StaleAfter: 20 * time.Minute,
		now:        func() time.Time { return time.Now().Add(25 * time.Minute) },
	}

	require.NoError(t, other.Acquire())

	data, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestLockReleaseIdempotent(t *testing.T) {
	l := tempLock(t)
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
	assert.NoError(t, l.Release())
}
