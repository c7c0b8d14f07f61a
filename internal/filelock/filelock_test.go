package filelock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	unlock, err := Lock(path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = LockContext(ctx, path)
	assert.ErrorIs(t, err, ErrTimeout)

	require.NoError(t, unlock())

	unlock, err = LockContext(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, unlock())
}
