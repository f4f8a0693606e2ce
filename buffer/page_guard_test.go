package buffer

import (
	"os"
	"testing"

	"pagestore/common"
	"pagestore/disk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageGuard_BasicDropUnpinsOnce(t *testing.T) {
	path := "test_guard_basic.db"
	os.Remove(path)
	dm, err := disk.NewFileManager(path, disk.CompressionSnappy)
	require.NoError(t, err)
	defer func() { dm.Close(); common.Remove(path) }()

	bpm := NewBufferPoolManager(2, dm, 2, nil)

	id, guard, ok := bpm.NewPageGuarded()
	require.True(t, ok)
	assert.Equal(t, id, guard.PageID())

	page := bpm.pages[bpm.pageTable[id]]
	require.Equal(t, 1, page.PinCount())

	guard.Drop()
	assert.Equal(t, 0, page.PinCount())

	// dropping twice must not double-unpin.
	guard.Drop()
	assert.Equal(t, 0, page.PinCount())
}

func TestPageGuard_WriteGuardMarksDirty(t *testing.T) {
	path := "test_guard_write.db"
	os.Remove(path)
	dm, err := disk.NewFileManager(path, disk.CompressionSnappy)
	require.NoError(t, err)
	defer func() { dm.Close(); common.Remove(path) }()

	bpm := NewBufferPoolManager(2, dm, 2, nil)
	id, _, err := bpm.NewPage()
	require.NoError(t, err)
	require.True(t, bpm.UnpinPage(id, false))

	guard, ok := bpm.FetchPageWrite(id)
	require.True(t, ok)
	copy(guard.Data(), "hello")
	guard.Drop()

	page := bpm.pages[bpm.pageTable[id]]
	assert.True(t, page.IsDirty())
}

func TestPageGuard_ReadGuardDoesNotMarkDirty(t *testing.T) {
	path := "test_guard_read.db"
	os.Remove(path)
	dm, err := disk.NewFileManager(path, disk.CompressionSnappy)
	require.NoError(t, err)
	defer func() { dm.Close(); common.Remove(path) }()

	bpm := NewBufferPoolManager(2, dm, 2, nil)
	id, _, err := bpm.NewPage()
	require.NoError(t, err)
	require.True(t, bpm.UnpinPage(id, false))

	guard, ok := bpm.FetchPageRead(id)
	require.True(t, ok)
	_ = guard.Data()
	guard.Drop()

	page := bpm.pages[bpm.pageTable[id]]
	assert.False(t, page.IsDirty())
}

func TestPageGuard_FetchFailurePropagates(t *testing.T) {
	path := "test_guard_fail.db"
	os.Remove(path)
	dm, err := disk.NewFileManager(path, disk.CompressionSnappy)
	require.NoError(t, err)
	defer func() { dm.Close(); common.Remove(path) }()

	bpm := NewBufferPoolManager(1, dm, 2, nil)
	_, _, _ = bpm.NewPage() // pins the pool's only frame

	_, ok := bpm.FetchPageRead(disk.PageID(123))
	assert.False(t, ok, "a failed fetch must not be silently latched")
}
