package buffer

import (
	"sync"

	"pagestore/disk"

	"github.com/pkg/errors"
)

// fakeDiskManager is an in-memory disk.Manager whose reads and writes can be
// made to fail for specific page ids, so the buffer pool manager's error
// handling around eviction write-backs and fetch reads can be exercised
// without touching a real file.
type fakeDiskManager struct {
	mu         sync.Mutex
	pages      map[disk.PageID][disk.PageSize]byte
	failReads  map[disk.PageID]bool
	failWrites map[disk.PageID]bool
}

var _ disk.Manager = &fakeDiskManager{}

func newFakeDiskManager() *fakeDiskManager {
	return &fakeDiskManager{
		pages:      make(map[disk.PageID][disk.PageSize]byte),
		failReads:  make(map[disk.PageID]bool),
		failWrites: make(map[disk.PageID]bool),
	}
}

func (f *fakeDiskManager) failWrite(id disk.PageID, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites[id] = fail
}

func (f *fakeDiskManager) failRead(id disk.PageID, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads[id] = fail
}

func (f *fakeDiskManager) ReadPage(id disk.PageID, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failReads[id] {
		return errors.Errorf("fake: read page %d failed", id)
	}
	data := f.pages[id]
	copy(buf, data[:])
	return nil
}

func (f *fakeDiskManager) WritePage(id disk.PageID, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWrites[id] {
		return errors.Errorf("fake: write page %d failed", id)
	}
	var data [disk.PageSize]byte
	copy(data[:], buf)
	f.pages[id] = data
	return nil
}

func (f *fakeDiskManager) DeallocatePage(id disk.PageID) error {
	return nil
}

func (f *fakeDiskManager) Close() error {
	return nil
}
