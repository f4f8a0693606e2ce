package buffer

import (
	"sync"

	"pagestore/disk"
	"pagestore/wal"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// BufferPoolManager owns a fixed array of page frames, a page-id -> frame-id
// index, a free-frame list, and an LRU-K replacer, and serializes every
// public operation under a single mutex.
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize int
	pages    []*disk.Page // frames[f].page_id == InvalidPageID means the frame is conceptually empty

	pageTable map[disk.PageID]FrameID
	freeList  []FrameID

	nextPageID disk.PageID

	replacer    *LRUKReplacer
	diskManager disk.Manager
	logManager  wal.LogManager
}

// NewBufferPoolManager constructs a pool of poolSize frames backed by dm,
// using replacerK as the K of the LRU-K replacer.
func NewBufferPoolManager(poolSize int, dm disk.Manager, replacerK int, lm wal.LogManager) *BufferPoolManager {
	if lm == nil {
		lm = wal.NoopLogManager{}
	}

	pages := make([]*disk.Page, poolSize)
	freeList := make([]FrameID, poolSize)
	for i := 0; i < poolSize; i++ {
		pages[i] = disk.NewPage()
		freeList[i] = FrameID(i)
	}

	return &BufferPoolManager{
		poolSize:    poolSize,
		pages:       pages,
		pageTable:   make(map[disk.PageID]FrameID),
		freeList:    freeList,
		replacer:    NewLRUKReplacer(poolSize, replacerK),
		diskManager: dm,
		logManager:  lm,
	}
}

// PoolSize returns the fixed number of frames in the pool.
func (b *BufferPoolManager) PoolSize() int { return b.poolSize }

// allocatePage hands out the next page id. Ids are never reused.
func (b *BufferPoolManager) allocatePage() disk.PageID {
	id := b.nextPageID
	b.nextPageID++
	return id
}

// deallocatePage notifies the disk manager that id is free.
func (b *BufferPoolManager) deallocatePage(id disk.PageID) {
	if err := b.diskManager.DeallocatePage(id); err != nil {
		log.WithError(err).WithField("page_id", id).Warn("bpm: deallocate page failed")
	}
}

// reserveFrameLocked returns a frame to install a page into: a free frame if one
// exists, otherwise an evicted frame. It writes the evicted frame's page
// back to disk first if it was dirty. Callers must hold b.mu.
//
// ok is false if no frame is available to reserve, which is an expected,
// non-exceptional outcome. err is non-nil only if a victim's write-back
// failed; in that case the victim keeps its dirty data and is handed back
// to the replacer as evictable so a later eviction can retry it, instead of
// being silently overwritten.
func (b *BufferPoolManager) reserveFrameLocked() (FrameID, bool, error) {
	if n := len(b.freeList); n > 0 {
		f := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		return f, true, nil
	}

	f, ok := b.replacer.Evict()
	if !ok {
		return 0, false, nil
	}

	victim := b.pages[f]
	if victim.IsDirty() {
		if err := b.diskManager.WritePage(victim.ID(), victim.Data[:]); err != nil {
			b.replacer.RecordAccess(f)
			b.replacer.SetEvictable(f, true)
			return 0, false, errors.Wrapf(err, "bpm: write back frame %d (page %d) before eviction", f, victim.ID())
		}
		victim.MarkClean()
	}
	delete(b.pageTable, victim.ID())
	return f, true, nil
}

// NewPage allocates a fresh page, pins it, and returns it along with its id.
// It returns (InvalidPageID, nil, nil) if the pool has no evictable or free
// frame, and (InvalidPageID, nil, err) if a frame could be reserved only by
// evicting a dirty victim whose write-back to disk failed.
func (b *BufferPoolManager) NewPage() (disk.PageID, *disk.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok, err := b.reserveFrameLocked()
	if err != nil {
		return disk.InvalidPageID, nil, err
	}
	if !ok {
		log.Warn("bpm: new page failed, pool is fully pinned")
		return disk.InvalidPageID, nil, nil
	}

	id := b.allocatePage()
	b.pageTable[id] = f

	page := b.pages[f]
	page.SetID(id)
	page.Reset()
	page.IncrPinCount()

	b.replacer.RecordAccess(FrameID(f))
	b.replacer.SetEvictable(FrameID(f), false)

	return id, page, nil
}

// FetchPage returns the page identified by id, pinning it. If the page is
// not already resident, it is installed into a free or evicted frame and
// read from disk. Returns (nil, nil) if no frame is available, and
// (nil, err) if a frame could not be reserved or the page's data could not
// be read from disk; in the latter case the frame is released back to the
// pool rather than being handed out under id's identity with stale or
// zeroed data.
func (b *BufferPoolManager) FetchPage(id disk.PageID) (*disk.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if f, ok := b.pageTable[id]; ok {
		page := b.pages[f]
		page.IncrPinCount()
		b.replacer.RecordAccess(f)
		b.replacer.SetEvictable(f, false)
		return page, nil
	}

	f, ok, err := b.reserveFrameLocked()
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Warn("bpm: fetch page failed, pool is fully pinned")
		return nil, nil
	}

	page := b.pages[f]
	page.SetID(id)
	page.Reset()

	if err := b.diskManager.ReadPage(id, page.Data[:]); err != nil {
		page.SetID(disk.InvalidPageID)
		page.Reset()
		b.freeList = append(b.freeList, f)
		return nil, errors.Wrapf(err, "bpm: read page %d from disk", id)
	}

	b.pageTable[id] = f
	page.IncrPinCount()
	b.replacer.SetEvictable(f, false)
	b.replacer.RecordAccess(f)

	return page, nil
}

// UnpinPage decrements id's pin count, ORing isDirty into its dirty flag.
// Once the pin count reaches zero the frame becomes evictable. Returns
// false if id is not resident or already has a zero pin count.
func (b *BufferPoolManager) UnpinPage(id disk.PageID, isDirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.pageTable[id]
	if !ok {
		return false
	}

	page := b.pages[f]
	if page.PinCount() == 0 {
		return false
	}

	page.MarkDirty(isDirty)
	if page.DecrPinCount() {
		b.replacer.SetEvictable(f, true)
	}
	return true
}

// FlushPage writes id's data to disk unconditionally, even if it is not
// dirty, and clears its dirty flag. Returns false for disk.InvalidPageID, a
// non-resident page, or a write that failed to reach disk — in the last
// case the dirty flag is left set so the page remains a candidate for a
// later retry instead of being wrongly marked clean. Note the asymmetry
// with FlushAllPages, which only writes dirty pages.
func (b *BufferPoolManager) FlushPage(id disk.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id == disk.InvalidPageID {
		return false
	}
	f, ok := b.pageTable[id]
	if !ok {
		return false
	}

	page := b.pages[f]
	if err := b.diskManager.WritePage(id, page.Data[:]); err != nil {
		log.WithError(err).WithField("page_id", id).Error("bpm: flush page failed")
		return false
	}
	page.MarkClean()
	return true
}

// FlushAllPages writes back every resident, dirty page.
func (b *BufferPoolManager) FlushAllPages() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, f := range b.pageTable {
		page := b.pages[f]
		if !page.IsDirty() {
			continue
		}
		if err := b.diskManager.WritePage(id, page.Data[:]); err != nil {
			log.WithError(err).WithField("page_id", id).Error("bpm: flush all pages failed")
			continue
		}
		page.MarkClean()
	}
}

// DeletePage removes id from the pool and deallocates it at the storage
// layer. Returns true immediately if id is not resident. Returns false if
// it is resident and still pinned, or if it is dirty and its write-back to
// disk fails — in the latter case the page is left resident and dirty
// rather than discarding the unwritten data.
func (b *BufferPoolManager) DeletePage(id disk.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.pageTable[id]
	if !ok {
		return true
	}

	page := b.pages[f]
	if page.PinCount() > 0 {
		return false
	}

	if page.IsDirty() {
		if err := b.diskManager.WritePage(id, page.Data[:]); err != nil {
			log.WithError(err).WithField("page_id", id).Error("bpm: write back deleted page failed")
			return false
		}
	}

	delete(b.pageTable, id)
	page.SetID(disk.InvalidPageID)
	page.Reset()

	b.replacer.Remove(f)
	b.freeList = append(b.freeList, f)

	b.deallocatePage(id)
	return true
}
