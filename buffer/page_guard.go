package buffer

import "pagestore/disk"

// BasicPageGuard is a scope-bound handle that pins a page on acquisition
// and unpins it on release, generalized to three guard strengths via
// FetchPageBasic/FetchPageRead/FetchPageWrite.
//
// A guard's zero value is considered already dropped, so calling Drop on
// it (including a second time) is a safe no-op — Go has no destructors, so
// callers are expected to `defer guard.Drop()` themselves.
type BasicPageGuard struct {
	bpm     *BufferPoolManager
	page    *disk.Page
	dirty   bool
	dropped bool
}

func newBasicPageGuard(bpm *BufferPoolManager, page *disk.Page) BasicPageGuard {
	return BasicPageGuard{bpm: bpm, page: page}
}

// PageID returns the id of the guarded page.
func (g *BasicPageGuard) PageID() disk.PageID {
	if g.page == nil {
		return disk.InvalidPageID
	}
	return g.page.ID()
}

// Data returns the guarded page's data buffer.
func (g *BasicPageGuard) Data() []byte { return g.page.Data[:] }

// MarkDirty flags the guarded page as modified; the flag is propagated to
// the buffer pool manager on Drop.
func (g *BasicPageGuard) MarkDirty() { g.dirty = true }

// Drop unpins the guarded page, propagating whatever dirty state the guard
// has accumulated.
func (g *BasicPageGuard) Drop() {
	if g.dropped || g.bpm == nil {
		return
	}
	g.bpm.UnpinPage(g.page.ID(), g.dirty)
	g.dropped = true
}

// ReadPageGuard additionally holds the page's read latch for its lifetime.
type ReadPageGuard struct {
	inner BasicPageGuard
}

func newReadPageGuard(bpm *BufferPoolManager, page *disk.Page) ReadPageGuard {
	page.RLatch()
	return ReadPageGuard{inner: newBasicPageGuard(bpm, page)}
}

func (g *ReadPageGuard) PageID() disk.PageID { return g.inner.PageID() }
func (g *ReadPageGuard) Data() []byte        { return g.inner.Data() }

func (g *ReadPageGuard) Drop() {
	if g.inner.dropped || g.inner.bpm == nil {
		return
	}
	g.inner.page.RUnlatch()
	g.inner.Drop()
}

// WritePageGuard additionally holds the page's write latch for its
// lifetime and always unpins with is_dirty=true.
type WritePageGuard struct {
	inner BasicPageGuard
}

func newWritePageGuard(bpm *BufferPoolManager, page *disk.Page) WritePageGuard {
	page.WLatch()
	g := newBasicPageGuard(bpm, page)
	g.dirty = true
	return WritePageGuard{inner: g}
}

func (g *WritePageGuard) PageID() disk.PageID { return g.inner.PageID() }
func (g *WritePageGuard) Data() []byte        { return g.inner.Data() }

func (g *WritePageGuard) Drop() {
	if g.inner.dropped || g.inner.bpm == nil {
		return
	}
	g.inner.page.WUnlatch()
	g.inner.Drop()
}

// FetchPageBasic fetches id and wraps it in a BasicPageGuard. The zero
// BasicPageGuard is returned, with ok=false, if the fetch fails for any
// reason (no frame available or a disk error).
func (b *BufferPoolManager) FetchPageBasic(id disk.PageID) (BasicPageGuard, bool) {
	page, err := b.FetchPage(id)
	if err != nil || page == nil {
		return BasicPageGuard{}, false
	}
	return newBasicPageGuard(b, page), true
}

// FetchPageRead fetches id and wraps it in a ReadPageGuard, read-latching
// it. If the fetch fails, the failure is propagated and nothing is
// latched.
func (b *BufferPoolManager) FetchPageRead(id disk.PageID) (ReadPageGuard, bool) {
	page, err := b.FetchPage(id)
	if err != nil || page == nil {
		return ReadPageGuard{}, false
	}
	return newReadPageGuard(b, page), true
}

// FetchPageWrite fetches id and wraps it in a WritePageGuard, write-latching
// it. See FetchPageRead's note on the propagated-failure fix.
func (b *BufferPoolManager) FetchPageWrite(id disk.PageID) (WritePageGuard, bool) {
	page, err := b.FetchPage(id)
	if err != nil || page == nil {
		return WritePageGuard{}, false
	}
	return newWritePageGuard(b, page), true
}

// NewPageGuarded creates a new page and wraps it in a BasicPageGuard.
func (b *BufferPoolManager) NewPageGuarded() (disk.PageID, BasicPageGuard, bool) {
	id, page, err := b.NewPage()
	if err != nil || page == nil {
		return disk.InvalidPageID, BasicPageGuard{}, false
	}
	return id, newBasicPageGuard(b, page), true
}
