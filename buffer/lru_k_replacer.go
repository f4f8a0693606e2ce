// Package buffer implements the frame replacement policy and the buffer
// pool manager that mediates between an on-disk page store (package disk)
// and in-memory clients.
package buffer

import (
	"container/list"
	"fmt"
	"sync"
)

// FrameID indexes a frame within a buffer pool.
type FrameID int

// LRUKReplacer tracks per-frame access history and selects an eviction
// victim among frames currently marked evictable, implementing the
// classical LRU-K policy: evict the frame whose K-th most recent access
// lies furthest in the past, preferring frames with fewer than K accesses
// over those that have reached K (FIFO among the former, LRU among the
// latter), using container/list for both lists.
type LRUKReplacer struct {
	mu sync.Mutex

	k            int
	replacerSize int

	// historyList holds frames with use_count < k. The front is the most
	// recently first-accessed frame; the back is evicted first.
	historyList *list.List
	historyMap  map[FrameID]*list.Element

	// cacheList holds frames with use_count >= k. The front is the most
	// recently accessed frame; the back is evicted first.
	cacheList *list.List
	cacheMap  map[FrameID]*list.Element

	useCount  map[FrameID]int
	evictable map[FrameID]bool
	currSize  int
}

// NewLRUKReplacer constructs a replacer sized for numFrames frames, using k
// as the K of LRU-K.
func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {
	return &LRUKReplacer{
		k:            k,
		replacerSize: numFrames,
		historyList:  list.New(),
		historyMap:   make(map[FrameID]*list.Element),
		cacheList:    list.New(),
		cacheMap:     make(map[FrameID]*list.Element),
		useCount:     make(map[FrameID]int),
		evictable:    make(map[FrameID]bool),
	}
}

func (r *LRUKReplacer) checkRange(frameID FrameID) {
	if frameID < 0 || int(frameID) >= r.replacerSize {
		panic(fmt.Sprintf("buffer: frame id %d out of range [0, %d)", frameID, r.replacerSize))
	}
}

// RecordAccess increments the frame's access count and repositions it in
// the history or cache list.
func (r *LRUKReplacer) RecordAccess(frameID FrameID) {
	r.checkRange(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.useCount[frameID]++
	switch {
	case r.useCount[frameID] == r.k:
		if el, ok := r.historyMap[frameID]; ok {
			r.historyList.Remove(el)
			delete(r.historyMap, frameID)
		}
		r.cacheMap[frameID] = r.cacheList.PushFront(frameID)
	case r.useCount[frameID] > r.k:
		if el, ok := r.cacheMap[frameID]; ok {
			r.cacheList.Remove(el)
		}
		r.cacheMap[frameID] = r.cacheList.PushFront(frameID)
	default:
		if _, ok := r.historyMap[frameID]; !ok {
			r.historyMap[frameID] = r.historyList.PushFront(frameID)
		}
	}
}

// SetEvictable toggles whether frameID is a candidate for eviction. It is a
// no-op for a frame with no recorded accesses.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) {
	r.checkRange(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.useCount[frameID] == 0 {
		return
	}

	if r.evictable[frameID] && !evictable {
		r.currSize--
	}
	if !r.evictable[frameID] && evictable {
		r.currSize++
	}
	r.evictable[frameID] = evictable
}

// Evict selects a victim frame: the least-recently-first-accessed evictable
// frame in the history list if one exists, else the least-recently-used
// evictable frame in the cache list. It clears the victim's metadata and
// reports false if no evictable frame exists in either list.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for e := r.historyList.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(FrameID)
		if !r.evictable[frameID] {
			continue
		}
		r.historyList.Remove(e)
		delete(r.historyMap, frameID)
		r.clearLocked(frameID)
		return frameID, true
	}

	for e := r.cacheList.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(FrameID)
		if !r.evictable[frameID] {
			continue
		}
		r.cacheList.Remove(e)
		delete(r.cacheMap, frameID)
		r.clearLocked(frameID)
		return frameID, true
	}

	return 0, false
}

// Remove forcibly removes a frame from whichever list holds it, regardless
// of its evictable flag. It is a no-op for a frame with no recorded
// accesses.
func (r *LRUKReplacer) Remove(frameID FrameID) {
	r.checkRange(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.useCount[frameID] == 0 {
		return
	}

	if r.useCount[frameID] < r.k {
		if el, ok := r.historyMap[frameID]; ok {
			r.historyList.Remove(el)
			delete(r.historyMap, frameID)
		}
	} else {
		if el, ok := r.cacheMap[frameID]; ok {
			r.cacheList.Remove(el)
			delete(r.cacheMap, frameID)
		}
	}
	r.clearLocked(frameID)
}

// clearLocked resets use_count and evictable for frameID and adjusts
// curr_size. Callers must hold r.mu.
func (r *LRUKReplacer) clearLocked(frameID FrameID) {
	if r.evictable[frameID] {
		r.currSize--
	}
	r.useCount[frameID] = 0
	r.evictable[frameID] = false
}

// Size returns the number of frames currently marked evictable.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
