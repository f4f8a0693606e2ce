package disk

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Manager is the disk manager contract the buffer pool manager depends on:
// blocking, byte-addressable page I/O, plus a hook to notify the allocator
// that a page id is no longer in use.
type Manager interface {
	ReadPage(id PageID, buf []byte) error
	WritePage(id PageID, buf []byte) error
	DeallocatePage(id PageID) error
	Close() error
}

// payloadCap bounds how large a compressed page body may grow to. Snappy's
// documented worst case for n input bytes is 32+n+n/6; lz4's framing adds a
// smaller constant overhead. payloadCap leaves generous headroom over
// PageSize for both.
const payloadCap = 2 * PageSize
const pageSlotSize = 4 + payloadCap // 4-byte length prefix + payload

var _ Manager = &FileManager{}

// FileManager is a concrete, file-backed disk manager. Pages are compressed
// at rest (see codec.go) and the file carries a small msgpack header
// (see header.go).
type FileManager struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	codec  codec
	header fileHeader
}

// NewFileManager opens (or creates) the database file at path.
func NewFileManager(path string, kind CompressionKind) (*FileManager, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "disk: open database file")
	}

	m := &FileManager{file: f, path: path, codec: codecFor(kind)}

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "disk: stat database file")
	}

	if stat.Size() == 0 {
		m.header = newFileHeader()
		if err := m.flushHeaderLocked(); err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"file": path, "instance_id": m.header.InstanceID}).
			Info("disk: created new database file")
		return m, nil
	}

	h, err := m.readHeaderLocked()
	if err != nil {
		return nil, err
	}
	m.header = h
	log.WithFields(log.Fields{
		"file":        path,
		"instance_id": h.InstanceID,
		"page_count":  h.PageCount,
	}).Info("disk: opened existing database file")
	return m, nil
}

func (m *FileManager) readHeaderLocked() (fileHeader, error) {
	slot := make([]byte, pageSlotSize)
	if _, err := m.file.ReadAt(slot, 0); err != nil {
		return fileHeader{}, errors.Wrap(err, "disk: read database header")
	}
	length := binary.BigEndian.Uint32(slot[:4])
	h, err := decodeHeader(slot[4 : 4+length])
	if err != nil {
		return fileHeader{}, errors.Wrap(err, "disk: decode database header")
	}
	return h, nil
}

func (m *FileManager) flushHeaderLocked() error {
	data := encodeHeader(m.header)
	if len(data) > payloadCap {
		return errors.New("disk: database header grew past its reserved slot")
	}
	slot := make([]byte, pageSlotSize)
	binary.BigEndian.PutUint32(slot[:4], uint32(len(data)))
	copy(slot[4:], data)
	if _, err := m.file.WriteAt(slot, 0); err != nil {
		return errors.Wrap(err, "disk: write database header")
	}
	return nil
}

func slotOffset(id PageID) int64 {
	// slot 0 is the header; page ids map to the following slots.
	return (int64(id) + 1) * int64(pageSlotSize)
}

// ReadPage fills buf (which must be PageSize bytes) with the content of
// page id. Reading a page that was never written yields a zeroed buffer,
// matching a freshly allocated page's on-disk state.
func (m *FileManager) ReadPage(id PageID, buf []byte) error {
	if len(buf) != PageSize {
		panic("disk: read buffer must be PageSize bytes")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	slot := make([]byte, pageSlotSize)
	if _, err := m.file.ReadAt(slot, slotOffset(id)); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			for i := range buf {
				buf[i] = 0
			}
			return nil
		}
		return errors.Wrapf(err, "disk: read page %d", id)
	}

	length := binary.BigEndian.Uint32(slot[:4])
	if length == 0 {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}

	decoded, err := m.codec.decompress(slot[4 : 4+length])
	if err != nil {
		return errors.Wrapf(err, "disk: decompress page %d", id)
	}
	if len(decoded) != PageSize {
		return errors.Errorf("disk: page %d decoded to %d bytes, want %d", id, len(decoded), PageSize)
	}
	copy(buf, decoded)
	return nil
}

// WritePage durably writes buf (PageSize bytes) as the content of page id.
func (m *FileManager) WritePage(id PageID, buf []byte) error {
	if len(buf) != PageSize {
		panic("disk: write buffer must be PageSize bytes")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	encoded := m.codec.compress(buf)
	if len(encoded) > payloadCap {
		return errors.Errorf("disk: compressed page %d exceeds slot capacity (%d > %d)", id, len(encoded), payloadCap)
	}

	slot := make([]byte, pageSlotSize)
	binary.BigEndian.PutUint32(slot[:4], uint32(len(encoded)))
	copy(slot[4:], encoded)

	if _, err := m.file.WriteAt(slot, slotOffset(id)); err != nil {
		return errors.Wrapf(err, "disk: write page %d", id)
	}

	if count := uint64(id) + 1; count > m.header.PageCount {
		m.header.PageCount = count
		if err := m.flushHeaderLocked(); err != nil {
			return err
		}
	}
	return nil
}

// DeallocatePage records that page id is no longer in use. It is diagnostic
// only: freed ids are never reused, since page ids are allocated from a
// monotonic counter.
func (m *FileManager) DeallocatePage(id PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.header.FreedPages = append(m.header.FreedPages, int64(id))
	log.WithFields(log.Fields{"file": m.path, "page_id": id}).Debug("disk: page deallocated")
	return m.flushHeaderLocked()
}

func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Wrap(m.file.Close(), "disk: close database file")
}
