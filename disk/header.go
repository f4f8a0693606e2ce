package disk

import (
	"pagestore/common"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack"
)

// fileHeader is persisted at slot 0 of every database file and serialized
// with msgpack: binary and self-describing, so the header can grow a field
// later without a manual migration.
type fileHeader struct {
	InstanceID uuid.UUID
	PageCount  uint64
	// FreedPages is diagnostic only: page ids DeallocatePage has seen.
	// The next-page-id counter never reuses them, so this list is never
	// consulted for allocation, only logged.
	FreedPages []int64
}

func newFileHeader() fileHeader {
	return fileHeader{InstanceID: uuid.New()}
}

// encodeHeader serializes h. fileHeader is a small, fixed-shape struct of
// known msgpack-able types, so marshaling it cannot fail in practice; a
// failure here is a programming mistake, not a recoverable I/O condition.
func encodeHeader(h fileHeader) []byte {
	data, err := msgpack.Marshal(h)
	common.PanicIfErr(err)
	return data
}

func decodeHeader(data []byte) (fileHeader, error) {
	var h fileHeader
	err := msgpack.Unmarshal(data, &h)
	return h, err
}
