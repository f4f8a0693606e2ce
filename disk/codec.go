package disk

import (
	"bytes"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4"
)

// CompressionKind selects the codec a Manager uses to compress page bodies
// before they hit the file.
type CompressionKind int

const (
	// CompressionSnappy is the default.
	CompressionSnappy CompressionKind = iota
	CompressionLZ4
)

type compressFunc func(in []byte) []byte
type decompressFunc func(in []byte) ([]byte, error)

type codec struct {
	compress   compressFunc
	decompress decompressFunc
}

var snappyCodec = codec{
	compress: func(in []byte) []byte {
		return snappy.Encode(nil, in)
	},
	decompress: func(in []byte) ([]byte, error) {
		return snappy.Decode(nil, in)
	},
}

var lz4Codec = codec{
	compress: func(in []byte) []byte {
		buf := &bytes.Buffer{}
		w := lz4.NewWriter(buf)
		w.NoChecksum = true
		if _, err := w.Write(in); err != nil {
			panic(err)
		}
		if err := w.Close(); err != nil {
			panic(err)
		}
		return buf.Bytes()
	},
	decompress: func(in []byte) ([]byte, error) {
		buf := &bytes.Buffer{}
		r := lz4.NewReader(bytes.NewReader(in))
		_, err := buf.ReadFrom(r)
		return buf.Bytes(), err
	},
}

func codecFor(kind CompressionKind) codec {
	if kind == CompressionLZ4 {
		return lz4Codec
	}
	return snappyCodec
}
