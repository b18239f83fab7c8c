// Zstd compression for persisted cache documents.
//
// CompressedPersistence stores the document zstd-compressed. Loads check
// the zstd frame magic first, so a file written before compression was
// switched on still reads back as plain JSON.
package credcache

import (
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Shared encoder/decoder; both are documented as safe for concurrent use.
// Construction is expensive, so they are built once.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func compress(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	return zstdEncoder.EncodeAll(data, nil)
}

func decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrDecompress, err)
	}
	return out, nil
}

// CompressedPersistence compresses on Save and decompresses on Load.
// Wrap it around an EncryptedPersistence, not the other way round;
// ciphertext does not compress.
type CompressedPersistence struct {
	inner Persistence
}

// NewCompressedPersistence wraps inner.
func NewCompressedPersistence(inner Persistence) *CompressedPersistence {
	return &CompressedPersistence{inner: inner}
}

func (p *CompressedPersistence) Save(data []byte) error {
	return p.inner.Save(compress(data))
}

func (p *CompressedPersistence) Load() ([]byte, error) {
	data, err := p.inner.Load()
	if err != nil {
		return nil, err
	}
	return decompress(data)
}

func (p *CompressedPersistence) Modified() (time.Time, error) {
	return p.inner.Modified()
}

func (p *CompressedPersistence) Location() string {
	return p.inner.Location()
}
