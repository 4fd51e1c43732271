package parse

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxVarintLen is the longest RAR5 varint accepted (enough for 64 bits).
const MaxVarintLen = 10

var (
	// ErrOutOfBounds reports a read past the end of the available bytes.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrCorrupted reports structurally invalid data.
	ErrCorrupted = errors.New("archive is corrupted")
)

// ReadVarintFromSlice reads a RAR5 varint from the start of b. It returns the
// value and the number of bytes consumed.
func ReadVarintFromSlice(b []byte) (uint64, int, error) {
	var val uint64
	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(b) {
			return 0, i, fmt.Errorf("%w: varint truncated after %d bytes", ErrOutOfBounds, i)
		}
		c := b[i]
		if i == MaxVarintLen-1 && c&0x7F > 1 {
			return 0, i + 1, fmt.Errorf("%w: varint overflows 64 bits", ErrCorrupted)
		}
		val |= uint64(c&0x7F) << (7 * i)
		if c&0x80 == 0 {
			return val, i + 1, nil
		}
	}
	return 0, MaxVarintLen, fmt.Errorf("%w: varint longer than %d bytes", ErrCorrupted, MaxVarintLen)
}

// AppendVarint appends the RAR5 varint encoding of v to b.
func AppendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// U16 reads a little-endian uint16. The caller checks len(b) >= 2.
func U16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// U32 reads a little-endian uint32. The caller checks len(b) >= 4.
func U32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// U64 reads a little-endian uint64. The caller checks len(b) >= 8.
func U64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
