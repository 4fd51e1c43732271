package arcindex

import (
	"fmt"

	"github.com/javi11/arcindex/internal/parse"
)

// ReadU16LE reads a little-endian uint16 from the start of b. The caller
// checks len(b) >= 2.
func ReadU16LE(b []byte) uint16 { return parse.U16(b) }

// ReadU32LE reads a little-endian uint32 from the start of b. The caller
// checks len(b) >= 4.
func ReadU32LE(b []byte) uint32 { return parse.U32(b) }

// ReadU64LE reads a little-endian uint64 from the start of b.
func ReadU64LE(b []byte) uint64 { return parse.U64(b) }

// ReadVint decodes the RAR5 variable-length integer at buf[pos:]. It returns
// the value and the number of bytes consumed. It fails with ErrOutOfBounds
// when buf ends before the last byte and with ErrCorruptedArchive when the
// encoding runs past 10 bytes.
func ReadVint(buf []byte, pos int) (uint64, int, error) {
	if pos < 0 || pos > len(buf) {
		return 0, 0, fmt.Errorf("%w: vint at %d in %d bytes", ErrOutOfBounds, pos, len(buf))
	}
	return parse.ReadVarintFromSlice(buf[pos:])
}
