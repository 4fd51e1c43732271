package arcindex

import (
	"fmt"

	"github.com/javi11/arcindex/internal/parse"
)

const (
	zipCentralSig    = 0x02014b50
	zipEOCDSig       = 0x06054b50
	zipEOCDLen       = 22
	zipCentralLen    = 46
	zipMaxCommentLen = 0xFFFF
)

type zipCentralEntry struct {
	CRC32      uint32
	PackedSize uint64
	UnpackSize uint64
}

// zipCentralIndex maps local header offsets to the sizes recorded in the
// central directory. It is only consulted for entries whose local header
// defers sizes to a data descriptor.
type zipCentralIndex struct {
	entries map[int64]zipCentralEntry
}

// lookup finds the record for the local header at the absolute offset off.
func (z *zipCentralIndex) lookup(off int64) (zipCentralEntry, bool) {
	e, ok := z.entries[off]
	return e, ok
}

// findZipEOCD scans backwards for the end of central directory record.
func findZipEOCD(buf []byte) (int, error) {
	lowest := len(buf) - zipEOCDLen - zipMaxCommentLen
	if lowest < 0 {
		lowest = 0
	}
	for i := len(buf) - zipEOCDLen; i >= lowest; i-- {
		if parse.U32(buf[i:]) == zipEOCDSig {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: end of central directory not found", ErrHeaderParse)
}

func loadZipCentral(buf []byte, start int) (*zipCentralIndex, error) {
	eocd, err := findZipEOCD(buf)
	if err != nil {
		return nil, err
	}
	c := parse.NewCursor(buf, eocd+10, len(buf))
	count, _ := c.U16("entries")
	cdSize, _ := c.U32("cd size")
	cdOffset, _ := c.U32("cd offset")

	// archives behind a stub keep offsets relative to the archive start
	base := int64(eocd) - int64(cdSize) - int64(cdOffset)
	if base < 0 {
		base = int64(start)
	}
	idx := &zipCentralIndex{entries: make(map[int64]zipCentralEntry, count)}
	c = parse.NewCursor(buf, int(base+int64(cdOffset)), eocd)
	for c.Remaining() >= zipCentralLen {
		recStart := c.Pos()
		if sig, _ := c.U32("signature"); sig != zipCentralSig {
			break
		}
		if err := c.Skip(12, "versions, flags, method, time"); err != nil {
			return nil, err
		}
		var e zipCentralEntry
		e.CRC32, _ = c.U32("crc32")
		packed, _ := c.U32("compressed size")
		unpacked, _ := c.U32("uncompressed size")
		nameLen, _ := c.U16("name length")
		extraLen, _ := c.U16("extra length")
		commentLen, _ := c.U16("comment length")
		if err := c.Skip(8, "disk, attributes"); err != nil {
			return nil, err
		}
		localOff, err := c.U32("local header offset")
		if err != nil {
			return nil, err
		}
		if err := c.Skip(int(nameLen), "name"); err != nil {
			return nil, fmt.Errorf("central record at %d: %w", recStart, err)
		}
		extra, err := c.Bytes(int(extraLen), "extra field")
		if err != nil {
			return nil, fmt.Errorf("central record at %d: %w", recStart, err)
		}
		if err := c.Skip(int(commentLen), "comment"); err != nil {
			return nil, fmt.Errorf("central record at %d: %w", recStart, err)
		}
		e.PackedSize, e.UnpackSize = uint64(packed), uint64(unpacked)
		off := uint64(localOff)
		if packed == zip64Marker || unpacked == zip64Marker || localOff == zip64Marker {
			if err := applyZip64Extra(extra, &e.UnpackSize, &e.PackedSize, &off); err != nil {
				return nil, fmt.Errorf("central record at %d: %w", recStart, err)
			}
		}
		idx.entries[base+int64(off)] = e
	}
	return idx, nil
}
