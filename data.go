package arcindex

import (
	"bytes"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/flate"
	"github.com/valyala/bytebufferpool"
)

func checkRange(buf []byte, offset, size int64) error {
	if offset < 0 || size < 0 || offset > int64(len(buf)) || size > int64(len(buf))-offset {
		return fmt.Errorf("%w: range %d+%d in buffer of %d bytes", ErrOutOfBounds, offset, size, len(buf))
	}
	return nil
}

// ReadData returns buf[offset:offset+size] after checking the range. The
// result aliases buf.
func ReadData(buf []byte, offset, size int64) ([]byte, error) {
	if err := checkRange(buf, offset, size); err != nil {
		return nil, err
	}
	return buf[offset : offset+size : offset+size], nil
}

// Inflate decompresses the raw Deflate stream stored at buf[offset:offset+size].
// The range is checked before any decompression starts.
func Inflate(buf []byte, offset, size int64) ([]byte, error) {
	if err := checkRange(buf, offset, size); err != nil {
		return nil, err
	}
	fr := flate.NewReader(bytes.NewReader(buf[offset : offset+size]))
	defer func() { _ = fr.Close() }()

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	if _, err := bb.ReadFrom(fr); err != nil {
		return nil, fmt.Errorf("%w: inflate %d bytes at %d: %w", ErrDecompression, size, offset, err)
	}
	return append([]byte(nil), bb.B...), nil
}

// Extract returns the uncompressed bytes of m. Stored members alias buf;
// Deflate members are inflated and checked against FSize. Every other
// compression type fails with ErrUnsupportedCompression.
func Extract(buf []byte, m MemberFile) ([]byte, error) {
	switch m.CType {
	case Uncompressed:
		return ReadData(buf, m.Offset, m.Size)
	case Deflate:
		out, err := Inflate(buf, m.Offset, m.Size)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.FilePath, err)
		}
		if int64(len(out)) != m.FSize {
			return nil, fmt.Errorf("%w: %s inflated to %d bytes, expected %d", ErrDecompression, m.FilePath, len(out), m.FSize)
		}
		return out, nil
	case Deflate64, Rar4, Rar5, Unsupported:
		return nil, fmt.Errorf("%w: %s uses %s", ErrUnsupportedCompression, m.FilePath, m.CType)
	default:
		return nil, fmt.Errorf("%w: %s has unknown compression type %d", ErrUnsupportedCompression, m.FilePath, m.CType)
	}
}

// Verify extracts m and compares its CRC32 with the one recorded in the
// archive. Members without a recorded CRC only need to extract.
func Verify(buf []byte, m MemberFile) error {
	data, err := Extract(buf, m)
	if err != nil {
		return err
	}
	return CheckCRC(m, data)
}

// CheckCRC compares the CRC32 of data, the extracted bytes of m, with the one
// recorded in the archive.
func CheckCRC(m MemberFile, data []byte) error {
	if !m.HasCRC {
		return nil
	}
	if sum := crc32.ChecksumIEEE(data); sum != m.CRC32 {
		return fmt.Errorf("%w: %s has %08x, archive records %08x", ErrChecksum, m.FilePath, sum, m.CRC32)
	}
	return nil
}
