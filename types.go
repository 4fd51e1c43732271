package arcindex

import (
	"strings"
	"time"
)

// CompressionType tags how a member's bytes are stored.
type CompressionType uint8

const (
	Uncompressed CompressionType = iota
	Deflate
	Deflate64
	Rar4
	Rar5
	Unsupported
)

func (c CompressionType) String() string {
	switch c {
	case Uncompressed:
		return "uncompressed"
	case Deflate:
		return "deflate"
	case Deflate64:
		return "deflate64"
	case Rar4:
		return "rar4"
	case Rar5:
		return "rar5"
	default:
		return "unsupported"
	}
}

// MarshalText renders the compression type by name.
func (c CompressionType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// MemberFile is one extractable file inside an archive. Offset and Size are
// coordinates into the buffer the archive was parsed from.
type MemberFile struct {
	FilePath string          `json:"filePath"`
	FileName string          `json:"fileName"`
	Offset   int64           `json:"offset"`
	Size     int64           `json:"size"`
	FSize    int64           `json:"fsize"`
	CType    CompressionType `json:"ctype"`
	CRC32    uint32          `json:"crc32,omitempty"`
	HasCRC   bool            `json:"-"`
	ModTime  time.Time       `json:"modTime,omitzero"`
}

// End returns the offset one past the member's stored data.
func (m MemberFile) End() int64 { return m.Offset + m.Size }

// baseName returns the text after the last path separator. Both separators
// are honoured since RAR archives made on Windows use backslashes.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func newMember(path string, offset, size, fsize int64, ctype CompressionType) MemberFile {
	return MemberFile{
		FilePath: path,
		FileName: baseName(path),
		Offset:   offset,
		Size:     size,
		FSize:    fsize,
		CType:    ctype,
	}
}
