package arcindex

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/javi11/arcindex/internal/parse"
	"github.com/javi11/arcindex/internal/util"
)

const (
	rar5HeadMain    = 1
	rar5HeadFile    = 2
	rar5HeadService = 3
	rar5HeadCrypt   = 4
	rar5HeadEnd     = 5

	rar5ExtraCrypt = 0x01

	// larger header sizes only come from garbage
	rar5MaxHeaderSize = 2 * 1024 * 1024
)

// rar5Header is the part shared by every RAR5 header: the sizes and the
// common flag word.
type rar5Header struct {
	Start       int // offset of the header CRC
	Type        uint64
	Flags       uint64
	ExtraSize   uint64
	DataSize    uint64
	HasExtra    bool
	HasData     bool
	SplitBefore bool
	SplitAfter  bool
	BodyStart   int // first type specific byte
	ExtraStart  int // extra area, up to End
	End         int // end of header, start of the data area
}

func (h *rar5Header) decodeFlags() {
	h.HasExtra = h.Flags&0x0001 != 0
	h.HasData = h.Flags&0x0002 != 0
	h.SplitBefore = h.Flags&0x0008 != 0
	h.SplitAfter = h.Flags&0x0010 != 0
}

// rar5FileFields holds the fields of file and service headers.
type rar5FileFields struct {
	Directory bool
	HasMTime  bool
	HasCRC    bool
	UnpSize   uint64
	Attr      uint64
	MTime     uint32
	CRC       uint32
	CompInfo  uint64
	HostOS    uint64
	Name      string
	Encrypted bool
}

// ParseRar5 walks the RAR5 headers following the signature at start.
func ParseRar5(buf []byte, start int, optFns ...func(*Options)) ([]MemberFile, error) {
	files, _, err := parseRar5(buf, start, newOptions(optFns))
	return files, err
}

func parseRar5(buf []byte, start int, opts *Options) ([]MemberFile, ArchiveFlags, error) {
	log := opts.Logger.With(slog.String("format", "rar5"))
	var (
		out   []MemberFile
		flags ArchiveFlags
	)
	pos := start + len(rarSigV5)
	for pos < len(buf) {
		h, err := readRar5Header(buf, pos)
		if err != nil {
			return nil, flags, parseErr(FormatRar5, pos, err)
		}
		log.Debug("header", "pos", h.Start, "type", h.Type, "flags", fmt.Sprintf("%#x", h.Flags), "extra", h.ExtraSize, "data", h.DataSize)

		switch h.Type {
		case rar5HeadMain:
			if flags, err = readRar5Main(buf, h); err != nil {
				return nil, flags, parseErr(FormatRar5, h.Start, err)
			}
		case rar5HeadFile:
			f, err := readRar5FileFields(buf, h)
			if err != nil {
				return nil, flags, parseErr(FormatRar5, h.Start, err)
			}
			if f.Directory {
				log.Debug("skip directory", "name", f.Name)
				break
			}
			m, err := rar5Member(h, f)
			if err != nil {
				return nil, flags, parseErr(FormatRar5, h.Start, err)
			}
			log.Debug("entry", "name", m.FilePath, "offset", m.Offset, "size", m.Size, "fsize", m.FSize, "ctype", m.CType)
			out = append(out, m)
		case rar5HeadService:
			f, err := readRar5FileFields(buf, h)
			if err != nil {
				return nil, flags, parseErr(FormatRar5, h.Start, err)
			}
			log.Debug("skip service header", "name", f.Name, "data", h.DataSize)
		case rar5HeadCrypt:
			return nil, flags, parseErr(FormatRar5, h.Start, ErrEncrypted)
		case rar5HeadEnd:
			return out, flags, nil
		default:
			log.Warn("skipping unknown header type", "pos", h.Start, "type", h.Type)
		}
		pos = h.End + int(h.DataSize)
	}
	return out, flags, nil
}

// readRar5Header decodes the common header layout at pos: CRC32, header size,
// type, flags, then the optional extra and data area sizes. Both the header
// and its data area are checked against the buffer.
func readRar5Header(buf []byte, pos int) (rar5Header, error) {
	h := rar5Header{Start: pos}
	c := parse.NewCursor(buf, pos, len(buf))
	if _, err := c.U32("header crc"); err != nil {
		return h, err
	}
	size, err := c.Varint("header size")
	if err != nil {
		return h, err
	}
	if size == 0 || size > rar5MaxHeaderSize {
		return h, fmt.Errorf("%w: header size %d", ErrCorruptedArchive, size)
	}
	if size > uint64(c.Remaining()) {
		return h, fmt.Errorf("%w: header of %d bytes at %d exceeds buffer", ErrOutOfBounds, size, pos)
	}
	h.End = c.Pos() + int(size)
	c = parse.NewCursor(buf, c.Pos(), h.End)
	if h.Type, err = c.Varint("header type"); err != nil {
		return h, err
	}
	if h.Flags, err = c.Varint("header flags"); err != nil {
		return h, err
	}
	h.decodeFlags()
	if h.HasExtra {
		if h.ExtraSize, err = c.Varint("extra area size"); err != nil {
			return h, err
		}
	}
	if h.HasData {
		if h.DataSize, err = c.Varint("data area size"); err != nil {
			return h, err
		}
	}
	h.BodyStart = c.Pos()
	if h.ExtraSize > uint64(c.Remaining()) {
		return h, fmt.Errorf("%w: extra area size %d exceeds header remainder %d", ErrCorruptedArchive, h.ExtraSize, c.Remaining())
	}
	h.ExtraStart = h.End - int(h.ExtraSize)
	if h.DataSize > uint64(len(buf)-h.End) {
		return h, fmt.Errorf("%w: data area %d+%d exceeds buffer of %d bytes", ErrOutOfBounds, h.End, h.DataSize, len(buf))
	}
	return h, nil
}

// readRar5Main decodes the archive flags of the main header.
func readRar5Main(buf []byte, h rar5Header) (ArchiveFlags, error) {
	var a ArchiveFlags
	c := parse.NewCursor(buf, h.BodyStart, h.ExtraStart)
	v, err := c.Varint("archive flags")
	if err != nil {
		return a, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	a = ArchiveFlags{
		MultiVolume:    v&0x0001 != 0,
		NotFirstVolume: v&0x0002 != 0,
		Solid:          v&0x0004 != 0,
		RecoveryRecord: v&0x0008 != 0,
		Locked:         v&0x0010 != 0,
	}
	if a.NotFirstVolume {
		if a.Volume, err = c.Varint("volume number"); err != nil {
			return a, fmt.Errorf("%w: %w", ErrHeaderParse, err)
		}
	}
	return a, nil
}

// readRar5FileFields decodes the type specific part of a file or service
// header.
func readRar5FileFields(buf []byte, h rar5Header) (rar5FileFields, error) {
	var f rar5FileFields
	c := parse.NewCursor(buf, h.BodyStart, h.ExtraStart)
	fileFlags, err := c.Varint("file flags")
	if err != nil {
		return f, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	f.Directory = fileFlags&0x0001 != 0
	f.HasMTime = fileFlags&0x0002 != 0
	f.HasCRC = fileFlags&0x0004 != 0
	if f.UnpSize, err = c.Varint("unpacked size"); err != nil {
		return f, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	if f.Attr, err = c.Varint("attributes"); err != nil {
		return f, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	if f.HasMTime {
		if f.MTime, err = c.U32("mtime"); err != nil {
			return f, fmt.Errorf("%w: %w", ErrHeaderParse, err)
		}
	}
	if f.HasCRC {
		if f.CRC, err = c.U32("crc32"); err != nil {
			return f, fmt.Errorf("%w: %w", ErrHeaderParse, err)
		}
	}
	if f.CompInfo, err = c.Varint("compression info"); err != nil {
		return f, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	if f.HostOS, err = c.Varint("host os"); err != nil {
		return f, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	nameLen, err := c.Varint("name length")
	if err != nil {
		return f, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	if nameLen == 0 || nameLen > uint64(c.Remaining()) {
		return f, fmt.Errorf("%w: bad name length %d", ErrHeaderParse, nameLen)
	}
	raw, _ := c.Bytes(int(nameLen), "name")
	f.Name = util.DecodeName(raw, charmap.ISO8859_1)
	f.Encrypted = rar5HasExtraRecord(buf[h.ExtraStart:h.End], rar5ExtraCrypt)
	return f, nil
}

// rar5HasExtraRecord reports whether the extra area holds a record of the
// given type. A malformed extra area is treated as holding nothing.
func rar5HasExtraRecord(extra []byte, typ uint64) bool {
	c := parse.NewCursor(extra, 0, len(extra))
	for c.Remaining() > 0 {
		size, err := c.Varint("record size")
		if err != nil || size == 0 || size > uint64(c.Remaining()) {
			return false
		}
		next := c.Pos() + int(size)
		t, err := c.Varint("record type")
		if err != nil {
			return false
		}
		if t == typ {
			return true
		}
		if err := c.Skip(next-c.Pos(), "record"); err != nil {
			return false
		}
	}
	return false
}

func rar5Member(h rar5Header, f rar5FileFields) (MemberFile, error) {
	ctype := ClassifyRar5(f.CompInfo)
	if f.Encrypted || h.SplitBefore || h.SplitAfter {
		ctype = Unsupported
	}
	m := newMember(f.Name, int64(h.End), int64(h.DataSize), int64(f.UnpSize), ctype)
	if f.HasCRC {
		m.CRC32, m.HasCRC = f.CRC, true
	}
	if f.HasMTime {
		m.ModTime = time.Unix(int64(f.MTime), 0).UTC()
	}
	if ctype == Uncompressed && m.Size != m.FSize {
		return m, fmt.Errorf("%w: stored file %q has %d bytes, expected %d", ErrInvalidFileSize, f.Name, m.Size, m.FSize)
	}
	return m, nil
}
