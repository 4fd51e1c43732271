package arcindex

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/encoding/japanese"

	"github.com/javi11/arcindex/internal/parse"
	"github.com/javi11/arcindex/internal/util"
)

const (
	rar4BlockMark    = 0x72
	rar4BlockMain    = 0x73
	rar4BlockFile    = 0x74
	rar4BlockComment = 0x75
	rar4BlockAV      = 0x76
	rar4BlockSub     = 0x77
	rar4BlockProtect = 0x78
	rar4BlockSign    = 0x79
	rar4BlockNewSub  = 0x7a
	rar4BlockEnd     = 0x7b

	rar4HeaderLen     = 7
	rar4FileFixedLen  = 25
	rar4FlagLongBlock = 0x8000
	rar4MainPassword  = 0x0080

	rar4HostMSDOS = 0
	rar4HostOS2   = 1
	rar4HostWin32 = 2
	rar4HostUnix  = 3
	rar4HostMacOS = 4
	rar4HostBeOS  = 5
)

type rar4BlockHeader struct {
	CRC     uint16
	Type    byte
	Flags   uint16
	Size    uint16
	AddSize uint32 // only if flags & 0x8000
}

// rar4FileFlags is the decoded flag word of a RAR4 file header.
type rar4FileFlags struct {
	SplitBefore bool
	SplitAfter  bool
	Encrypted   bool
	Directory   bool
	Large       bool
	Unicode     bool
	Salt        bool
	ExtTime     bool
}

func decodeRar4FileFlags(f uint16) rar4FileFlags {
	return rar4FileFlags{
		SplitBefore: f&0x0001 != 0,
		SplitAfter:  f&0x0002 != 0,
		Encrypted:   f&0x0004 != 0,
		Directory:   f&0x00E0 == 0x00E0,
		Large:       f&0x0100 != 0,
		Unicode:     f&0x0200 != 0,
		Salt:        f&0x0400 != 0,
		ExtTime:     f&0x1000 != 0,
	}
}

func decodeRar4MainFlags(f uint16) ArchiveFlags {
	return ArchiveFlags{
		MultiVolume:    f&0x0001 != 0,
		Locked:         f&0x0004 != 0,
		Solid:          f&0x0008 != 0,
		RecoveryRecord: f&0x0040 != 0,
		NotFirstVolume: f&0x0001 != 0 && f&0x0100 == 0,
	}
}

type rar4FileHeader struct {
	PackSize uint64
	UnpSize  uint64
	HostOS   byte
	CRC      uint32
	FTime    uint32
	Version  byte
	Method   byte
	Attr     uint32
	Name     string
	Flags    rar4FileFlags
}

// IsDir reports whether the header describes a directory. The attribute word
// holds DOS attributes or a Unix mode depending on the host.
func (h rar4FileHeader) IsDir() bool {
	if h.Flags.Directory {
		return true
	}
	switch h.HostOS {
	case rar4HostUnix, rar4HostBeOS:
		return h.Attr&0xF000 == 0x4000
	case rar4HostMSDOS, rar4HostOS2, rar4HostWin32:
		return h.Attr&0x10 != 0
	default:
		return false
	}
}

// ParseRar4 walks the RAR 1.5-4.x blocks following the signature at start.
func ParseRar4(buf []byte, start int, optFns ...func(*Options)) ([]MemberFile, error) {
	files, _, err := parseRar4(buf, start, newOptions(optFns))
	return files, err
}

func parseRar4(buf []byte, start int, opts *Options) ([]MemberFile, ArchiveFlags, error) {
	log := opts.Logger.With(slog.String("format", "rar4"))
	var (
		out   []MemberFile
		flags ArchiveFlags
	)
	pos := start + len(rarSigV4)
	for pos < len(buf) {
		hdrStart := pos
		h, err := readRar4BlockHeader(buf, pos)
		if err != nil {
			return nil, flags, parseErr(FormatRar4, hdrStart, err)
		}
		hdrEnd := hdrStart + int(h.Size)
		if hdrEnd > len(buf) {
			return nil, flags, parseErr(FormatRar4, hdrStart, fmt.Errorf("%w: header size %d exceeds buffer", ErrOutOfBounds, h.Size))
		}
		log.Debug("block", "pos", hdrStart, "type", fmt.Sprintf("%#x", h.Type), "flags", fmt.Sprintf("%#x", h.Flags), "size", h.Size)

		switch h.Type {
		case rar4BlockMain:
			flags = decodeRar4MainFlags(h.Flags)
			if h.Flags&rar4MainPassword != 0 {
				return nil, flags, parseErr(FormatRar4, hdrStart, ErrEncrypted)
			}
			pos = hdrEnd
		case rar4BlockFile:
			fh, err := readRar4FileHeader(buf, hdrStart, h, opts)
			if err != nil {
				return nil, flags, parseErr(FormatRar4, hdrStart, err)
			}
			if fh.PackSize > uint64(len(buf)-hdrEnd) {
				return nil, flags, parseErr(FormatRar4, hdrStart, fmt.Errorf("%w: packed data %d+%d exceeds buffer of %d bytes", ErrOutOfBounds, hdrEnd, fh.PackSize, len(buf)))
			}
			pos = hdrEnd + int(fh.PackSize)
			if fh.IsDir() {
				log.Debug("skip directory", "name", fh.Name)
				continue
			}
			m, err := rar4Member(fh, hdrEnd)
			if err != nil {
				return nil, flags, parseErr(FormatRar4, hdrStart, err)
			}
			log.Debug("entry", "name", m.FilePath, "offset", m.Offset, "size", m.Size, "fsize", m.FSize, "ctype", m.CType)
			out = append(out, m)
		case rar4BlockNewSub:
			body, err := parse.NewCursor(buf, hdrStart+rar4HeaderLen, hdrEnd).U32("sub block size")
			if err != nil {
				return nil, flags, parseErr(FormatRar4, hdrStart, err)
			}
			if uint64(body) > uint64(len(buf)-hdrEnd) {
				return nil, flags, parseErr(FormatRar4, hdrStart, fmt.Errorf("%w: sub block body exceeds buffer", ErrOutOfBounds))
			}
			pos = hdrEnd + int(body)
		case rar4BlockEnd:
			return out, flags, nil
		case rar4BlockMark, rar4BlockComment, rar4BlockAV, rar4BlockSub, rar4BlockProtect, rar4BlockSign:
			pos = hdrEnd
			if h.Flags&rar4FlagLongBlock != 0 {
				if uint64(h.AddSize) > uint64(len(buf)-hdrEnd) {
					return nil, flags, parseErr(FormatRar4, hdrStart, fmt.Errorf("%w: block body exceeds buffer", ErrOutOfBounds))
				}
				pos += int(h.AddSize)
			}
		default:
			log.Warn("unknown block type, stopping", "pos", hdrStart, "type", fmt.Sprintf("%#x", h.Type))
			return out, flags, nil
		}
	}
	return out, flags, nil
}

func readRar4BlockHeader(buf []byte, pos int) (rar4BlockHeader, error) {
	var h rar4BlockHeader
	c := parse.NewCursor(buf, pos, len(buf))
	var err error
	if h.CRC, err = c.U16("header crc"); err != nil {
		return h, err
	}
	if h.Type, err = c.U8("header type"); err != nil {
		return h, err
	}
	if h.Flags, err = c.U16("header flags"); err != nil {
		return h, err
	}
	if h.Size, err = c.U16("header size"); err != nil {
		return h, err
	}
	if h.Size < rar4HeaderLen {
		return h, fmt.Errorf("%w: header size %d below minimum", ErrCorruptedArchive, h.Size)
	}
	if h.Flags&rar4FlagLongBlock != 0 {
		// peeked only: for file and sub blocks these bytes are the packed size
		if h.Size < rar4HeaderLen+4 {
			return h, fmt.Errorf("%w: long block header of %d bytes", ErrCorruptedArchive, h.Size)
		}
		if h.AddSize, err = c.U32("add size"); err != nil {
			return h, err
		}
	}
	return h, nil
}

// readRar4FileHeader decodes the FILE_HEAD block at hdrStart. Every field is
// read inside the declared header size.
func readRar4FileHeader(buf []byte, hdrStart int, bh rar4BlockHeader, opts *Options) (rar4FileHeader, error) {
	fh := rar4FileHeader{Flags: decodeRar4FileFlags(bh.Flags)}
	c := parse.NewCursor(buf, hdrStart+rar4HeaderLen, hdrStart+int(bh.Size))
	fixed, err := c.Bytes(rar4FileFixedLen, "file header")
	if err != nil {
		return fh, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	packLow := parse.U32(fixed[0:4])
	unpLow := parse.U32(fixed[4:8])
	fh.HostOS = fixed[8]
	fh.CRC = parse.U32(fixed[9:13])
	fh.FTime = parse.U32(fixed[13:17])
	fh.Version = fixed[17]
	fh.Method = fixed[18]
	nameSize := parse.U16(fixed[19:21])
	fh.Attr = parse.U32(fixed[21:25])

	fh.PackSize, fh.UnpSize = uint64(packLow), uint64(unpLow)
	if fh.Flags.Large {
		highPack, err := c.U32("high pack size")
		if err != nil {
			return fh, fmt.Errorf("%w: %w", ErrHeaderParse, err)
		}
		highUnp, err := c.U32("high unpack size")
		if err != nil {
			return fh, fmt.Errorf("%w: %w", ErrHeaderParse, err)
		}
		fh.PackSize |= uint64(highPack) << 32
		fh.UnpSize |= uint64(highUnp) << 32
	}
	raw, err := c.Bytes(int(nameSize), "file name")
	if err != nil {
		return fh, fmt.Errorf("%w: %w", ErrHeaderParse, err)
	}
	fh.Name = decodeRar4Name(raw, fh.Flags.Unicode, opts)
	if fh.Flags.Salt {
		if err := c.Skip(8, "salt"); err != nil {
			return fh, fmt.Errorf("%w: %w", ErrHeaderParse, err)
		}
	}
	if fh.Flags.ExtTime {
		if err := skipRar4ExtTime(c); err != nil {
			return fh, fmt.Errorf("%w: %w", ErrHeaderParse, err)
		}
	}
	return fh, nil
}

// skipRar4ExtTime steps over the extended time record. Its 16-bit flag word
// holds one nibble per time (mtime, ctime, atime, arctime): bit 3 marks the
// time as present and bits 0-1 count the extra precision bytes. All but mtime
// also carry a 4-byte DOS time.
func skipRar4ExtTime(c *parse.Cursor) error {
	flags, err := c.U16("ext time flags")
	if err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		mode := flags >> uint((3-i)*4)
		if mode&0x8 == 0 {
			continue
		}
		n := int(mode & 0x3)
		if i != 0 {
			n += 4
		}
		if err := c.Skip(n, "ext time"); err != nil {
			return err
		}
	}
	return nil
}

// decodeRar4Name decodes the name field. A NUL ends the name; with the
// unicode flag the bytes after it hold the encoded unicode form.
func decodeRar4Name(raw []byte, unicode bool, opts *Options) string {
	for i, b := range raw {
		if b != 0 {
			continue
		}
		if unicode && i+1 < len(raw) {
			return util.DecodeRar3Unicode(raw[:i], raw[i+1:])
		}
		raw = raw[:i]
		break
	}
	return util.DecodeName(raw, opts.LegacyCharset, japanese.ShiftJIS)
}

func rar4Member(fh rar4FileHeader, dataPos int) (MemberFile, error) {
	if fh.Name == "" {
		return MemberFile{}, fmt.Errorf("%w: empty file name", ErrHeaderParse)
	}
	ctype := ClassifyRar4(fh.Version, fh.Method)
	// encrypted data and parts of files spanning volumes cannot be read from
	// this buffer alone
	if fh.Flags.Encrypted || fh.Flags.SplitBefore || fh.Flags.SplitAfter {
		ctype = Unsupported
	}
	m := newMember(fh.Name, int64(dataPos), int64(fh.PackSize), int64(fh.UnpSize), ctype)
	m.CRC32, m.HasCRC = fh.CRC, true
	m.ModTime = msDosTimeToTime(uint16(fh.FTime>>16), uint16(fh.FTime))
	if ctype == Uncompressed && m.Size != m.FSize {
		return m, fmt.Errorf("%w: stored file %q has %d bytes, expected %d", ErrInvalidFileSize, fh.Name, m.Size, m.FSize)
	}
	return m, nil
}
