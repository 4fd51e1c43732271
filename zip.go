package arcindex

import (
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/javi11/arcindex/internal/parse"
)

const (
	zipLocalSig          = 0x04034b50
	zipDataDescriptorSig = 0x08074b50
	zipLocalHeaderLen    = 30
	zipExtraZip64        = 0x0001
	zip64Marker          = 0xFFFFFFFF
)

type zipLocalHeader struct {
	Version     uint16
	Flags       uint16
	Method      uint16
	ModTime     uint16
	ModDate     uint16
	CRC32       uint32
	PackedSize  uint64
	UnpackSize  uint64
	Name        []byte
	Extra       []byte
	DataPos     int
	UsesZip64   bool
	HasDataDesc bool
}

// ParseZip walks the ZIP local file headers starting at start, normally the
// offset returned by DetectAt. The walk ends at the first record that is not
// a local file header (the central directory) or when fewer than 30 bytes
// remain.
func ParseZip(buf []byte, start int, optFns ...func(*Options)) ([]MemberFile, error) {
	return parseZip(buf, start, newOptions(optFns))
}

func parseZip(buf []byte, start int, opts *Options) ([]MemberFile, error) {
	log := opts.Logger.With(slog.String("format", "zip"))
	var (
		out []MemberFile
		cd  *zipCentralIndex
	)
	pos := start
	for pos >= 0 && len(buf)-pos >= zipLocalHeaderLen {
		if parse.U32(buf[pos:]) != zipLocalSig {
			log.Debug("no more local headers", "pos", pos)
			break
		}
		hdrStart := pos
		h, err := readZipLocalHeader(buf, pos)
		if err != nil {
			return nil, parseErr(FormatZip, hdrStart, err)
		}
		if h.HasDataDesc && h.PackedSize == 0 && h.UnpackSize == 0 {
			if cd == nil {
				if cd, err = loadZipCentral(buf, start); err != nil {
					return nil, parseErr(FormatZip, hdrStart, err)
				}
			}
			e, ok := cd.lookup(int64(hdrStart))
			if !ok {
				return nil, parseErr(FormatZip, hdrStart, fmt.Errorf("%w: entry with data descriptor has no central directory record", ErrHeaderParse))
			}
			h.PackedSize, h.UnpackSize, h.CRC32 = e.PackedSize, e.UnpackSize, e.CRC32
		}
		if h.PackedSize > uint64(len(buf)-h.DataPos) {
			return nil, parseErr(FormatZip, hdrStart, fmt.Errorf("%w: entry data %d+%d exceeds buffer of %d bytes", ErrOutOfBounds, h.DataPos, h.PackedSize, len(buf)))
		}
		dataEnd := h.DataPos + int(h.PackedSize)
		pos = dataEnd
		if h.HasDataDesc {
			pos = skipZipDataDescriptor(buf, pos, h.UsesZip64)
		}

		if h.PackedSize == 0 {
			log.Debug("skip empty entry", "name", string(h.Name))
			continue
		}
		if !utf8.Valid(h.Name) {
			return nil, parseErr(FormatZip, hdrStart, fmt.Errorf("%w: file name %q is not valid UTF-8", ErrStringConversion, h.Name))
		}
		name := string(h.Name)
		if name == "" {
			return nil, parseErr(FormatZip, hdrStart, fmt.Errorf("%w: empty file name", ErrHeaderParse))
		}
		if name[len(name)-1] == '/' {
			continue
		}
		m := newMember(name, int64(h.DataPos), int64(h.PackedSize), int64(h.UnpackSize), ClassifyZip(h.Method, h.Flags))
		m.CRC32, m.HasCRC = h.CRC32, true
		m.ModTime = msDosTimeToTime(h.ModDate, h.ModTime)
		if m.CType == Uncompressed && m.Size != m.FSize {
			return nil, parseErr(FormatZip, hdrStart, fmt.Errorf("%w: stored entry %q has %d bytes, expected %d", ErrInvalidFileSize, name, m.Size, m.FSize))
		}
		log.Debug("entry", "name", name, "offset", m.Offset, "size", m.Size, "fsize", m.FSize, "ctype", m.CType)
		out = append(out, m)
	}
	return out, nil
}

// readZipLocalHeader reads the header whose signature is at pos.
func readZipLocalHeader(buf []byte, pos int) (zipLocalHeader, error) {
	var h zipLocalHeader
	c := parse.NewCursor(buf, pos+4, len(buf))
	var err error
	if h.Version, err = c.U16("version"); err != nil {
		return h, err
	}
	if h.Flags, err = c.U16("flags"); err != nil {
		return h, err
	}
	if h.Method, err = c.U16("method"); err != nil {
		return h, err
	}
	if h.ModTime, err = c.U16("mtime"); err != nil {
		return h, err
	}
	if h.ModDate, err = c.U16("mdate"); err != nil {
		return h, err
	}
	if h.CRC32, err = c.U32("crc32"); err != nil {
		return h, err
	}
	packed, err := c.U32("compressed size")
	if err != nil {
		return h, err
	}
	unpacked, err := c.U32("uncompressed size")
	if err != nil {
		return h, err
	}
	nameLen, err := c.U16("name length")
	if err != nil {
		return h, err
	}
	extraLen, err := c.U16("extra length")
	if err != nil {
		return h, err
	}
	if h.Name, err = c.Bytes(int(nameLen), "name"); err != nil {
		return h, err
	}
	if h.Extra, err = c.Bytes(int(extraLen), "extra field"); err != nil {
		return h, err
	}
	h.DataPos = c.Pos()
	h.PackedSize, h.UnpackSize = uint64(packed), uint64(unpacked)
	h.HasDataDesc = h.Flags&zipFlagDataDescriptor != 0
	if packed == zip64Marker || unpacked == zip64Marker {
		// a local header's zip64 field always carries both sizes
		h.UsesZip64 = true
		h.PackedSize, h.UnpackSize = zip64Marker, zip64Marker
		if err := applyZip64Extra(h.Extra, &h.UnpackSize, &h.PackedSize, nil); err != nil {
			return h, err
		}
	}
	return h, nil
}

// applyZip64Extra replaces the sizes (and offset) that are set to the 32-bit
// marker with the values of the ZIP64 extended information field. Fields are
// stored in the fixed order unpacked size, packed size, offset.
func applyZip64Extra(extra []byte, unpacked, packed, offset *uint64) error {
	c := parse.NewCursor(extra, 0, len(extra))
	for c.Remaining() >= 4 {
		id, _ := c.U16("extra id")
		size, _ := c.U16("extra size")
		data, err := c.Bytes(int(size), "extra data")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrHeaderParse, err)
		}
		if id != zipExtraZip64 {
			continue
		}
		z := parse.NewCursor(data, 0, len(data))
		for _, p := range []*uint64{unpacked, packed, offset} {
			if p == nil || *p != zip64Marker {
				continue
			}
			if *p, err = z.U64("zip64 field"); err != nil {
				return fmt.Errorf("%w: %w", ErrHeaderParse, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: size marker without zip64 extra field", ErrHeaderParse)
}

// skipZipDataDescriptor returns the offset after the data descriptor that
// follows entry data at pos. The descriptor signature is optional.
func skipZipDataDescriptor(buf []byte, pos int, zip64 bool) int {
	if len(buf)-pos >= 4 && parse.U32(buf[pos:]) == zipDataDescriptorSig {
		pos += 4
	}
	n := 12
	if zip64 {
		n = 20
	}
	if len(buf)-pos < n {
		return len(buf)
	}
	return pos + n
}

// msDosTimeToTime converts an MS-DOS date and time into a time.Time with a
// resolution of 2s. A zero date gives the zero time.
func msDosTimeToTime(dosDate, dosTime uint16) time.Time {
	if dosDate == 0 && dosTime == 0 {
		return time.Time{}
	}
	return time.Date(
		// date bits 0-4: day of month; 5-8: month; 9-15: years since 1980
		int(dosDate>>9+1980),
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),

		// time bits 0-4: second/2; 5-10: minute; 11-15: hour
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f*2),
		0,
		time.UTC,
	)
}
