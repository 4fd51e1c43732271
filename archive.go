package arcindex

import (
	"fmt"
	"log/slog"
)

// Archive is a parsed archive: its member index and the buffer the member
// offsets point into. The buffer must not change while the Archive is used.
type Archive struct {
	Format  Format       `json:"format"`
	Flags   ArchiveFlags `json:"flags"`
	Members []MemberFile `json:"members"`

	buf []byte
}

// Open detects the format of buf, parses its member index and, unless
// disabled with WithSort(false), orders the members naturally. An archive
// without any member fails with ErrNoMembers.
func Open(buf []byte, optFns ...func(*Options)) (*Archive, error) {
	opts := newOptions(optFns)
	format, start, err := DetectAt(buf, opts.ScanSignature)
	if err != nil {
		return nil, err
	}
	if format == FormatUnsupported {
		return nil, fmt.Errorf("%w: no known signature", ErrUnsupportedFormat)
	}
	opts.Logger.Debug("signature found", slog.String("format", format.String()), slog.Int("offset", start))
	files, flags, err := parseFormat(buf, format, start, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoMembers
	}
	if opts.Sort {
		SortMembers(files)
	}
	return &Archive{Format: format, Flags: flags, Members: files, buf: buf}, nil
}

// Bytes returns the buffer the archive was parsed from.
func (a *Archive) Bytes() []byte { return a.buf }

// ReadData returns the raw stored bytes of m.
func (a *Archive) ReadData(m MemberFile) ([]byte, error) { return ReadData(a.buf, m.Offset, m.Size) }

// Extract returns the uncompressed bytes of m.
func (a *Archive) Extract(m MemberFile) ([]byte, error) { return Extract(a.buf, m) }

// Verify extracts m and checks its CRC32.
func (a *Archive) Verify(m MemberFile) error { return Verify(a.buf, m) }

// Images returns the members with an image extension, in index order.
func (a *Archive) Images() []MemberFile {
	var out []MemberFile
	for _, m := range a.Members {
		if IsImageName(m.FileName) {
			out = append(out, m)
		}
	}
	return out
}
