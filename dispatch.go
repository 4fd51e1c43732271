package arcindex

import (
	"fmt"
)

// ArchiveFlags are archive-wide properties read from the RAR main header.
// ZIP archives leave them zero.
type ArchiveFlags struct {
	MultiVolume    bool   `json:"multiVolume,omitempty"`
	NotFirstVolume bool   `json:"notFirstVolume,omitempty"`
	Volume         uint64 `json:"volume,omitempty"`
	Solid          bool   `json:"solid,omitempty"`
	RecoveryRecord bool   `json:"recoveryRecord,omitempty"`
	Locked         bool   `json:"locked,omitempty"`
}

// ReadArchive detects whether buf holds a RAR4 or RAR5 archive and parses it
// with the matching walker. Buffers without a RAR signature fail with
// ErrUnsupportedFormat. Members are returned in archive order.
func ReadArchive(buf []byte, optFns ...func(*Options)) (RarVersion, []MemberFile, error) {
	opts := newOptions(optFns)
	format, start, err := findSignature(buf, opts.ScanSignature, rarSignatures)
	if err != nil {
		return RarUnknown, nil, err
	}
	switch format {
	case FormatRar4:
		files, _, err := parseRar4(buf, start, opts)
		return RarV4, files, err
	case FormatRar5:
		files, _, err := parseRar5(buf, start, opts)
		return RarV5, files, err
	default:
		return RarUnknown, nil, fmt.Errorf("%w: no RAR signature", ErrUnsupportedFormat)
	}
}

// parseFormat runs the walker for format from the signature at start.
func parseFormat(buf []byte, format Format, start int, opts *Options) ([]MemberFile, ArchiveFlags, error) {
	switch format {
	case FormatZip:
		files, err := parseZip(buf, start, opts)
		return files, ArchiveFlags{}, err
	case FormatRar4:
		return parseRar4(buf, start, opts)
	case FormatRar5:
		return parseRar5(buf, start, opts)
	default:
		return nil, ArchiveFlags{}, fmt.Errorf("%w: no known signature", ErrUnsupportedFormat)
	}
}
