package arcindex

import (
	"bytes"
	"fmt"
)

// Format is the container format found by signature detection.
type Format uint8

const (
	FormatUnsupported Format = iota
	FormatZip
	FormatRar4
	FormatRar5
	// FormatImage marks a loose image wrapped by SingleImage.
	FormatImage
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar4:
		return "rar4"
	case FormatRar5:
		return "rar5"
	case FormatImage:
		return "image"
	default:
		return "unsupported"
	}
}

// MarshalText renders the format by name.
func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// RarVersion is the RAR generation reported by ReadArchive.
type RarVersion uint8

const (
	RarUnknown RarVersion = iota
	RarV4
	RarV5
)

func (v RarVersion) String() string {
	switch v {
	case RarV4:
		return "RAR4"
	case RarV5:
		return "RAR5"
	default:
		return "unknown"
	}
}

// signature is a magic byte sequence expected at the start of an archive.
type signature struct {
	format Format
	magic  []byte
}

var (
	zipSig   = []byte{0x50, 0x4B, 0x03, 0x04}
	rarSigV4 = []byte("Rar!\x1A\x07\x00")
	rarSigV5 = []byte("Rar!\x1A\x07\x01\x00")

	// RAR5 shares the first six bytes with RAR4, so it goes first.
	signatures = []signature{
		{FormatRar5, rarSigV5},
		{FormatRar4, rarSigV4},
		{FormatZip, zipSig},
	}
	rarSignatures = signatures[:2]
)

// Detect classifies buf by its signature. See DetectAt.
func Detect(buf []byte) (Format, error) {
	f, _, err := DetectAt(buf, true)
	return f, err
}

// DetectAt returns the format and offset of the first signature in buf. With
// scan set every offset is tried, so archives appended to an executable stub
// are found; otherwise only offset 0 is checked. An empty buffer is an error;
// a buffer without any signature is FormatUnsupported with a nil error.
func DetectAt(buf []byte, scan bool) (Format, int, error) {
	return findSignature(buf, scan, signatures)
}

func findSignature(buf []byte, scan bool, table []signature) (Format, int, error) {
	if len(buf) == 0 {
		return FormatUnsupported, 0, fmt.Errorf("%w: empty buffer", ErrCorruptedArchive)
	}
	limit := 1
	if scan {
		limit = len(buf)
	}
	for i := 0; i < limit; i++ {
		// every signature starts with 'R' or 'P'
		if c := buf[i]; c != 'R' && c != 'P' {
			continue
		}
		for _, s := range table {
			if bytes.HasPrefix(buf[i:], s.magic) {
				return s.format, i, nil
			}
		}
	}
	return FormatUnsupported, 0, nil
}
