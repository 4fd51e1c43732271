package arcindex

import (
	"errors"
	"fmt"

	"github.com/javi11/arcindex/internal/parse"
)

// Error kinds shared by every parser and data accessor. Match with errors.Is.
var (
	ErrIO                = errors.New("io error")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrCorruptedArchive  = parse.ErrCorrupted
	ErrInvalidFileSize   = errors.New("invalid file size")
	ErrHeaderParse       = errors.New("header parse error")
	ErrStringConversion  = errors.New("string conversion error")
	ErrDecompression     = errors.New("decompression failed")
	ErrOutOfBounds       = parse.ErrOutOfBounds
	ErrImage             = errors.New("image could not be decoded")
)

// Narrower errors. Each one also matches one of the kinds above.
var (
	ErrEncrypted              = fmt.Errorf("%w: encrypted archive", ErrUnsupportedFormat)
	ErrUnsupportedCompression = fmt.Errorf("%w: compression method not supported", ErrDecompression)
	ErrNoMembers              = fmt.Errorf("%w: no files found in archive", ErrUnsupportedFormat)
	ErrChecksum               = fmt.Errorf("%w: crc32 mismatch", ErrDecompression)
)

// ParseError records the format and buffer offset at which a header walk
// failed. It unwraps to the underlying error kind.
type ParseError struct {
	Format Format
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s header at offset %d: %v", e.Format, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(f Format, off int, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Format: f, Offset: off, Err: err}
}

// ErrorCategory groups errors the way they are shown to a user.
type ErrorCategory int

const (
	CategoryNone ErrorCategory = iota
	CategoryUnsupported
	CategoryCorrupted
	CategoryImage
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryUnsupported:
		return "unsupported archive"
	case CategoryCorrupted:
		return "archive is corrupted"
	case CategoryImage:
		return "image could not be decoded"
	default:
		return "ok"
	}
}

// Category maps err to the user-visible category it belongs to.
func Category(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrImage):
		return CategoryImage
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrUnsupportedCompression):
		return CategoryUnsupported
	default:
		return CategoryCorrupted
	}
}
