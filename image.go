package arcindex

import (
	"bytes"
	"fmt"
	"path"
	"strings"
)

var (
	imageExts   = []string{"jpg", "jpeg", "png", "gif", "bmp", "webp", "tiff", "tif", "ico", "svg", "avif"}
	archiveExts = []string{"zip", "rar", "cbz", "cbr"}
)

// imageMagic matches an image type by the bytes at the start of its data.
type imageMagic struct {
	kind   string
	offset int
	magic  []byte
}

var imageMagics = []imageMagic{
	{"jpeg", 0, []byte{0xFF, 0xD8, 0xFF}},
	{"png", 0, []byte("\x89PNG\r\n\x1a\n")},
	{"gif", 0, []byte("GIF87a")},
	{"gif", 0, []byte("GIF89a")},
	{"bmp", 0, []byte("BM")},
	{"webp", 8, []byte("WEBP")},
	{"tiff", 0, []byte("II*\x00")},
	{"tiff", 0, []byte("MM\x00*")},
	{"ico", 0, []byte{0x00, 0x00, 0x01, 0x00}},
	{"avif", 4, []byte("ftypavif")},
	{"avif", 4, []byte("ftypavis")},
}

// Ext returns the lower-case extension of name without the dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(strings.ReplaceAll(name, `\`, "/")), "."))
}

// IsImageName reports whether name has an image extension.
func IsImageName(name string) bool {
	ext := Ext(name)
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// IsArchiveName reports whether name has an archive extension (zip, rar, cbz,
// cbr).
func IsArchiveName(name string) bool {
	ext := Ext(name)
	for _, e := range archiveExts {
		if ext == e {
			return true
		}
	}
	return false
}

// SniffImage identifies image data by its leading bytes. SVG is accepted when
// an <svg element appears near the start. Unknown data fails with ErrImage.
func SniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty data", ErrImage)
	}
	for _, m := range imageMagics {
		if len(data) >= m.offset+len(m.magic) && bytes.Equal(data[m.offset:m.offset+len(m.magic)], m.magic) {
			if m.kind == "webp" && !bytes.HasPrefix(data, []byte("RIFF")) {
				continue
			}
			return m.kind, nil
		}
	}
	head := data[:min(len(data), 1024)]
	if bytes.Contains(bytes.ToLower(head), []byte("<svg")) {
		return "svg", nil
	}
	return "", fmt.Errorf("%w: unrecognised image signature", ErrImage)
}

// SingleImage wraps a loose image file as a one member archive, so a viewer
// can treat it like any other archive.
func SingleImage(name string, buf []byte) (*Archive, error) {
	if !IsImageName(name) {
		return nil, fmt.Errorf("%w: %s is not an image", ErrUnsupportedFormat, name)
	}
	if len(buf) == 0 {
		return nil, ErrNoMembers
	}
	m := newMember(name, 0, int64(len(buf)), int64(len(buf)), Uncompressed)
	return &Archive{Format: FormatImage, Members: []MemberFile{m}, buf: buf}, nil
}
