package arcindex

import (
	"encoding/json"
	"errors"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

func comicZip(t *testing.T) []byte {
	t.Helper()
	text := []byte(strings.Repeat("notes compress well ", 20))
	return concat(
		buildZipEntry(zipEntry{name: "book/page10.png", data: pngHeader}),
		buildZipEntry(zipEntry{name: "book/page2.png", data: pngHeader}),
		buildZipEntry(zipEntry{name: "book/page1.PNG", data: pngHeader}),
		buildZipEntry(zipEntry{name: "book/notes.txt", method: zipMethodDeflate, data: deflateBytes(t, text), usize: uint32(len(text)), crc: crc32.ChecksumIEEE(text)}),
	)
}

func memberPaths(files []MemberFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.FilePath)
	}
	return out
}

func TestOpenSortsMembers(t *testing.T) {
	a, err := Open(comicZip(t))
	require.NoError(t, err)
	assert.Equal(t, FormatZip, a.Format)
	assert.Equal(t, []string{"book/notes.txt", "book/page1.PNG", "book/page2.png", "book/page10.png"}, memberPaths(a.Members))

	a, err = Open(comicZip(t), WithSort(false))
	require.NoError(t, err)
	assert.Equal(t, "book/page10.png", a.Members[0].FilePath, "archive order")
}

func TestOpenErrors(t *testing.T) {
	_, err := Open([]byte("definitely not an archive"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(nil)
	assert.ErrorIs(t, err, ErrCorruptedArchive)

	_, err = Open(buildZipEntry(zipEntry{name: "empty.txt"}))
	assert.ErrorIs(t, err, ErrNoMembers)

	_, err = Open(rar5Archive())
	assert.ErrorIs(t, err, ErrNoMembers)
}

func TestArchiveInfo(t *testing.T) {
	a, err := Open(comicZip(t))
	require.NoError(t, err)
	info := a.Info()

	assert.Equal(t, FormatZip, info.Format)
	assert.Equal(t, 4, info.TotalFiles)
	assert.Equal(t, 3, info.ImageFiles)
	assert.Equal(t, []ExtensionCount{{Ext: "png", Count: 3}, {Ext: "txt", Count: 1}}, info.Extensions)
	assert.Equal(t, 3, info.ByCompression[Uncompressed])
	assert.Equal(t, 1, info.ByCompression[Deflate])
	assert.Greater(t, info.UnpackedSize, info.PackedSize)
	assert.InDelta(t, float64(info.PackedSize)/float64(info.UnpackedSize), info.CompressionRatio, 1e-9)

	b, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"format":"zip"`)
	assert.Contains(t, string(b), `"uncompressed":3`)
}

func TestSummarizeEmpty(t *testing.T) {
	info := Summarize(FormatRar5, ArchiveFlags{}, nil)
	assert.Zero(t, info.TotalFiles)
	assert.Zero(t, info.CompressionRatio)
	assert.Empty(t, info.Extensions)
}

func TestSummarizeNoExtension(t *testing.T) {
	info := Summarize(FormatZip, ArchiveFlags{}, []MemberFile{newMember("README", 0, 1, 1, Uncompressed)})
	assert.Equal(t, []ExtensionCount{{Ext: "(none)", Count: 1}}, info.Extensions)
}

func TestFindMembers(t *testing.T) {
	a, err := Open(comicZip(t))
	require.NoError(t, err)

	m, ok := a.FindByName("PAGE2.png")
	require.True(t, ok)
	assert.Equal(t, "book/page2.png", m.FilePath)

	m, ok = a.FindByName("book/notes.txt")
	require.True(t, ok)
	assert.Equal(t, Deflate, m.CType)

	_, ok = a.FindByName("missing.png")
	assert.False(t, ok)

	assert.Len(t, a.FindByExtension(".png"), 3)
	assert.Len(t, a.FindByExtension("TXT"), 1)
	assert.Empty(t, a.FindByExtension("jpg"))
	assert.Len(t, a.Images(), 3)
}

func TestArchiveDataAccess(t *testing.T) {
	a, err := Open(comicZip(t))
	require.NoError(t, err)
	for _, m := range a.Members {
		assert.NoError(t, a.Verify(m), m.FilePath)
	}
	m, _ := a.FindByName("page1.png")
	raw, err := a.ReadData(m)
	require.NoError(t, err)
	kind, err := SniffImage(raw)
	require.NoError(t, err)
	assert.Equal(t, "png", kind)
	assert.Len(t, a.Bytes(), len(comicZip(t)))
}

func TestSingleImage(t *testing.T) {
	a, err := SingleImage("cover.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, FormatImage, a.Format)
	require.Len(t, a.Members, 1)
	m := a.Members[0]
	assert.Equal(t, "cover.png", m.FileName)
	assert.Equal(t, int64(0), m.Offset)
	assert.Equal(t, int64(len(pngHeader)), m.Size)
	data, err := a.Extract(m)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	_, err = SingleImage("notes.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = SingleImage("empty.png", nil)
	assert.ErrorIs(t, err, ErrNoMembers)
}

func TestSniffImage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png", pngHeader, "png"},
		{"gif", []byte("GIF89a..."), "gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"tiff", []byte("II*\x00rest"), "tiff"},
		{"avif", []byte("\x00\x00\x00\x20ftypavif"), "avif"},
		{"svg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`), "svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SniffImage(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SniffImage([]byte("plain text"))
	assert.ErrorIs(t, err, ErrImage)
	assert.Equal(t, CategoryImage, Category(err))
	_, err = SniffImage(nil)
	assert.ErrorIs(t, err, ErrImage)
	// WEBP marker without a RIFF container
	_, err = SniffImage([]byte("XXXX\x00\x00\x00\x00WEBP"))
	assert.ErrorIs(t, err, ErrImage)
}

func TestNameHelpers(t *testing.T) {
	assert.Equal(t, "jpg", Ext(`dir\Cover.JPG`))
	assert.Equal(t, "", Ext("README"))
	assert.True(t, IsImageName("a/b/c.webp"))
	assert.False(t, IsImageName("c.txt"))
	assert.True(t, IsArchiveName("Book.CBR"))
	assert.False(t, IsArchiveName("book.7z"))
	assert.Equal(t, "c.txt", baseName(`a\b/c.txt`))
	assert.Equal(t, int64(15), newMember("x", 10, 5, 5, Uncompressed).End())
}

func TestErrorCategory(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, CategoryNone},
		{ErrImage, CategoryImage},
		{ErrEncrypted, CategoryUnsupported},
		{ErrNoMembers, CategoryUnsupported},
		{ErrUnsupportedCompression, CategoryUnsupported},
		{ErrCorruptedArchive, CategoryCorrupted},
		{ErrOutOfBounds, CategoryCorrupted},
		{ErrInvalidFileSize, CategoryCorrupted},
		{ErrChecksum, CategoryCorrupted},
		{ErrIO, CategoryCorrupted},
		{parseErr(FormatRar5, 12, ErrHeaderParse), CategoryCorrupted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Category(tt.err), "%v", tt.err)
	}
	assert.Equal(t, "archive is corrupted", CategoryCorrupted.String())
}

func TestParseErrorWrapsOnce(t *testing.T) {
	inner := parseErr(FormatZip, 5, ErrOutOfBounds)
	outer := parseErr(FormatZip, 0, inner)
	var pe *ParseError
	require.True(t, errors.As(outer, &pe))
	assert.Equal(t, 5, pe.Offset)
	assert.Contains(t, outer.Error(), "zip header at offset 5")
}
