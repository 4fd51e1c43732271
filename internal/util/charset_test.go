package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

func TestDecodeNameUTF8(t *testing.T) {
	assert.Equal(t, "página.jpg", DecodeName([]byte("página.jpg"), charmap.Windows1252))
}

func TestDecodeNameLegacyCodePage(t *testing.T) {
	// 0xE9 is é in windows-1252 and invalid on its own as UTF-8
	assert.Equal(t, "café.png", DecodeName([]byte{'c', 'a', 'f', 0xE9, '.', 'p', 'n', 'g'}, charmap.Windows1252, japanese.ShiftJIS))
}

func TestDecodeNameShiftJIS(t *testing.T) {
	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("表紙.jpg"))
	assert.NoError(t, err)
	assert.Equal(t, "表紙.jpg", DecodeName(sjis, japanese.ShiftJIS))
}

func TestDecodeNameNeverFails(t *testing.T) {
	got := DecodeName([]byte{0xFF, 0xFE, 'a'})
	assert.Equal(t, "�a", got)
	assert.NotEmpty(t, DecodeName([]byte{0x81, 0x8D}, charmap.Windows1252, japanese.ShiftJIS))
}
