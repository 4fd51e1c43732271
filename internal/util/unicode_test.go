package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeRar3UnicodeNoEncodedPart(t *testing.T) {
	assert.Equal(t, "abc", DecodeRar3Unicode([]byte("abc"), nil))
}

func TestDecodeRar3UnicodeOpcodes(t *testing.T) {
	tests := []struct {
		name    string
		ascii   string
		encoded []byte
		want    string
	}{
		{"plain byte", "", []byte{0x00, 0x00, 'Z'}, "Z"},
		{"high byte", "", []byte{0x04, 0x40, 0x05}, string(rune(0x0405))},
		{"two bytes", "", []byte{0x00, 0x80, 0x42, 0x30}, "あ"},
		{"ascii run", "abc", []byte{0x00, 0xC0, 0x01}, "abc"},
		{"corrected run", "AB", []byte{0x30, 0xC0, 0x80, 0x01}, "あぃ"},
		{"mixed", "x", []byte{0x30, 0x40, 0x42, 'y'}, "あy"},
		{"truncated pair", "", []byte{0x00, 0x80, 0x42}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeRar3Unicode([]byte(tt.ascii), tt.encoded))
		})
	}
}
