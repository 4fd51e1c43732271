package arcindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want Format
	}{
		{"zip", concat(zipSig, make([]byte, 26)), FormatZip},
		{"rar4", concat(rarSigV4, make([]byte, 8)), FormatRar4},
		{"rar5", concat(rarSigV5, make([]byte, 8)), FormatRar5},
		{"bare rar5 signature", rarSigV5, FormatRar5},
		{"truncated rar signature", []byte("Rar!\x1A\x07"), FormatUnsupported},
		{"text", []byte("just some text"), FormatUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.buf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectEmptyBuffer(t *testing.T) {
	_, err := Detect(nil)
	assert.ErrorIs(t, err, ErrCorruptedArchive)
}

func TestDetectAtSelfExtractorStub(t *testing.T) {
	stub := concat([]byte("MZ"), bytes.Repeat([]byte{0x90}, 126))
	buf := concat(stub, rar5Archive(buildRar5File(storedRar5("a.txt", []byte("a")))))

	f, off, err := DetectAt(buf, true)
	require.NoError(t, err)
	assert.Equal(t, FormatRar5, f)
	assert.Equal(t, len(stub), off)

	f, _, err = DetectAt(buf, false)
	require.NoError(t, err)
	assert.Equal(t, FormatUnsupported, f, "offset 0 only")
}

func TestDetectPrefersFirstOffset(t *testing.T) {
	buf := concat([]byte{0x00}, zipSig, rarSigV5)
	f, off, err := DetectAt(buf, true)
	require.NoError(t, err)
	assert.Equal(t, FormatZip, f)
	assert.Equal(t, 1, off)
}

func TestFormatText(t *testing.T) {
	b, err := FormatRar5.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "rar5", string(b))
	assert.Equal(t, "unsupported", Format(42).String())
	assert.Equal(t, "RAR4", RarV4.String())
}
