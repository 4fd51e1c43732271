package parse

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVarintFromSliceSuccess(t *testing.T) {
	v, n, err := ReadVarintFromSlice([]byte{0xAC, 0x02}) // 300
	require.NoError(t, err)
	assert.Equal(t, uint64(300), v)
	assert.Equal(t, 2, n)
}

func TestReadVarintFromSliceStopsAtTerminator(t *testing.T) {
	v, n, err := ReadVarintFromSlice([]byte{0x05, 0xFF, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
	assert.Equal(t, 1, n)
}

func TestReadVarintFromSliceErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", []byte{}, ErrOutOfBounds},
		{"truncated", bytes.Repeat([]byte{0x80}, 9), ErrOutOfBounds},
		{"too long", bytes.Repeat([]byte{0x80}, 11), ErrCorrupted},
		{"ten continuation bytes", bytes.Repeat([]byte{0xFF}, 10), ErrCorrupted},
		{"overflow in tenth byte", append(bytes.Repeat([]byte{0xFF}, 9), 0x02), ErrCorrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadVarintFromSlice(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadVarintMaxUint64(t *testing.T) {
	b := AppendVarint(nil, ^uint64(0))
	require.Len(t, b, 10)
	v, n, err := ReadVarintFromSlice(b)
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), v)
	assert.Equal(t, 10, n)
}

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 255, 256, 16383, 16384, 1<<21 - 1, 1 << 21, 1<<28 - 1, 1 << 28, 1<<35 - 1}
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20000; i++ {
		values = append(values, r.Uint64N(1<<35))
	}
	for _, v := range values {
		enc := AppendVarint(nil, v)
		got, n, err := ReadVarintFromSlice(enc)
		require.NoError(t, err, "value %d", v)
		require.Equal(t, v, got)
		require.Equal(t, len(enc), n)
	}
}

func TestCursorBounds(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	c := NewCursor(buf, 1, 5)
	v, err := c.U16("field")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), v)
	assert.Equal(t, 2, c.Remaining())

	_, err = c.U32("wide")
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.Equal(t, 3, c.Pos(), "failed read must not advance")

	b, err := c.Bytes(2, "tail")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x05}, b)
	_, err = c.U8("past end")
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.ErrorIs(t, c.Skip(-1, "negative"), ErrOutOfBounds)
}

func TestCursorVarintWindow(t *testing.T) {
	// the varint continues past the window end and must not be read from outside it
	buf := []byte{0x80, 0x80, 0x01}
	c := NewCursor(buf, 0, 2)
	_, err := c.Varint("size")
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestCursorStartPastEnd(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02}, 10, 40)
	assert.Equal(t, 2, c.Pos())
	assert.Equal(t, 2, c.End())
	b, err := c.Bytes(0, "empty")
	require.NoError(t, err)
	assert.Empty(t, b)
	_, err = c.Varint("size")
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
