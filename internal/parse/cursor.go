package parse

import "fmt"

// Cursor walks a window of a byte slice. Every read is bounds-checked against
// the window end and fails with ErrOutOfBounds instead of panicking.
type Cursor struct {
	buf []byte
	pos int
	end int
}

// NewCursor returns a cursor over buf[pos:end]. end is clamped to len(buf)
// and pos to [0, end].
func NewCursor(buf []byte, pos, end int) *Cursor {
	if end > len(buf) || end < 0 {
		end = len(buf)
	}
	pos = max(0, min(pos, end))
	return &Cursor{buf: buf, pos: pos, end: end}
}

// Pos returns the absolute offset of the next read.
func (c *Cursor) Pos() int { return c.pos }

// End returns the absolute offset the cursor may not read past.
func (c *Cursor) End() int { return c.end }

// Remaining returns the number of unread bytes in the window.
func (c *Cursor) Remaining() int {
	if c.pos >= c.end {
		return 0
	}
	return c.end - c.pos
}

func (c *Cursor) need(n int, what string) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("%w: %s needs %d bytes at %d, %d left", ErrOutOfBounds, what, n, c.pos, c.Remaining())
	}
	return nil
}

// U8 reads one byte.
func (c *Cursor) U8(what string) (byte, error) {
	if err := c.need(1, what); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// U16 reads a little-endian uint16.
func (c *Cursor) U16(what string) (uint16, error) {
	if err := c.need(2, what); err != nil {
		return 0, err
	}
	v := U16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// U32 reads a little-endian uint32.
func (c *Cursor) U32(what string) (uint32, error) {
	if err := c.need(4, what); err != nil {
		return 0, err
	}
	v := U32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// U64 reads a little-endian uint64.
func (c *Cursor) U64(what string) (uint64, error) {
	if err := c.need(8, what); err != nil {
		return 0, err
	}
	v := U64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

// Varint reads a RAR5 varint.
func (c *Cursor) Varint(what string) (uint64, error) {
	if c.pos >= c.end {
		return 0, fmt.Errorf("%s at %d: %w: no bytes left", what, c.pos, ErrOutOfBounds)
	}
	v, n, err := ReadVarintFromSlice(c.buf[c.pos:c.end])
	if err != nil {
		return 0, fmt.Errorf("%s at %d: %w", what, c.pos, err)
	}
	c.pos += n
	return v, nil
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int, what string) ([]byte, error) {
	if err := c.need(n, what); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int, what string) error {
	if err := c.need(n, what); err != nil {
		return err
	}
	c.pos += n
	return nil
}
