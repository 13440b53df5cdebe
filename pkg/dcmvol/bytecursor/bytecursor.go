// Package bytecursor provides an endianness-aware cursor over an in-memory
// byte slice. It is the lowest-level building block of the DICOM parser: all
// higher components (element parsing, header walking, pixel extraction) read
// through a Cursor rather than touching the underlying slice directly.
package bytecursor

import (
	"encoding/binary"
	"math"
	"strings"
)

// Endian selects the byte order used by multi-byte reads.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Cursor is an exclusive reader over a byte slice. An out-of-range read does
// not panic; it returns zero-padded bytes together with a *ShortRead error
// so callers can decide whether the underflow is fatal (structural
// corruption) or tolerable (a truncated optional field).
type Cursor struct {
	data []byte
	pos  int
}

// New wraps data in a Cursor starting at offset 0.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the total length of the underlying slice.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.data) {
		return 0
	}
	return len(c.data) - c.pos
}

// Seek repositions the cursor absolutely. Out-of-range positions are clamped
// to [0, len(data)] rather than rejected; callers that need strict bounds
// checking should compare against Len() first.
func (c *Cursor) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(c.data) {
		pos = len(c.data)
	}
	c.pos = pos
}

// ShortRead reports an attempted read past the end of the buffer. The cursor
// still advances logically (Pos() reflects where the read would have ended)
// so upstream parsers can detect underflow without losing their place.
type ShortRead struct {
	Needed, Available, Offset int
}

func (e *ShortRead) Error() string {
	return "short read"
}

// bytes returns the next n bytes, advancing the cursor. If fewer than n
// bytes remain, the returned slice is zero-padded to length n and a
// *ShortRead is returned alongside it; the cursor is still advanced by n.
func (c *Cursor) bytes(n int) ([]byte, error) {
	offset := c.pos
	avail := c.Remaining()
	if avail >= n {
		b := c.data[c.pos : c.pos+n]
		c.pos += n
		return b, nil
	}
	out := make([]byte, n)
	copy(out, c.data[c.pos:])
	c.pos += n
	return out, &ShortRead{Needed: n, Available: avail, Offset: offset}
}

// ReadU8 reads a single byte.
func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.bytes(1)
	return b[0], err
}

// ReadU16 reads a 16-bit unsigned integer in the given byte order.
func (c *Cursor) ReadU16(e Endian) (uint16, error) {
	b, err := c.bytes(2)
	return e.order().Uint16(b), err
}

// ReadU32 reads a 32-bit unsigned integer in the given byte order.
func (c *Cursor) ReadU32(e Endian) (uint32, error) {
	b, err := c.bytes(4)
	return e.order().Uint32(b), err
}

// ReadF32 reads an IEEE-754 single precision float.
func (c *Cursor) ReadF32(e Endian) (float32, error) {
	v, err := c.ReadU32(e)
	return math.Float32frombits(v), err
}

// ReadF64 reads an IEEE-754 double precision float.
func (c *Cursor) ReadF64(e Endian) (float64, error) {
	b, err := c.bytes(8)
	return math.Float64frombits(e.order().Uint64(b)), err
}

// ReadString reads length bytes and decodes them as best-effort UTF-8,
// trimming trailing NUL pad bytes (DICOM pads odd-length string
// values with either a space or a NUL) and surrounding whitespace.
func (c *Cursor) ReadString(length int) (string, error) {
	b, err := c.bytes(length)
	s := string(b)
	s = strings.TrimRight(s, "\x00")
	s = strings.TrimSpace(s)
	return s, err
}

// Skip advances the cursor by length bytes without returning them.
func (c *Cursor) Skip(length int) {
	c.pos += length
}

// Peek returns up to n bytes at the current position without advancing the
// cursor. The returned slice may be shorter than n at end of buffer.
func (c *Cursor) Peek(n int) []byte {
	end := c.pos + n
	if end > len(c.data) {
		end = len(c.data)
	}
	if c.pos >= end {
		return nil
	}
	return c.data[c.pos:end]
}

// Bytes returns the next n bytes without the zero-padding ShortRead
// semantics of bytes(); it clamps to what is actually available.
func (c *Cursor) Bytes(n int) []byte {
	end := c.pos + n
	if end > len(c.data) {
		end = len(c.data)
	}
	if c.pos >= end {
		c.pos = end
		return nil
	}
	b := c.data[c.pos:end]
	c.pos = end
	return b
}
