package mdict

import (
	"encoding/binary"
	"fmt"
)

// byteCursor reads fixed-width fields from a buffer with bounds checks.
// base is the absolute file offset of buf[0] and is only used in errors.
type byteCursor struct {
	buf     []byte
	pos     int
	base    int64
	section string
	block   int
}

func newCursor(buf []byte, base int64, section string, block int) *byteCursor {
	return &byteCursor{buf: buf, base: base, section: section, block: block}
}

func (c *byteCursor) offset() int64 { return c.base + int64(c.pos) }

func (c *byteCursor) remaining() int { return len(c.buf) - c.pos }

func (c *byteCursor) malformed(format string, args ...any) error {
	return &MalformedLayoutError{
		Section: c.section,
		Block:   c.block,
		Offset:  c.offset(),
		Reason:  fmt.Sprintf(format, args...),
	}
}

// take returns the next n bytes and advances past them.
func (c *byteCursor) take(n uint64) ([]byte, error) {
	if n > uint64(c.remaining()) {
		return nil, c.malformed("need %d bytes, %d left", n, c.remaining())
	}
	b := c.buf[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return b, nil
}

func (c *byteCursor) skip(n uint64) error {
	_, err := c.take(n)
	return err
}

func (c *byteCursor) uint16BE() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *byteCursor) uint32BE() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *byteCursor) uint32LE() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *byteCursor) uint64BE() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// untilTerminator returns the bytes before the next all-zero unit of the
// given width and advances past the terminator. Units are aligned to the
// current position.
func (c *byteCursor) untilTerminator(width int) ([]byte, error) {
	start := c.pos
	for i := start; i+width <= len(c.buf); i += width {
		if isZero(c.buf[i : i+width]) {
			c.pos = i + width
			return c.buf[start:i], nil
		}
	}
	return nil, c.malformed("unterminated keyword")
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
