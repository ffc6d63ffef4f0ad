package teltonika

import (
	"encoding/binary"
	"fmt"
)

// cursor walks a data field with uniform bounds checking. Every read that
// would overrun the remaining bytes fails with ErrTruncated, so the decoders
// never index past the slice and never need ad-hoc length arithmetic.
type cursor struct {
	buf []byte
	off int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// remaining returns the number of unread bytes.
func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

// take returns the next n bytes without copying.
func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, fmt.Errorf("need %d bytes, have %d: %w", n, c.remaining(), ErrTruncated)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (c *cursor) i16() (int16, error) {
	v, err := c.u16()
	return int16(v), err
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}
