package teltonika

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame envelope shared by every TCP message after the IMEI handshake:
//
//	[4B zero preamble][4B data length][data field][4B CRC-16 in low bits]
//
// All integers are big-endian.
const (
	// MaxDataFieldLen caps the declared data length. The largest legal
	// Codec 8E frame is well under 2 KiB; anything bigger means a corrupt
	// length field, and honoring it would stall the read loop.
	MaxDataFieldLen = 1 << 16

	// AcceptIMEI and RejectIMEI are the single-byte handshake replies.
	AcceptIMEI = 0x01
	RejectIMEI = 0x00

	maxIMEILen = 17
)

// ReadFrame reads one framed message from r and returns its data field.
// The preamble and CRC are verified; the returned slice is freshly
// allocated.
func ReadFrame(r io.Reader) ([]byte, error) {
	var head [8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("reading frame header: %w", wrapReadErr(err))
	}
	if preamble := binary.BigEndian.Uint32(head[:4]); preamble != 0 {
		return nil, fmt.Errorf("preamble 0x%08X: %w", preamble, ErrBadPreamble)
	}

	dataLen := binary.BigEndian.Uint32(head[4:])
	if dataLen == 0 || dataLen > MaxDataFieldLen {
		return nil, fmt.Errorf("data length %d: %w", dataLen, ErrTruncated)
	}

	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading data field: %w", wrapReadErr(err))
	}

	var tail [4]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, fmt.Errorf("reading crc: %w", wrapReadErr(err))
	}
	want := uint16(binary.BigEndian.Uint32(tail[:]))
	if got := Crc16(data); got != want {
		return nil, fmt.Errorf("crc 0x%04X, frame declares 0x%04X: %w", got, want, ErrBadCRC)
	}

	return data, nil
}

// BuildFrame wraps a data field in the frame envelope.
func BuildFrame(data []byte) []byte {
	frame := make([]byte, 0, len(data)+12)
	frame = binary.BigEndian.AppendUint32(frame, 0)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(data)))
	frame = append(frame, data...)
	return binary.BigEndian.AppendUint32(frame, uint32(Crc16(data)))
}

// ReadIMEI reads the handshake message: a 2-byte length followed by the
// ASCII IMEI. Trailing NUL padding is stripped before validation; the
// result must be 1 to 17 ASCII digits.
func ReadIMEI(r io.Reader) (string, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return "", fmt.Errorf("reading imei length: %w", wrapReadErr(err))
	}
	length := binary.BigEndian.Uint16(head[:])
	if length == 0 || length > 64 {
		return "", fmt.Errorf("imei length %d: %w", length, ErrInvalidIMEI)
	}

	raw := make([]byte, length)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", fmt.Errorf("reading imei: %w", wrapReadErr(err))
	}

	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	imei := raw[:end]

	if len(imei) == 0 || len(imei) > maxIMEILen {
		return "", fmt.Errorf("imei %q has invalid length: %w", imei, ErrInvalidIMEI)
	}
	for _, c := range imei {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("imei %q contains non-digit bytes: %w", imei, ErrInvalidIMEI)
		}
	}
	return string(imei), nil
}

// BuildIMEI builds the handshake message for an IMEI. Used by the device
// simulator and tests.
func BuildIMEI(imei string) []byte {
	msg := binary.BigEndian.AppendUint16(nil, uint16(len(imei)))
	return append(msg, imei...)
}

// BuildAck builds the record acknowledgment: the count of persisted records
// as a big-endian uint32.
func BuildAck(count uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, count)
}

// wrapReadErr maps short reads onto ErrTruncated so callers can classify
// them uniformly; other transport errors pass through.
func wrapReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%v: %w", err, ErrTruncated)
	}
	return err
}
