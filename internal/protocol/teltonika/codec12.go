package teltonika

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Codec 12 carries GPRS commands to the device and their textual responses
// back. Both directions use the standard frame envelope; this file only
// deals with the data field.
const (
	CodecID12 = 0x0C

	messageTypeRequest  = 0x05
	messageTypeResponse = 0x06
)

// BuildCommandRequest builds a complete framed Codec 12 command request,
// ready to write to the device.
func BuildCommandRequest(command string) []byte {
	data := []byte{CodecID12, 0x01, messageTypeRequest}
	data = binary.BigEndian.AppendUint32(data, uint32(len(command)))
	data = append(data, command...)
	data = append(data, 0x01)
	return BuildFrame(data)
}

// BuildCommandResponse builds a complete framed Codec 12 response carrying
// body, as a device would emit it. Used by the device simulator and tests.
func BuildCommandResponse(body string) []byte {
	data := []byte{CodecID12, 0x01, messageTypeResponse}
	data = binary.BigEndian.AppendUint32(data, uint32(len(body)))
	data = append(data, body...)
	data = append(data, 0x01)
	return BuildFrame(data)
}

// ParseCommandResponse extracts the response body from a Codec 12 response
// data field. The body is returned verbatim, including any trailing
// whitespace the device appends.
func ParseCommandResponse(data []byte) (string, error) {
	cur := newCursor(data)

	codec, err := cur.u8()
	if err != nil {
		return "", err
	}
	if codec != CodecID12 {
		return "", fmt.Errorf("codec 0x%02X: %w", codec, ErrBadCodec)
	}

	qty1, err := cur.u8()
	if err != nil {
		return "", err
	}

	msgType, err := cur.u8()
	if err != nil {
		return "", err
	}
	if msgType != messageTypeResponse {
		return "", fmt.Errorf("message type 0x%02X: %w", msgType, ErrBadResponseType)
	}

	bodyLen, err := cur.u32()
	if err != nil {
		return "", err
	}
	body, err := cur.take(int(bodyLen))
	if err != nil {
		return "", err
	}

	qty2, err := cur.u8()
	if err != nil {
		return "", err
	}
	if qty1 != qty2 {
		return "", fmt.Errorf("quantity1 %d, quantity2 %d: %w", qty1, qty2, ErrQuantityMismatch)
	}

	return string(body), nil
}

// IsOK reports whether a command response body indicates success. FMB
// firmware phrases success responses inconsistently ("DOUT1:1 Timeout:...",
// "Param ID:... New val:...", plain "OK"), but failure responses never
// contain the substring "OK".
func IsOK(body string) bool {
	return strings.Contains(body, "OK")
}
