package teltonika

import "errors"

// Frame-structural errors. Any of these aborts the session: the gateway
// acknowledges zero records and closes the connection.
var (
	// ErrTruncated indicates the stream or data field ended before a
	// complete element could be read.
	ErrTruncated = errors.New("truncated frame")

	// ErrBadPreamble indicates the 4-byte zero preamble was missing.
	ErrBadPreamble = errors.New("bad preamble")

	// ErrBadCRC indicates the trailing CRC-16 did not match the data field.
	ErrBadCRC = errors.New("crc mismatch")

	// ErrUnsupportedCodec indicates an uplink data field whose codec id is
	// not Codec 8 Extended.
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrCountMismatch indicates the leading and trailing record counts of a
	// Codec 8E data field disagree.
	ErrCountMismatch = errors.New("record count mismatch")

	// ErrInvalidIMEI indicates a handshake message that arrived intact but
	// failed validation. The session replies with the reject byte; transport
	// failures during the handshake close the connection silently instead.
	ErrInvalidIMEI = errors.New("invalid imei")
)

// Codec 12 response errors. These fail the in-flight command but never abort
// record ingestion.
var (
	// ErrBadCodec indicates a downlink response whose codec id is not 0x0C.
	ErrBadCodec = errors.New("bad response codec")

	// ErrBadResponseType indicates a Codec 12 message whose type byte is not
	// the response marker 0x06.
	ErrBadResponseType = errors.New("bad response type")

	// ErrQuantityMismatch indicates the opening and closing quantity bytes of
	// a Codec 12 response disagree.
	ErrQuantityMismatch = errors.New("quantity mismatch")
)
