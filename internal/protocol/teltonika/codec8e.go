package teltonika

import (
	"encoding/binary"
	"fmt"
	"time"
)

// CodecID8E is the codec id byte of a Codec 8 Extended data field.
const CodecID8E = 0x8E

// maxTimestampSec is the upper bound of the accepted device timestamp range.
// Devices with a dead RTC report epoch garbage far outside it; the decoder
// substitutes the wall clock for those instead of rejecting the record.
const maxTimestampSec = int64(1<<31 - 1)

// IOPoint is a single IO element of an AVL record. Values narrower than
// eight bytes are zero-extended.
type IOPoint struct {
	ID    uint16
	Value uint64
}

// Record is one decoded AVL record. Timestamp is UTC with second precision;
// Substituted marks records whose device timestamp was out of range and was
// replaced with the gateway clock.
type Record struct {
	Timestamp   time.Time
	Substituted bool
	Priority    uint8
	Longitude   float64
	Latitude    float64
	Altitude    int16
	Angle       uint16
	Satellites  uint8
	Speed       uint16
	EventIOID   uint16
	IOs         []IOPoint
}

// DecodeCodec8E decodes a Codec 8 Extended data field into AVL records.
// data is the frame data field, preamble and CRC already stripped. now
// supplies the wall clock used to recover out-of-range timestamps.
//
// All structural failures leave the input unconsumed in any observable
// sense: either the full record block decodes, or an error is returned and
// no records are.
func DecodeCodec8E(data []byte, now func() time.Time) ([]Record, error) {
	cur := newCursor(data)

	codec, err := cur.u8()
	if err != nil {
		return nil, err
	}
	if codec != CodecID8E {
		return nil, fmt.Errorf("codec 0x%02X: %w", codec, ErrUnsupportedCodec)
	}

	nStart, err := cur.u8()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, nStart)
	for range int(nStart) {
		rec, err := decodeRecord(cur, now)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	nEnd, err := cur.u8()
	if err != nil {
		return nil, err
	}
	if nEnd != nStart {
		return nil, fmt.Errorf("leading count %d, trailing count %d: %w", nStart, nEnd, ErrCountMismatch)
	}
	if cur.remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after record block: %w", cur.remaining(), ErrCountMismatch)
	}

	return records, nil
}

func decodeRecord(cur *cursor, now func() time.Time) (Record, error) {
	var rec Record

	tsMillis, err := cur.u64()
	if err != nil {
		return rec, err
	}
	tsSec := int64(tsMillis / 1000)
	if tsMillis/1000 > uint64(maxTimestampSec) {
		rec.Timestamp = now().UTC().Truncate(time.Second)
		rec.Substituted = true
	} else {
		rec.Timestamp = time.Unix(tsSec, 0).UTC()
	}

	if rec.Priority, err = cur.u8(); err != nil {
		return rec, err
	}

	lon, err := cur.i32()
	if err != nil {
		return rec, err
	}
	lat, err := cur.i32()
	if err != nil {
		return rec, err
	}
	rec.Longitude = float64(lon) / 1e7
	rec.Latitude = float64(lat) / 1e7

	if rec.Altitude, err = cur.i16(); err != nil {
		return rec, err
	}
	if rec.Angle, err = cur.u16(); err != nil {
		return rec, err
	}
	if rec.Satellites, err = cur.u8(); err != nil {
		return rec, err
	}
	if rec.Speed, err = cur.u16(); err != nil {
		return rec, err
	}

	if rec.EventIOID, err = cur.u16(); err != nil {
		return rec, err
	}
	// Total IO count. Redundant with the per-width counts that follow; the
	// per-width counts are authoritative.
	if _, err = cur.u16(); err != nil {
		return rec, err
	}

	for _, width := range []int{1, 2, 4, 8} {
		count, err := cur.u16()
		if err != nil {
			return rec, err
		}
		for range int(count) {
			id, err := cur.u16()
			if err != nil {
				return rec, err
			}
			raw, err := cur.take(width)
			if err != nil {
				return rec, err
			}
			rec.IOs = append(rec.IOs, IOPoint{ID: id, Value: beUint(raw)})
		}
	}

	// Variable-width bucket, Codec 8E only.
	countX, err := cur.u16()
	if err != nil {
		return rec, err
	}
	for range int(countX) {
		id, err := cur.u16()
		if err != nil {
			return rec, err
		}
		vlen, err := cur.u16()
		if err != nil {
			return rec, err
		}
		raw, err := cur.take(int(vlen))
		if err != nil {
			return rec, err
		}
		if vlen > 8 {
			return rec, fmt.Errorf("variable IO %d is %d bytes, max 8: %w", id, vlen, ErrTruncated)
		}
		rec.IOs = append(rec.IOs, IOPoint{ID: id, Value: beUint(raw)})
	}

	return rec, nil
}

// beUint interprets up to 8 bytes as a big-endian unsigned integer.
func beUint(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// EncodeCodec8E encodes records as a Codec 8 Extended data field, the exact
// inverse of DecodeCodec8E. IO values are placed in the narrowest fixed-width
// bucket that holds them. Used by the device simulator and round-trip tests.
func EncodeCodec8E(records []Record) []byte {
	buf := []byte{CodecID8E, byte(len(records))}
	for _, rec := range records {
		buf = appendRecord(buf, rec)
	}
	return append(buf, byte(len(records)))
}

func appendRecord(buf []byte, rec Record) []byte {
	buf = binary.BigEndian.AppendUint64(buf, uint64(rec.Timestamp.UnixMilli()))
	buf = append(buf, rec.Priority)
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(rec.Longitude*1e7+roundHalf(rec.Longitude))))
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(rec.Latitude*1e7+roundHalf(rec.Latitude))))
	buf = binary.BigEndian.AppendUint16(buf, uint16(rec.Altitude))
	buf = binary.BigEndian.AppendUint16(buf, rec.Angle)
	buf = append(buf, rec.Satellites)
	buf = binary.BigEndian.AppendUint16(buf, rec.Speed)
	buf = binary.BigEndian.AppendUint16(buf, rec.EventIOID)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(rec.IOs)))

	byWidth := map[int][]IOPoint{}
	for _, io := range rec.IOs {
		w := valueWidth(io.Value)
		byWidth[w] = append(byWidth[w], io)
	}
	for _, width := range []int{1, 2, 4, 8} {
		ios := byWidth[width]
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(ios)))
		for _, io := range ios {
			buf = binary.BigEndian.AppendUint16(buf, io.ID)
			for i := width - 1; i >= 0; i-- {
				buf = append(buf, byte(io.Value>>(8*i)))
			}
		}
	}
	// Empty variable-width bucket; fixed widths cover every value.
	return binary.BigEndian.AppendUint16(buf, 0)
}

func valueWidth(v uint64) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

func roundHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}
