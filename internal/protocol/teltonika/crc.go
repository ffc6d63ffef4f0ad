package teltonika

// CRC-16/IBM: polynomial 0x8005, reflected input and output, init 0x0000,
// no final XOR. This is the only parameterization that round-trips with
// frames captured from FMB-family devices; the table below is the reflected
// (0xA001) form.
var crc16Table [256]uint16

func init() {
	for i := range crc16Table {
		crc := uint16(i)
		for range 8 {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
		crc16Table[i] = crc
	}
}

// Crc16 computes CRC-16/IBM over data.
func Crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crc>>8 ^ crc16Table[byte(crc)^b]
	}
	return crc
}
