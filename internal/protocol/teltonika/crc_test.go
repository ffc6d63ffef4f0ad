package teltonika

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCrc16(t *testing.T) {
	t.Run("KnownVectors", func(t *testing.T) {
		// CRC-16/IBM (ARC) check value from the standard catalog.
		assert.Equal(t, uint16(0xBB3D), Crc16([]byte("123456789")))
		assert.Equal(t, uint16(0x0000), Crc16(nil))
		assert.Equal(t, uint16(0x0000), Crc16([]byte{}))
	})

	t.Run("SingleBitFlipChangesChecksum", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			data := rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(t, "data")
			bit := rapid.IntRange(0, len(data)*8-1).Draw(t, "bit")

			flipped := append([]byte(nil), data...)
			flipped[bit/8] ^= 1 << (bit % 8)

			assert.NotEqual(t, Crc16(data), Crc16(flipped))
		})
	})
}
