package bitio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundtrip(t *testing.T) {
	for n := uint8(1); n <= 64; n++ {
		var max uint64
		if n == 64 {
			max = ^uint64(0)
		} else {
			max = (uint64(1) << n) - 1
		}

		values := []uint64{0, max}
		if max > 2 {
			values = append(values, max/2)
		}

		for _, v := range values {
			w := NewWriter()
			w.Write(n, v)
			r := NewReader(w.Bytes())
			got, ok := r.Read(n)
			require.True(t, ok, "n=%d v=%d", n, v)
			assert.Equal(t, v, got, "n=%d v=%d", n, v)
		}
	}
}

func TestMultipleFieldsPacked(t *testing.T) {
	w := NewWriter()
	w.Write(2, 0b10)
	w.Write(6, 0b101010)
	w.Write(4, 0b1111)
	w.Write(1, 1)

	r := NewReader(w.Bytes())
	v1, ok := r.Read(2)
	require.True(t, ok)
	v2, ok := r.Read(6)
	require.True(t, ok)
	v3, ok := r.Read(4)
	require.True(t, ok)
	v4, ok := r.Read(1)
	require.True(t, ok)

	assert.Equal(t, uint64(0b10), v1)
	assert.Equal(t, uint64(0b101010), v2)
	assert.Equal(t, uint64(0b1111), v3)
	assert.Equal(t, uint64(1), v4)
}

func TestReadPastEndFails(t *testing.T) {
	w := NewWriter()
	w.Write(4, 0b1010)
	// the 4 bits occupy one whole (zero-padded) byte, so 9 bits is the
	// first read that runs past the end of the buffer.
	r := NewReader(w.Bytes())
	_, ok := r.Read(9)
	assert.False(t, ok)
}

func TestRestoreSign(t *testing.T) {
	assert.Equal(t, int64(-1), RestoreSign(0b111, 3))
	assert.Equal(t, int64(3), RestoreSign(0b011, 3))
	assert.Equal(t, int64(-4), RestoreSign(0b100, 3))
	assert.Equal(t, int64(5), RestoreSign(5, 64))
}

func TestAlign(t *testing.T) {
	w := NewWriter()
	w.Write(3, 0b101)
	w.Align()
	w.Write(8, 0xAB)

	r := NewReader(w.Bytes())
	_, ok := r.Read(3)
	require.True(t, ok)
	r.Align()
	v, ok := r.Read(8)
	require.True(t, ok)
	assert.Equal(t, uint64(0xAB), v)
}
