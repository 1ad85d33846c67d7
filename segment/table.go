// Package segment implements the epoch offset table, per-epoch decode
// cache, and range-read/append machinery of the segmented
// random-access layer (C5): it turns a flat run of compressed epochs
// into `[i, i+n)` sample-range reads and buffered appends.
package segment

import (
	"encoding/binary"

	"github.com/slatinski/ctk-sub001/container"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const opTable = "segment.Table"

// Table is the parsed "ep" chunk: the common epoch length and the
// byte offset of each epoch, relative to the start of the "data"
// chunk's payload.
type Table struct {
	EpochLength int64
	Offsets     []int64
}

// EpochCount reports how many epochs the table describes.
func (t Table) EpochCount() int64 { return int64(len(t.Offsets)) }

// Length returns the byte length of epoch i, given the total size of
// the data payload (needed to infer the final epoch's length).
func (t Table) Length(i int64, dataSize int64) int64 {
	if i+1 < int64(len(t.Offsets)) {
		return t.Offsets[i+1] - t.Offsets[i]
	}
	return dataSize - t.Offsets[i]
}

// Encode serializes the table as the "ep" chunk payload: one
// word for EpochLength followed by one word per epoch offset. The
// word width is 4 bytes for a 32-bit container, 8 for a 64-bit one.
func Encode(t Table, width container.SizeWidth) []byte {
	wsz := wordSize(width)
	buf := make([]byte, wsz*(1+len(t.Offsets)))
	putWord(buf[0:wsz], uint64(t.EpochLength), width)
	for i, off := range t.Offsets {
		putWord(buf[(i+1)*wsz:(i+2)*wsz], uint64(off), width)
	}
	return buf
}

// Decode parses an "ep" chunk payload.
func Decode(data []byte, width container.SizeWidth) (Table, error) {
	wsz := wordSize(width)
	if len(data) < wsz || len(data)%wsz != 0 {
		return Table{}, ctkerr.Dataf(opTable, errBadTableLength)
	}
	n := len(data)/wsz - 1
	t := Table{
		EpochLength: int64(getWord(data[0:wsz], width)),
		Offsets:     make([]int64, n),
	}
	for i := 0; i < n; i++ {
		t.Offsets[i] = int64(getWord(data[(i+1)*wsz:(i+2)*wsz], width))
	}
	return t, nil
}

func wordSize(width container.SizeWidth) int {
	if width == container.Width64 {
		return 8
	}
	return 4
}

func putWord(dst []byte, v uint64, width container.SizeWidth) {
	if width == container.Width64 {
		binary.LittleEndian.PutUint64(dst, v)
	} else {
		binary.LittleEndian.PutUint32(dst, uint32(v))
	}
}

func getWord(src []byte, width container.SizeWidth) uint64 {
	if width == container.Width64 {
		return binary.LittleEndian.Uint64(src)
	}
	return uint64(binary.LittleEndian.Uint32(src))
}

type tableErr string

func (e tableErr) Error() string { return string(e) }

var errBadTableLength = tableErr("ep chunk length is not a whole number of words")
