// Package matrix implements the per-epoch matrix codec (C4): electrode
// permutation, column-major/row-major demultiplexing, per-row method
// selection via the block codec, and assembly/disassembly of one
// compressed epoch.
package matrix

import (
	"github.com/slatinski/ctk-sub001/bitio"
	"github.com/slatinski/ctk-sub001/block"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const (
	opEncode = "matrix.Encode"
	opDecode = "matrix.Decode"
)

// RowOrder is a permutation of [0,H): storage row i holds client
// (electrode) row RowOrder[i].
type RowOrder []int16

// Natural returns the identity permutation of size h, the default row
// order for a newly created segment.
func Natural(h int) RowOrder {
	order := make(RowOrder, h)
	for i := range order {
		order[i] = int16(i)
	}
	return order
}

// Validate reports whether order is a permutation of [0, h).
func (order RowOrder) Validate(h int) error {
	if len(order) != h {
		return ctkerr.Dataf("matrix.RowOrder.Validate", errBadPermutation)
	}
	seen := make([]bool, h)
	for _, v := range order {
		if int(v) < 0 || int(v) >= h || seen[v] {
			return ctkerr.Dataf("matrix.RowOrder.Validate", errBadPermutation)
		}
		seen[v] = true
	}
	return nil
}

var errBadPermutation = dataErr("row order is not a permutation of [0,H)")

type dataErr string

func (e dataErr) Error() string { return string(e) }

// Transpose converts a column-major client buffer (sample-major,
// channel-minor: s0c0,s0c1,...,s0cH-1,s1c0,...) into a row-major
// storage buffer ordered by order, or back (toClient=true).
func Transpose(client, storage []int64, order RowOrder, length int, toClient bool) {
	h := len(order)
	for column, row := range order {
		x, y := 0, 0
		for ; x < length; x, y = x+1, y+h {
			if toClient {
				client[int(row)+y] = storage[column*length+x]
			} else {
				storage[column*length+x] = client[int(row)+y]
			}
		}
	}
}

// RowMajorCopy copies a row-major client buffer into row-major storage
// order (or back), permuting whole contiguous rows rather than
// transposing individual samples.
func RowMajorCopy(client, storage []int64, order RowOrder, length int, toClient bool) {
	rowBegin := 0
	for _, row := range order {
		dest := int(row) * length
		if toClient {
			copy(client[dest:dest+length], storage[rowBegin:rowBegin+length])
		} else {
			copy(storage[rowBegin:rowBegin+length], client[dest:dest+length])
		}
		rowBegin += length
	}
}

// Encode packs one epoch: h rows of length l each (storage, i.e.
// already in row_order, channel-major order), selecting the best
// per-row method, into one compressed byte buffer.
func Encode(storageRows [][]int64, wordBits uint8, format block.Format) ([]byte, error) {
	w := bitio.NewWriter()
	var prev []int64
	for _, row := range storageRows {
		p := block.Select(row, prev, wordBits, format)
		if err := block.EncodeInto(w, p); err != nil {
			return nil, ctkerr.Dataf(opEncode, err)
		}
		prev = row
	}
	w.Align()
	return w.Bytes(), nil
}

// Decode unpacks h rows of length l each (storage order) from a
// compressed epoch buffer.
func Decode(data []byte, h, l int, wordBits uint8, format block.Format) ([][]int64, error) {
	r := bitio.NewReader(data)
	rows := make([][]int64, h)
	var prev []int64
	for i := 0; i < h; i++ {
		row, err := block.DecodeFrom(r, l, format, prev)
		if err != nil {
			return nil, ctkerr.Dataf(opDecode, err)
		}
		rows[i] = row
		prev = row
	}
	return rows, nil
}

// MaxEncodedSize is the worst-case byte size of one compressed epoch.
func MaxEncodedSize(h, l int, wordBits uint8, format block.Format) int {
	return h * block.MaxEncodedSize(l, wordBits, format)
}

// EncodeColumnMajor demultiplexes a column-major client buffer per
// order, then encodes it as one compressed epoch.
func EncodeColumnMajor(client []int64, order RowOrder, length int, wordBits uint8, format block.Format) ([]byte, error) {
	h := len(order)
	storage := make([]int64, h*length)
	Transpose(client, storage, order, length, false)
	return Encode(splitRows(storage, h, length), wordBits, format)
}

// DecodeColumnMajor decodes one compressed epoch and re-multiplexes it
// into a column-major client buffer per order.
func DecodeColumnMajor(data []byte, order RowOrder, length int, wordBits uint8, format block.Format) ([]int64, error) {
	h := len(order)
	rows, err := Decode(data, h, length, wordBits, format)
	if err != nil {
		return nil, err
	}
	storage := joinRows(rows)
	client := make([]int64, h*length)
	Transpose(client, storage, order, length, true)
	return client, nil
}

func splitRows(flat []int64, h, l int) [][]int64 {
	rows := make([][]int64, h)
	for i := 0; i < h; i++ {
		rows[i] = flat[i*l : (i+1)*l]
	}
	return rows
}

func joinRows(rows [][]int64) []int64 {
	if len(rows) == 0 {
		return nil
	}
	l := len(rows[0])
	flat := make([]int64, len(rows)*l)
	for i, row := range rows {
		copy(flat[i*l:(i+1)*l], row)
	}
	return flat
}
