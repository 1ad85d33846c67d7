package segment

import (
	"io"

	"github.com/slatinski/ctk-sub001/block"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
	"github.com/slatinski/ctk-sub001/matrix"
)

const opReader = "segment.Reader"

// Order selects the layout of a Range result.
type Order uint8

const (
	RowMajor Order = iota
	ColumnMajor
)

// Reader serves arbitrary [i, i+n) sample-range reads over a
// compressed epoch sequence, decoding each epoch a range spans in turn
// and keeping only the most recently decoded one in its cache.
type Reader struct {
	h            int
	order        matrix.RowOrder
	wordBits     uint8
	format       block.Format
	table        Table
	dataSize     int64
	totalSamples int64
	data         io.ReaderAt

	cache cache
}

// NewReader returns a reader over data (bound to the start of the
// data chunk's payload; Table offsets are relative to it).
func NewReader(h int, order matrix.RowOrder, wordBits uint8, format block.Format, table Table, dataSize, totalSamples int64, data io.ReaderAt) *Reader {
	return &Reader{
		h: h, order: order, wordBits: wordBits, format: format,
		table: table, dataSize: dataSize, totalSamples: totalSamples, data: data,
	}
}

// TotalSamples reports the running sample count.
func (r *Reader) TotalSamples() int64 { return r.totalSamples }

// EpochLength reports the common per-epoch sample count.
func (r *Reader) EpochLength() int64 { return r.table.EpochLength }

// tryLoadEpoch is the std::nothrow-style internal variant: ok=false,
// err=nil means "epoch index out of range" (absent); err != nil means
// the epoch's bytes failed to decode (corrupt).
func (r *Reader) tryLoadEpoch(epoch int64) (bool, error) {
	if r.cache.hit(epoch) {
		return true, nil
	}
	if epoch < 0 || epoch >= r.table.EpochCount() {
		return false, nil
	}

	length := r.table.EpochLength
	if epoch == r.table.EpochCount()-1 {
		length = r.totalSamples - epoch*r.table.EpochLength
	}
	if length <= 0 {
		return false, ctkerr.Dataf(opReader, errBadEpochLength)
	}

	byteLen := r.table.Length(epoch, r.dataSize)
	if byteLen < 0 {
		return false, ctkerr.Dataf(opReader, errBadEpochLength)
	}

	buf := make([]byte, byteLen)
	if _, err := r.data.ReadAt(buf, r.table.Offsets[epoch]); err != nil {
		return false, ctkerr.Dataf(opReader, err)
	}

	rows, err := matrix.Decode(buf, r.h, int(length), r.wordBits, r.format)
	if err != nil {
		return false, ctkerr.Dataf(opReader, err)
	}

	r.cache.store(epoch, int(length), rows)
	return true, nil
}

func (r *Reader) ensureEpoch(epoch int64) error {
	ok, err := r.tryLoadEpoch(epoch)
	if err != nil {
		return err
	}
	if !ok {
		return ctkerr.Dataf(opReader, errEpochAbsent)
	}
	return nil
}

// Range reads samples [i, i+n) across however many epochs that spans,
// in the requested layout. Reading [0,N) in one call is equivalent to
// concatenating any chunk partition of [0,N) (spec.md §8 property 7).
func (r *Reader) Range(i, n int64, order Order) ([]int64, error) {
	if i < 0 || n < 1 || i+n > r.totalSamples {
		return nil, ctkerr.Dataf(opReader, errRange)
	}

	clientRows := make([][]int64, r.h)
	for c := range clientRows {
		clientRows[c] = make([]int64, 0, n)
	}

	remaining := n
	cur := i
	for remaining > 0 {
		epoch := cur / r.table.EpochLength
		offset := cur % r.table.EpochLength
		if err := r.ensureEpoch(epoch); err != nil {
			return nil, err
		}

		avail := int64(r.cache.length) - offset
		if avail > remaining {
			avail = remaining
		}
		for storageRow := 0; storageRow < r.h; storageRow++ {
			client := int(r.order[storageRow])
			clientRows[client] = append(clientRows[client], r.cache.rows[storageRow][offset:offset+avail]...)
		}
		cur += avail
		remaining -= avail
	}

	out := make([]int64, n*int64(r.h))
	switch order {
	case RowMajor:
		for c := 0; c < r.h; c++ {
			copy(out[int64(c)*n:], clientRows[c])
		}
	case ColumnMajor:
		for s := int64(0); s < n; s++ {
			for c := 0; c < r.h; c++ {
				out[s*int64(r.h)+int64(c)] = clientRows[c][s]
			}
		}
	}
	return out, nil
}

type readerErr string

func (e readerErr) Error() string { return string(e) }

var (
	errRange          = readerErr("range out of bounds, or length below 1")
	errEpochAbsent    = readerErr("epoch index out of range")
	errBadEpochLength = readerErr("epoch length or byte range is not positive")
)
