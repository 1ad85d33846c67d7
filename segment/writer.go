package segment

import (
	"io"
	"math"

	"github.com/slatinski/ctk-sub001/block"
	"github.com/slatinski/ctk-sub001/container"
	"github.com/slatinski/ctk-sub001/guard"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
	"github.com/slatinski/ctk-sub001/matrix"
)

const opWriter = "segment.Writer"

// Writer buffers incoming column-major samples, encoding and
// committing one epoch at a time via the matrix codec (C4) the moment
// epochLength is reached - the writer never holds more than one
// epoch's worth of unflushed samples, per spec.md §5's back-pressure
// model.
type Writer struct {
	h           int
	epochLength int64
	order       matrix.RowOrder
	wordBits    uint8
	format      block.Format
	width       container.SizeWidth
	out         io.Writer

	pending      []int64 // column-major, < epochLength*h samples
	table        Table
	dataLen      int64
	totalSamples int64
}

// NewWriter returns a writer appending encoded epochs to out (a
// container chunk or a flat side-car file, both plain io.Writer
// sinks appended to sequentially).
func NewWriter(h int, epochLength int64, order matrix.RowOrder, wordBits uint8, format block.Format, width container.SizeWidth, out io.Writer) *Writer {
	return &Writer{
		h: h, epochLength: epochLength, order: order,
		wordBits: wordBits, format: format, width: width, out: out,
		table: Table{EpochLength: epochLength},
	}
}

// AppendColumnMajor appends client samples laid out sample-major,
// channel-minor (h values per sample), flushing every full epoch as
// soon as it is complete.
func (w *Writer) AppendColumnMajor(samples []int64) error {
	if len(samples)%w.h != 0 {
		return ctkerr.Bugf(opWriter, errNotWholeSamples)
	}
	w.pending = append(w.pending, samples...)

	step := w.epochLength * int64(w.h)
	for int64(len(w.pending)) >= step {
		if err := w.flush(w.pending[:step], w.epochLength); err != nil {
			return err
		}
		rest := w.pending[step:]
		w.pending = append([]int64(nil), rest...)
	}
	return nil
}

func (w *Writer) flush(client []int64, length int64) error {
	encoded, err := matrix.EncodeColumnMajor(client, w.order, int(length), w.wordBits, w.format)
	if err != nil {
		return ctkerr.Dataf(opWriter, err)
	}

	if w.width == container.Width32 {
		end, err := guard.Add(w.dataLen, int64(len(encoded)), guard.Ok)
		if err != nil {
			return ctkerr.Dataf(opWriter, err)
		}
		if end > math.MaxUint32 {
			return ctkerr.Dataf(opWriter, errTooLargeFor32)
		}
	}

	w.table.Offsets = append(w.table.Offsets, w.dataLen)
	n, err := w.out.Write(encoded)
	w.dataLen += int64(n)
	if err != nil {
		return ctkerr.Dataf(opWriter, err)
	}
	w.totalSamples += length
	return nil
}

// Close commits the partial final epoch, if any samples remain
// buffered, setting the "last epoch is shorter" condition spec.md
// §4.5 describes.
func (w *Writer) Close() error {
	if len(w.pending) == 0 {
		return nil
	}
	length := int64(len(w.pending)) / int64(w.h)
	pending := w.pending
	w.pending = nil
	return w.flush(pending, length)
}

// Table returns the offset table built so far.
func (w *Writer) Table() Table { return w.table }

// TotalSamples reports the running sample count.
func (w *Writer) TotalSamples() int64 { return w.totalSamples }

// DataSize reports the running byte size of the data payload.
func (w *Writer) DataSize() int64 { return w.dataLen }

type writerErr string

func (e writerErr) Error() string { return string(e) }

var (
	errNotWholeSamples = writerErr("sample buffer length is not a multiple of the sensor count")
	errTooLargeFor32   = writerErr("data payload exceeds 4 GiB - 1 in a 32-bit container")
)
