package container

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const opWrite = "container.Writer"

// SizeWidth selects the chunk size-field width: 4 bytes for the
// "RIFF" family, 8 bytes for "RF64".
type SizeWidth uint8

const (
	Width32 SizeWidth = iota
	Width64
)

func (w SizeWidth) bytes() int {
	if w == Width64 {
		return 8
	}
	return 4
}

func (w SizeWidth) rootID() ID {
	if w == Width64 {
		return RootRF64
	}
	return RootRIFF
}

type openChunk struct {
	sizePos int64
}

// Writer assembles one RIFF/RF64 chunk tree, patching each chunk's
// size field on close the way the reference implementation's
// destructor-based chunk guard does - here as an explicit CloseChunk
// call instead of a destructor.
type Writer struct {
	w     io.WriteSeeker
	width SizeWidth
	pos   int64
	stack []openChunk
}

// NewWriter wraps w for writing one chunk tree with the given size
// width. The caller must call OpenRoot before any other method.
func NewWriter(w io.WriteSeeker, width SizeWidth) *Writer {
	return &Writer{w: w, width: width}
}

func (w *Writer) writeRaw(p []byte) error {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	if err != nil {
		return ctkerr.Dataf(opWrite, err)
	}
	return nil
}

func (w *Writer) writeSizePlaceholder() (sizePos int64, err error) {
	sizePos = w.pos
	if err := w.writeRaw(make([]byte, w.width.bytes())); err != nil {
		return 0, err
	}
	return sizePos, nil
}

// OpenRoot writes the root chunk header (RIFF or RF64, per the
// writer's width) and its list label, e.g. LabelCNT.
func (w *Writer) OpenRoot(label ID) error {
	if len(w.stack) != 0 {
		return ctkerr.Bugf(opWrite, errRootNotFirst)
	}
	return w.openWithLabel(w.width.rootID(), label)
}

// OpenList opens a "LIST"-identified container chunk carrying label,
// e.g. LabelRaw3.
func (w *Writer) OpenList(label ID) error {
	return w.openWithLabel(ListID, label)
}

func (w *Writer) openWithLabel(id, label ID) error {
	if err := w.writeRaw(id[:]); err != nil {
		return err
	}
	sizePos, err := w.writeSizePlaceholder()
	if err != nil {
		return err
	}
	if err := w.writeRaw(label[:]); err != nil {
		return err
	}
	w.stack = append(w.stack, openChunk{sizePos: sizePos})
	return nil
}

// OpenChunk opens a plain (unlabeled) chunk, e.g. "eeph" or "data".
func (w *Writer) OpenChunk(id ID) error {
	if err := w.writeRaw(id[:]); err != nil {
		return err
	}
	sizePos, err := w.writeSizePlaceholder()
	if err != nil {
		return err
	}
	w.stack = append(w.stack, openChunk{sizePos: sizePos})
	return nil
}

// Write appends payload bytes to the currently open chunk.
func (w *Writer) Write(p []byte) (int, error) {
	if len(w.stack) == 0 {
		return 0, ctkerr.Bugf(opWrite, errNoOpenChunk)
	}
	before := w.pos
	if err := w.writeRaw(p); err != nil {
		return int(w.pos - before), err
	}
	return len(p), nil
}

// CloseChunk patches the size field of the innermost open chunk,
// pads to even length if necessary, and pops it.
func (w *Writer) CloseChunk() error {
	n := len(w.stack)
	if n == 0 {
		return ctkerr.Bugf(opWrite, errNoOpenChunk)
	}
	cur := w.stack[n-1]
	w.stack = w.stack[:n-1]

	size := uint64(w.pos - cur.sizePos - int64(w.width.bytes()))
	if w.width == Width32 && size > math.MaxUint32 {
		return ctkerr.Dataf(opWrite, errTooLargeFor32)
	}
	if err := w.patchSize(cur.sizePos, size); err != nil {
		return err
	}

	if size%2 == 1 {
		if err := w.writeRaw([]byte{0}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) patchSize(at int64, size uint64) error {
	if _, err := w.w.Seek(at, io.SeekStart); err != nil {
		return ctkerr.Dataf(opWrite, err)
	}

	buf := make([]byte, w.width.bytes())
	if w.width == Width64 {
		binary.LittleEndian.PutUint64(buf, size)
	} else {
		binary.LittleEndian.PutUint32(buf, uint32(size))
	}
	if _, err := w.w.Write(buf); err != nil {
		return ctkerr.Dataf(opWrite, err)
	}

	if _, err := w.w.Seek(w.pos, io.SeekStart); err != nil {
		return ctkerr.Dataf(opWrite, err)
	}
	return nil
}

// Close closes every still-open chunk bottom-up, per spec.md §4.6.
func (w *Writer) Close() error {
	for len(w.stack) > 0 {
		if err := w.CloseChunk(); err != nil {
			return err
		}
	}
	return nil
}

type writeErr string

func (e writeErr) Error() string { return string(e) }

var (
	errRootNotFirst  = writeErr("OpenRoot must be the first call")
	errNoOpenChunk   = writeErr("no open chunk to write into or close")
	errTooLargeFor32 = writeErr("chunk exceeds 4 GiB - 1, container size field is 32-bit")
)
