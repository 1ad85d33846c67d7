package container

import (
	"encoding/binary"
	"io"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const opRead = "container.Reader"

// Header describes one chunk as parsed off the wire.
type Header struct {
	ID       ID
	Size     uint64
	Label    ID
	HasLabel bool
	// PayloadOffset is the absolute file offset of the first payload
	// byte (after the label, if any).
	PayloadOffset int64
}

// Reader parses a sequential stream of sibling chunks at one nesting
// level. The caller descends into a list chunk by constructing a new
// Reader bounded to that chunk's payload (see Sub).
type Reader struct {
	r     io.ReadSeeker
	width SizeWidth
	pos   int64
	end   int64 // exclusive upper bound, io.SeekEnd sentinel if < 0
}

// NewReader wraps r for reading sibling chunks starting at the
// reader's current position, until end (exclusive), or to EOF if end
// is negative.
func NewReader(r io.ReadSeeker, width SizeWidth, end int64) *Reader {
	return &Reader{r: r, width: width, end: end}
}

// OpenRoot reads the root header (auto-detecting RIFF vs RF64 from
// the 4-byte identifier) and returns a Reader bounded to the root
// payload, plus the root's list label.
func OpenRoot(r io.ReadSeeker) (*Reader, ID, error) {
	var idBuf [4]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return nil, ID{}, ctkerr.Dataf(opRead, err)
	}

	var width SizeWidth
	switch ID(idBuf) {
	case RootRIFF:
		width = Width32
	case RootRF64:
		width = Width64
	default:
		return nil, ID{}, ctkerr.Dataf(opRead, errNotARootChunk)
	}

	size, err := readSize(r, width)
	if err != nil {
		return nil, ID{}, err
	}

	var label ID
	if _, err := io.ReadFull(r, label[:]); err != nil {
		return nil, ID{}, ctkerr.Dataf(opRead, err)
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, ID{}, ctkerr.Dataf(opRead, err)
	}

	payloadLen := int64(size) - 4 // size counts the label
	rd := &Reader{r: r, width: width, pos: pos, end: pos + payloadLen}
	return rd, label, nil
}

func readSize(r io.Reader, width SizeWidth) (uint64, error) {
	buf := make([]byte, width.bytes())
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, ctkerr.Dataf(opRead, err)
	}
	if width == Width64 {
		return binary.LittleEndian.Uint64(buf), nil
	}
	return uint64(binary.LittleEndian.Uint32(buf)), nil
}

// Width reports the reader's chunk-size field width.
func (r *Reader) Width() SizeWidth { return r.width }

// More reports whether the reader's position is still before its end
// bound (always true for an unbounded reader). It does not check that
// a whole chunk header fits in the remaining bytes.
func (r *Reader) More() bool {
	if r.end >= 0 && r.pos >= r.end {
		return false
	}
	return true
}

// Next reads the next sibling chunk's header. If id == ListID, Label
// and HasLabel are populated and the label's 4 bytes are already
// consumed; callers that want to descend should construct a child
// Reader with Sub.
func (r *Reader) Next() (Header, error) {
	if _, err := r.r.Seek(r.pos, io.SeekStart); err != nil {
		return Header{}, ctkerr.Dataf(opRead, err)
	}

	var idBuf [4]byte
	if _, err := io.ReadFull(r.r, idBuf[:]); err != nil {
		return Header{}, ctkerr.Dataf(opRead, err)
	}
	id := ID(idBuf)

	size, err := readSize(r.r, r.width)
	if err != nil {
		return Header{}, err
	}

	h := Header{ID: id, Size: size}
	if id == ListID {
		var label ID
		if _, err := io.ReadFull(r.r, label[:]); err != nil {
			return Header{}, ctkerr.Dataf(opRead, err)
		}
		h.Label = label
		h.HasLabel = true
	}

	pos, err := r.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Header{}, ctkerr.Dataf(opRead, err)
	}
	h.PayloadOffset = pos

	contentLen := int64(size)
	if h.HasLabel {
		contentLen -= 4
	}

	advance := contentLen
	if advance%2 == 1 {
		advance++
	}
	r.pos = pos + advance

	return h, nil
}

// Sub returns a Reader bounded to h's payload, for descending into a
// list chunk (h.HasLabel) such as the raw3 LIST.
func (r *Reader) Sub(h Header) *Reader {
	contentLen := int64(h.Size)
	if h.HasLabel {
		contentLen -= 4
	}
	return &Reader{r: r.r, width: r.width, pos: h.PayloadOffset, end: h.PayloadOffset + contentLen}
}

// ReadPayload reads h's full payload into memory. The underlying
// reader's position afterwards is unspecified; callers that continue
// iterating should rely on Next's own seeking, not on the stream
// position.
func (r *Reader) ReadPayload(h Header) ([]byte, error) {
	contentLen := int64(h.Size)
	if h.HasLabel {
		contentLen -= 4
	}
	if contentLen < 0 {
		return nil, ctkerr.Dataf(opRead, errBadSize)
	}
	if _, err := r.r.Seek(h.PayloadOffset, io.SeekStart); err != nil {
		return nil, ctkerr.Dataf(opRead, err)
	}
	buf := make([]byte, contentLen)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, ctkerr.Dataf(opRead, err)
	}
	return buf, nil
}

type readErr string

func (e readErr) Error() string { return string(e) }

var (
	errNotARootChunk = readErr("not a RIFF or RF64 root chunk")
	errBadSize       = readErr("chunk size smaller than its own label")
)
