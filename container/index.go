package container

import (
	"io"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const opIndex = "container.BuildIndex"

// Range locates one chunk's payload within the file.
type Range struct {
	Offset int64
	Size   int64
}

// Index is the result of walking a well-formed chunk tree once,
// locating every mandatory sub-chunk plus any user-embedded ones.
type Index struct {
	Width SizeWidth
	Eeph  Range
	Info  Range
	Ep    Range
	Chan  Range
	Data  Range
	Evt   *Range
	// Embedded holds user files attached via Writer.Embed, keyed by
	// their top-level chunk identifier.
	Embedded map[ID]Range
}

func headerRange(h Header) Range {
	contentLen := int64(h.Size)
	if h.HasLabel {
		contentLen -= 4
	}
	return Range{Offset: h.PayloadOffset, Size: contentLen}
}

// BuildIndex parses the chunk tree rooted at r's current position
// (use OpenRoot first) and locates every mandatory sub-chunk.
func BuildIndex(root *Reader) (*Index, error) {
	idx := &Index{Width: root.Width(), Embedded: map[ID]Range{}}

	var sawEeph, sawInfo, sawRaw3 bool
	for root.More() {
		h, err := root.Next()
		if err != nil {
			return nil, err
		}

		switch {
		case h.ID == IDEeph:
			idx.Eeph = headerRange(h)
			sawEeph = true
		case h.ID == IDInfo:
			idx.Info = headerRange(h)
			sawInfo = true
		case h.ID == IDEvt:
			rg := headerRange(h)
			idx.Evt = &rg
		case h.ID == ListID && h.Label == LabelRaw3:
			if err := indexRaw3(root.Sub(h), idx); err != nil {
				return nil, err
			}
			sawRaw3 = true
		default:
			if Reserved[h.ID] {
				continue // unknown reserved chunk, ignore rather than fail
			}
			idx.Embedded[h.ID] = headerRange(h)
		}
	}

	if !sawEeph || !sawInfo || !sawRaw3 {
		return nil, ctkerr.Dataf(opIndex, errMissingMandatory)
	}
	return idx, nil
}

func indexRaw3(r *Reader, idx *Index) error {
	var sawEp, sawChan, sawData bool
	for r.More() {
		h, err := r.Next()
		if err != nil {
			return err
		}
		switch h.ID {
		case IDEp:
			idx.Ep = headerRange(h)
			sawEp = true
		case IDChan:
			idx.Chan = headerRange(h)
			sawChan = true
		case IDData:
			idx.Data = headerRange(h)
			sawData = true
		}
	}
	if !sawEp || !sawChan || !sawData {
		return ctkerr.Dataf(opIndex, errMissingMandatory)
	}
	return nil
}

var errMissingMandatory = readErr("container missing a mandatory chunk")

// ReadRange reads a Range's bytes from r.
func ReadRange(r io.ReaderAt, rg Range) ([]byte, error) {
	if rg.Size < 0 {
		return nil, ctkerr.Dataf(opIndex, errBadSize)
	}
	buf := make([]byte, rg.Size)
	if _, err := r.ReadAt(buf, rg.Offset); err != nil {
		return nil, ctkerr.Dataf(opIndex, err)
	}
	return buf, nil
}
