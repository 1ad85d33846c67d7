package flat

import (
	"io"
	"os"

	"github.com/slatinski/ctk-sub001/container"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const opAssemble = "flat.Assembler"

// PartSpec names one side-car to pull into the assembled container.
type PartSpec struct {
	Tag   Tag
	Label container.ID // expected part-header label, for validation
}

// EmbeddedFile is a user file attached verbatim as a named top-level
// chunk (spec.md's embed operation), carried through assembly
// unmodified.
type EmbeddedFile struct {
	ID   container.ID
	Path string
}

// EephComposer folds the legacy granular header fields (sample_count,
// sampling_frequency, electrodes, type, history, time_series_header)
// into the single ASCII "eeph" chunk body. It is only consulted when
// no TagEeph side-car is present; ordinary writes always produce a
// TagEeph side-car directly and never touch this path.
type EephComposer func(fields map[Tag][]byte) ([]byte, error)

// Assembler composes the side-cars written for one segment into a
// single RIFF/RF64 container, in the manner of the reference
// library's riff assembler: stream each part into its target chunk,
// append embedded files verbatim, then delete the side-cars.
type Assembler struct {
	Base    string
	Width   container.SizeWidth
	Compose EephComposer
}

// Assemble writes the root "CNT " list to dest, composed from parts
// (each resolved to <Base>_<suffix>.bin) and embeds, then removes the
// side-car files that were consumed.
func (a *Assembler) Assemble(dest io.WriteSeeker, parts []PartSpec, embeds []EmbeddedFile) error {
	w := container.NewWriter(dest, a.Width)
	if err := w.OpenRoot(container.LabelCNT); err != nil {
		return err
	}

	direct := make([]PartSpec, 0, len(parts))
	fields := map[Tag][]byte{}
	haveEeph := false
	var consumed []string

	for _, p := range parts {
		if isFieldTag(p.Tag) {
			buf, path, err := readSideCar(a.Base, p.Tag, p.Label)
			if err != nil {
				return err
			}
			fields[p.Tag] = buf
			consumed = append(consumed, path)
			continue
		}
		if p.Tag == TagEeph {
			haveEeph = true
		}
		direct = append(direct, p)
	}

	for _, tag := range direct {
		if tag.Tag == TagEp {
			if err := a.writeRaw3(w, parts, &consumed); err != nil {
				return err
			}
			continue
		}
		if tag.Tag == TagChan || tag.Tag == TagData {
			continue // folded into the raw3 LIST written above
		}
		if err := a.streamPart(w, tag, &consumed); err != nil {
			return err
		}
	}

	if !haveEeph && len(fields) > 0 {
		if a.Compose == nil {
			return ctkerr.Bugf(opAssemble, errNoComposer)
		}
		body, err := a.Compose(fields)
		if err != nil {
			return err
		}
		if err := w.OpenChunk(container.IDEeph); err != nil {
			return err
		}
		if _, err := w.Write(body); err != nil {
			return err
		}
		if err := w.CloseChunk(); err != nil {
			return err
		}
	}

	for _, e := range embeds {
		if err := a.streamEmbed(w, e); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	for _, path := range consumed {
		os.Remove(path)
	}
	return nil
}

func isFieldTag(t Tag) bool {
	switch t {
	case TagSampleCount, TagSamplingFrequency, TagElectrodes, TagCntType, TagHistory, TagTimeSeriesHeader:
		return true
	default:
		return false
	}
}

// openSideCar opens and header-validates one side-car file, leaving
// the file positioned at the start of its payload.
func openSideCar(base string, tag Tag, label container.ID) (*os.File, string, error) {
	name := SideCarName(base, tag)
	f, err := os.Open(name)
	if err != nil {
		return nil, "", ctkerr.Dataf(opAssemble, err)
	}
	hdr, err := ReadPartHeader(f, tag)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	if hdr.Label != label {
		f.Close()
		return nil, "", ctkerr.Dataf(opAssemble, errBadLabel)
	}
	return f, name, nil
}

func readSideCar(base string, tag Tag, label container.ID) ([]byte, string, error) {
	f, name, err := openSideCar(base, tag, label)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, "", ctkerr.Dataf(opAssemble, err)
	}
	return body, name, nil
}

// streamPart copies one side-car's payload (after its part header)
// directly into its own top-level chunk, the same io.Copy streaming
// streamEmbed uses, so a multi-gigabyte "data" side-car never has to
// be held in memory as a single []byte.
func (a *Assembler) streamPart(w *container.Writer, p PartSpec, consumed *[]string) error {
	f, path, err := openSideCar(a.Base, p.Tag, p.Label)
	if err != nil {
		return err
	}
	defer f.Close()
	*consumed = append(*consumed, path)

	if err := w.OpenChunk(p.Tag.chunkID()); err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return ctkerr.Dataf(opAssemble, err)
	}
	return w.CloseChunk()
}

// writeRaw3 opens the "LIST"/"raw3" chunk and streams the ep, chan and
// data side-cars into it in that fixed order.
func (a *Assembler) writeRaw3(w *container.Writer, parts []PartSpec, consumed *[]string) error {
	byTag := map[Tag]PartSpec{}
	for _, p := range parts {
		byTag[p.Tag] = p
	}

	if err := w.OpenList(container.LabelRaw3); err != nil {
		return err
	}
	for _, tag := range []Tag{TagEp, TagChan, TagData} {
		p, ok := byTag[tag]
		if !ok {
			continue
		}
		if err := a.streamPart(w, p, consumed); err != nil {
			return err
		}
	}
	return w.CloseChunk()
}

func (a *Assembler) streamEmbed(w *container.Writer, e EmbeddedFile) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return ctkerr.Dataf(opAssemble, err)
	}
	defer f.Close()

	if err := w.OpenChunk(e.ID); err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return ctkerr.Dataf(opAssemble, err)
	}
	return w.CloseChunk()
}

type assemblerErr string

func (e assemblerErr) Error() string { return string(e) }

var (
	errNoComposer = assemblerErr("granular header fields present but no eeph composer was configured")
	errBadLabel   = assemblerErr("side-car label does not match the expected chunk")
)
