// Package flat implements the "flat" writer/reader (C7): every
// logical chunk of a segment is written to its own side-car file
// carrying a small 10-byte part header, and on Close a riff assembler
// stitches the side-cars into one container.Writer-built file and
// deletes them.
package flat

import (
	"fmt"
	"io"
	"os"

	"github.com/slatinski/ctk-sub001/container"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const opSideCar = "flat.SideCar"

// Tag enumerates the logical content of a side-car file, the target
// for the "fourcc + version + tag + label" part header.
type Tag uint8

const (
	TagEp Tag = iota
	TagData
	TagChan
	TagEeph
	TagInfo
	TagTriggers
	TagSampleCount
	TagSamplingFrequency
	TagElectrodes
	TagHistory
	TagTimeSeriesHeader
	TagCntType
)

const (
	partMagic   = "ctkp"
	partVersion = byte(1)
	partHeaderSize = 4 + 1 + 1 + 4
)

// Suffix returns this side-car's file name suffix, e.g.
// "<base>_raw3_data.bin".
func (t Tag) Suffix() string {
	switch t {
	case TagEp:
		return "raw3_ep"
	case TagData:
		return "raw3_data"
	case TagChan:
		return "raw3_chan"
	case TagEeph:
		return "eeph"
	case TagInfo:
		return "info"
	case TagTriggers:
		return "triggers"
	case TagSampleCount:
		return "sample_count"
	case TagSamplingFrequency:
		return "sampling_frequency"
	case TagElectrodes:
		return "electrodes"
	case TagHistory:
		return "history"
	case TagTimeSeriesHeader:
		return "time_series_header"
	case TagCntType:
		return "type"
	default:
		return "unknown"
	}
}

// chunkID is the container identifier the side-car ultimately targets
// when assembled: eeph/info/raw3-family side-cars target a 4-byte
// chunk id; others (sample_count, electrodes, ...) are logical
// sub-fields folded into "eeph" on assembly rather than distinct
// top-level chunks, matching the reference library's own layering of
// many small part files under one "eeph" chunk family.
func (t Tag) chunkID() container.ID {
	switch t {
	case TagEp:
		return container.IDEp
	case TagData:
		return container.IDData
	case TagChan:
		return container.IDChan
	case TagInfo:
		return container.IDInfo
	case TagTriggers:
		return container.IDEvt
	default:
		return container.IDEeph
	}
}

// SideCarName builds the file name for tag under base.
func SideCarName(base string, tag Tag) string {
	return fmt.Sprintf("%s_%s.bin", base, tag.Suffix())
}

// PartHeader is the 10-byte header every side-car begins with.
type PartHeader struct {
	Version byte
	Tag     Tag
	Label   container.ID
}

// WritePartHeader writes the 10-byte part header to w.
func WritePartHeader(w io.Writer, tag Tag, label container.ID) error {
	buf := make([]byte, 0, partHeaderSize)
	buf = append(buf, partMagic...)
	buf = append(buf, partVersion)
	buf = append(buf, byte(tag))
	buf = append(buf, label[:]...)
	_, err := w.Write(buf)
	if err != nil {
		return ctkerr.Dataf(opSideCar, err)
	}
	return nil
}

// ReadPartHeader reads and validates the 10-byte part header,
// returning a data error on any mismatch (spec.md §4.7).
func ReadPartHeader(r io.Reader, expectedTag Tag) (PartHeader, error) {
	buf := make([]byte, partHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return PartHeader{}, ctkerr.Dataf(opSideCar, err)
	}
	if string(buf[0:4]) != partMagic {
		return PartHeader{}, ctkerr.Dataf(opSideCar, errBadMagic)
	}
	if buf[4] != partVersion {
		return PartHeader{}, ctkerr.Dataf(opSideCar, errBadVersion)
	}
	tag := Tag(buf[5])
	if tag != expectedTag {
		return PartHeader{}, ctkerr.Dataf(opSideCar, errBadTag)
	}
	var label container.ID
	copy(label[:], buf[6:10])
	return PartHeader{Version: buf[4], Tag: tag, Label: label}, nil
}

// SideCarWriter is one open side-car file.
type SideCarWriter struct {
	Tag  Tag
	Name string
	f    *os.File
}

// CreateSideCar creates and opens base_<suffix>.bin, writing its part
// header immediately.
func CreateSideCar(base string, tag Tag, label container.ID) (*SideCarWriter, error) {
	name := SideCarName(base, tag)
	f, err := os.Create(name)
	if err != nil {
		return nil, ctkerr.Dataf(opSideCar, err)
	}
	if err := WritePartHeader(f, tag, label); err != nil {
		f.Close()
		os.Remove(name)
		return nil, err
	}
	return &SideCarWriter{Tag: tag, Name: name, f: f}, nil
}

// Write appends to the side-car's payload, after its part header.
func (s *SideCarWriter) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if err != nil {
		return n, ctkerr.Dataf(opSideCar, err)
	}
	return n, nil
}

// Close closes the underlying file handle without deleting it.
func (s *SideCarWriter) Close() error {
	if err := s.f.Close(); err != nil {
		return ctkerr.Dataf(opSideCar, err)
	}
	return nil
}

// Remove closes (if needed) and deletes the side-car file.
func (s *SideCarWriter) Remove() error {
	s.f.Close()
	if err := os.Remove(s.Name); err != nil {
		return ctkerr.Dataf(opSideCar, err)
	}
	return nil
}

type sideCarErr string

func (e sideCarErr) Error() string { return string(e) }

var (
	errBadMagic   = sideCarErr("side-car missing \"ctkp\" magic")
	errBadVersion = sideCarErr("side-car has an unsupported part-header version")
	errBadTag     = sideCarErr("side-car tag does not match the expected chunk")
)
