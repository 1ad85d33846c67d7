package ctk

import (
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"

	"github.com/slatinski/ctk-sub001/block"
	"github.com/slatinski/ctk-sub001/container"
	"github.com/slatinski/ctk-sub001/dcdate"
	"github.com/slatinski/ctk-sub001/event"
	"github.com/slatinski/ctk-sub001/flat"
	"github.com/slatinski/ctk-sub001/header"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
	"github.com/slatinski/ctk-sub001/internal/ctklog"
	"github.com/slatinski/ctk-sub001/matrix"
	"github.com/slatinski/ctk-sub001/segment"
)

const opWriter = "ctk.Writer"

// wireFormat is Reflib (wire-compatible with the reference library's
// "v4" sample interface) for file version major 4, the default,
// Extended for any other major version.
func wireFormat(versionMajor int) block.Format {
	if versionMajor == 4 {
		return block.Reflib
	}
	return block.Extended
}

// Writer builds one CNT file: New -> metadata setters -> Append* ->
// AddTrigger*/Embed -> Close. Every method after Close fails with a
// "limit" error.
type Writer struct {
	cfg    config
	path   string
	log    ctklog.Logger
	closed bool

	versionMajor, versionMinor int
	electrodes                 []header.Electrode
	samplingRate               float64
	epochLength                int64
	startTime                  time.Time
	info                       header.Info
	history                    string

	order    matrix.RowOrder
	format   block.Format
	wordBits uint8

	appending bool
	dataFile  *flat.SideCarWriter
	segW      *segment.Writer
	triggers  []event.Trigger
	embeds    []flat.EmbeddedFile
	embedSet  map[container.ID]bool
}

// New opens the side-car area for path (the eventual .cnt file).
func New(path string, opts ...Option) (*Writer, error) {
	cfg := newConfig(opts)
	return &Writer{
		cfg:          cfg,
		path:         path,
		log:          ctklog.WithComponent(cfg.logger, "ctk.Writer"),
		versionMajor: 4,
		versionMinor: 0,
		wordBits:     32,
		embedSet:     map[container.ID]bool{},
	}, nil
}

func (w *Writer) checkOpen() error {
	if w.closed {
		return ctklog.Report(w.log, ctkerr.Limitf(opWriter, errClosed))
	}
	return nil
}

func (w *Writer) checkSetup() error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.appending {
		return ctklog.Report(w.log, ctkerr.Limitf(opWriter, errAlreadyAppending))
	}
	return nil
}

// SetElectrodes installs the electrode list; its length fixes the
// channel count for the rest of the session.
func (w *Writer) SetElectrodes(es []header.Electrode) error {
	if err := w.checkSetup(); err != nil {
		return err
	}
	w.electrodes = append([]header.Electrode(nil), es...)
	w.order = matrix.Natural(len(es))
	return nil
}

// SetRowOrder overrides the default identity electrode permutation.
func (w *Writer) SetRowOrder(order matrix.RowOrder) error {
	if err := w.checkSetup(); err != nil {
		return err
	}
	if err := order.Validate(len(w.electrodes)); err != nil {
		return ctklog.Report(w.log, err)
	}
	w.order = order
	return nil
}

// SetSamplingRate sets the sampling frequency in Hz.
func (w *Writer) SetSamplingRate(hz float64) error {
	if err := w.checkSetup(); err != nil {
		return err
	}
	if hz != hz || hz <= 0 || math.IsInf(hz, 0) {
		return ctklog.Report(w.log, ctkerr.Dataf(opWriter, errBadSamplingRate))
	}
	w.samplingRate = hz
	return nil
}

// SetEpochLength sets the number of samples the writer buffers before
// encoding and committing one epoch.
func (w *Writer) SetEpochLength(n int64) error {
	if err := w.checkSetup(); err != nil {
		return err
	}
	if n <= 0 {
		return ctklog.Report(w.log, ctkerr.Dataf(opWriter, errBadEpochLength))
	}
	w.epochLength = n
	return nil
}

// SetStartTime sets the recording's start time.
func (w *Writer) SetStartTime(t time.Time) error {
	if err := w.checkSetup(); err != nil {
		return err
	}
	w.startTime = t
	return nil
}

// SetSubject installs the "info" chunk's subject/institution/equipment
// fields in bulk (StartDate/StartFraction are derived from
// SetStartTime and overwritten on Close).
func (w *Writer) SetSubject(info header.Info) error {
	if err := w.checkSetup(); err != nil {
		return err
	}
	w.info = info
	return nil
}

// SetHistory sets the eeph chunk's free-text history field.
func (w *Writer) SetHistory(s string) error {
	if err := w.checkSetup(); err != nil {
		return err
	}
	w.history = s
	return nil
}

func (w *Writer) ensureSegment() error {
	if w.segW != nil {
		return nil
	}
	if len(w.electrodes) == 0 || w.samplingRate == 0 || w.epochLength == 0 {
		return ctklog.Report(w.log, ctkerr.Limitf(opWriter, errNotSetUp))
	}

	f, err := flat.CreateSideCar(w.path, flat.TagData, container.IDData)
	if err != nil {
		return ctklog.Report(w.log, err)
	}

	w.format = wireFormat(w.versionMajor)
	w.dataFile = f
	w.segW = segment.NewWriter(len(w.electrodes), w.epochLength, w.order, w.wordBits, w.format, w.cfg.width, f)
	w.appending = true
	return nil
}

func (w *Writer) h() int { return len(w.electrodes) }

func rowMajorToColumnMajor(rowMajor []int64, h int) []int64 {
	length := len(rowMajor) / h
	colMajor := make([]int64, len(rowMajor))
	matrix.Transpose(colMajor, rowMajor, matrix.Natural(h), length, true)
	return colMajor
}

// AppendColumnMajor appends samples laid out sample-major,
// channel-minor (h values per sample).
func (w *Writer) AppendColumnMajor(samples []int64) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if err := w.ensureSegment(); err != nil {
		return err
	}
	if len(samples)%w.h() != 0 {
		return ctklog.Report(w.log, ctkerr.Limitf(opWriter, errChannelCount))
	}
	return w.segW.AppendColumnMajor(samples)
}

// AppendRowMajor appends samples laid out channel-major,
// sample-minor: h contiguous runs of equal length.
func (w *Writer) AppendRowMajor(samples []int64) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if err := w.ensureSegment(); err != nil {
		return err
	}
	if len(samples)%w.h() != 0 {
		return ctklog.Report(w.log, ctkerr.Limitf(opWriter, errChannelCount))
	}
	return w.segW.AppendColumnMajor(rowMajorToColumnMajor(samples, w.h()))
}

func f64ToInt64(samples []float64) []int64 {
	out := make([]int64, len(samples))
	for i, v := range samples {
		out[i] = int64(math.Round(v))
	}
	return out
}

// AppendColumnMajorF64 appends double-precision samples holding exact
// integer values, column-major.
func (w *Writer) AppendColumnMajorF64(samples []float64) error {
	return w.AppendColumnMajor(f64ToInt64(samples))
}

// AppendRowMajorF64 appends double-precision samples holding exact
// integer values, row-major.
func (w *Writer) AppendRowMajorF64(samples []float64) error {
	return w.AppendRowMajor(f64ToInt64(samples))
}

// AppendColumnMajorV4 appends a sample-major, channel-minor buffer of
// real-valued measurements (e.g. microvolts), inverting each
// electrode's (IScale x RScale) scaling to recover the raw integer
// sample before storage, matching the libeep v4 API's electrode-scaled
// float interface on the write side.
func (w *Writer) AppendColumnMajorV4(buf *audio.Float32Buffer) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if err := w.ensureSegment(); err != nil {
		return err
	}
	h := w.h()
	samples := buf.Data
	if len(samples)%h != 0 {
		return ctklog.Report(w.log, ctkerr.Limitf(opWriter, errChannelCount))
	}
	raw := make([]int64, len(samples))
	for i, v := range samples {
		e := w.electrodes[i%h]
		scale := e.IScale * e.RScale
		if scale == 0 {
			return ctklog.Report(w.log, ctkerr.Dataf(opWriter, errZeroScale))
		}
		raw[i] = int64(math.Round(float64(v) / scale))
	}
	return w.segW.AppendColumnMajor(raw)
}

// AddTrigger appends one trigger.
func (w *Writer) AddTrigger(t event.Trigger) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	w.triggers = append(w.triggers, t)
	return nil
}

// AddTriggers appends a batch of triggers, preserving order.
func (w *Writer) AddTriggers(ts []event.Trigger) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	w.triggers = append(w.triggers, ts...)
	return nil
}

// Embed attaches path verbatim as a top-level chunk named label.
func (w *Writer) Embed(label container.ID, path string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if container.Reserved[label] {
		return ctklog.Report(w.log, ctkerr.Limitf(opWriter, errReservedEmbedLabel))
	}
	if w.embedSet[label] {
		return ctklog.Report(w.log, ctkerr.Limitf(opWriter, errDuplicateEmbed))
	}
	w.embedSet[label] = true
	w.embeds = append(w.embeds, flat.EmbeddedFile{ID: label, Path: path})
	return nil
}

// Close finalizes the file: commits the partial last epoch, writes
// every side-car, assembles the final container, and removes the
// side-cars.
func (w *Writer) Close() error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	w.closed = true

	if w.segW == nil {
		if err := w.ensureSegment(); err != nil {
			return err
		}
	}
	if err := w.segW.Close(); err != nil {
		return ctklog.Report(w.log, err)
	}
	if err := w.dataFile.Close(); err != nil {
		return ctklog.Report(w.log, err)
	}

	parts := []flat.PartSpec{
		{Tag: flat.TagData, Label: container.IDData},
	}

	if err := w.writeSideCar(flat.TagEp, container.IDEp, segmentTableBytes(w)); err != nil {
		return err
	}
	parts = append(parts, flat.PartSpec{Tag: flat.TagEp, Label: container.IDEp})

	if err := w.writeSideCar(flat.TagChan, container.IDChan, encodeRowOrder(w.order)); err != nil {
		return err
	}
	parts = append(parts, flat.PartSpec{Tag: flat.TagChan, Label: container.IDChan})

	eephBody, err := header.WriteEEPH(header.Header{
		VersionMajor: w.versionMajor,
		VersionMinor: w.versionMinor,
		SamplingRate: w.samplingRate,
		Samples:      w.segW.TotalSamples(),
		Channels:     w.h(),
		Electrodes:   w.electrodes,
		History:      w.history,
	})
	if err != nil {
		return ctklog.Report(w.log, err)
	}
	if err := w.writeSideCar(flat.TagEeph, container.IDEeph, eephBody); err != nil {
		return err
	}
	parts = append(parts, flat.PartSpec{Tag: flat.TagEeph, Label: container.IDEeph})

	d := dcdate.FromTime(w.startTime)
	info := w.info
	info.StartDate = d.Date
	info.StartFraction = d.Fraction
	if err := w.writeSideCar(flat.TagInfo, container.IDInfo, header.WriteInfo(info)); err != nil {
		return err
	}
	parts = append(parts, flat.PartSpec{Tag: flat.TagInfo, Label: container.IDInfo})

	if len(w.triggers) > 0 {
		body, err := event.EncodeTriggers(w.triggers, w.cfg.width)
		if err != nil {
			return ctklog.Report(w.log, err)
		}
		if err := w.writeSideCar(flat.TagTriggers, container.IDEvt, body); err != nil {
			return err
		}
		parts = append(parts, flat.PartSpec{Tag: flat.TagTriggers, Label: container.IDEvt})
	}

	out, err := os.Create(w.path)
	if err != nil {
		return ctklog.Report(w.log, ctkerr.Dataf(opWriter, err))
	}
	defer out.Close()

	asm := &flat.Assembler{Base: w.path, Width: w.cfg.width}
	if err := asm.Assemble(out, parts, w.embeds); err != nil {
		return ctklog.Report(w.log, err)
	}
	return nil
}

func (w *Writer) writeSideCar(tag flat.Tag, label container.ID, body []byte) error {
	sc, err := flat.CreateSideCar(w.path, tag, label)
	if err != nil {
		return ctklog.Report(w.log, err)
	}
	if _, err := sc.Write(body); err != nil {
		sc.Close()
		return ctklog.Report(w.log, err)
	}
	return ctklog.Report(w.log, sc.Close())
}

func segmentTableBytes(w *Writer) []byte {
	return segment.Encode(w.segW.Table(), w.cfg.width)
}

var (
	errBadSamplingRate = facadeErr("sampling rate must be finite and positive")
	errBadEpochLength  = facadeErr("epoch length must be positive")
	errZeroScale       = facadeErr("electrode IScale x RScale is zero, cannot invert for v4 append")
)
