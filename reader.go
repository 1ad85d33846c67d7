package ctk

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"

	"github.com/slatinski/ctk-sub001/container"
	"github.com/slatinski/ctk-sub001/event"
	"github.com/slatinski/ctk-sub001/header"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
	"github.com/slatinski/ctk-sub001/internal/ctklog"
	"github.com/slatinski/ctk-sub001/matrix"
	"github.com/slatinski/ctk-sub001/segment"
)

const opReader = "ctk.Reader"

// Reader gives query/sample access to a closed CNT file.
type Reader struct {
	cfg    config
	log    ctklog.Logger
	f      *os.File
	closed bool

	header header.Header
	info   header.Info
	order  matrix.RowOrder

	triggers []event.Trigger
	embedded map[container.ID]container.Range

	segR *segment.Reader
}

// Open parses file at path, locating every mandatory chunk and
// decoding its eeph/info/chan side tables eagerly; epoch data is
// decoded lazily on Range.
func Open(path string, opts ...Option) (*Reader, error) {
	cfg := newConfig(opts)
	log := ctklog.WithComponent(cfg.logger, "ctk.Reader")

	f, err := os.Open(path)
	if err != nil {
		return nil, ctklog.Report(log, ctkerr.Dataf(opReader, err))
	}

	root, _, err := container.OpenRoot(f)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}

	idx, err := container.BuildIndex(root)
	if err != nil {
		if !cfg.brokenRecovery {
			f.Close()
			return nil, ctklog.Report(log, err)
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			f.Close()
			return nil, ctklog.Report(log, ctkerr.Dataf(opReader, rerr))
		}
		idx, rerr = container.BrokenScan(data, log)
		if rerr != nil {
			f.Close()
			return nil, ctklog.Report(log, rerr)
		}
	}

	eephBody, err := container.ReadRange(f, idx.Eeph)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}
	h, err := header.ParseEEPH(eephBody)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}

	infoBody, err := container.ReadRange(f, idx.Info)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}
	fileVersion := fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)
	info, err := header.ParseInfo(infoBody, fileVersion)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}

	chanBody, err := container.ReadRange(f, idx.Chan)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}
	order, err := decodeRowOrder(chanBody)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}
	if err := order.Validate(h.Channels); err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}

	epBody, err := container.ReadRange(f, idx.Ep)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}
	table, err := segment.Decode(epBody, idx.Width)
	if err != nil {
		f.Close()
		return nil, ctklog.Report(log, err)
	}

	var triggers []event.Trigger
	if idx.Evt != nil {
		evtBody, err := container.ReadRange(f, *idx.Evt)
		if err != nil {
			f.Close()
			return nil, ctklog.Report(log, err)
		}
		triggers, err = event.DecodeTriggers(evtBody, idx.Width)
		if err != nil {
			f.Close()
			return nil, ctklog.Report(log, err)
		}
	}

	format := wireFormat(h.VersionMajor)
	dataPayload := io.NewSectionReader(f, idx.Data.Offset, idx.Data.Size)
	segR := segment.NewReader(h.Channels, order, 32, format, table, idx.Data.Size, h.Samples, dataPayload)

	return &Reader{
		cfg: cfg, log: log, f: f,
		header: h, info: info, order: order,
		triggers: triggers, embedded: idx.Embedded,
		segR: segR,
	}, nil
}

func (r *Reader) checkOpen() error {
	if r.closed {
		return ctklog.Report(r.log, ctkerr.Limitf(opReader, errClosed))
	}
	return nil
}

// Header returns the parsed eeph metadata (version, sampling rate,
// sample count, channel count, electrodes, history).
func (r *Reader) Header() header.Header { return r.header }

// Info returns the parsed info chunk (subject/institution/equipment).
func (r *Reader) Info() header.Info { return r.info }

// RowOrder returns the storage-row to electrode-index permutation.
func (r *Reader) RowOrder() matrix.RowOrder { return r.order }

// SampleCount reports the total number of samples committed across
// every electrode.
func (r *Reader) SampleCount() int64 { return r.segR.TotalSamples() }

// Triggers returns every trigger recorded in the file, in order.
func (r *Reader) Triggers() []event.Trigger { return r.triggers }

// RangeColumnMajor reads samples [i, i+n) laid out sample-major,
// channel-minor.
func (r *Reader) RangeColumnMajor(i, n int64) ([]int64, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.segR.Range(i, n, segment.ColumnMajor)
}

// RangeRowMajor reads samples [i, i+n) laid out channel-major,
// sample-minor.
func (r *Reader) RangeRowMajor(i, n int64) ([]int64, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.segR.Range(i, n, segment.RowMajor)
}

// RangeV4 reads samples [i, i+n) as real-valued electrode measurements,
// applying each electrode's (IScale x RScale) scaling on the way out,
// matching the libeep v4 API's electrode-scaled float interface. The
// result is a sample-major, channel-minor audio.Float32Buffer, the
// same shape the reference collaborator's PCM readers hand back.
func (r *Reader) RangeV4(i, n int64) (*audio.Float32Buffer, error) {
	raw, err := r.RangeColumnMajor(i, n)
	if err != nil {
		return nil, err
	}
	h := r.header.Channels
	data := make([]float32, len(raw))
	for idx, v := range raw {
		e := r.header.Electrodes[idx%h]
		data[idx] = float32(float64(v) * e.IScale * e.RScale)
	}
	return &audio.Float32Buffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: h,
			SampleRate:  int(r.header.SamplingRate),
		},
	}, nil
}

// Embedded lists the identifiers of every user-attached chunk.
func (r *Reader) Embedded() []container.ID {
	ids := make([]container.ID, 0, len(r.embedded))
	for id := range r.embedded {
		ids = append(ids, id)
	}
	return ids
}

// ReadEmbedded returns the raw bytes of the chunk label attached via
// Writer.Embed.
func (r *Reader) ReadEmbedded(label container.ID) ([]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	rg, ok := r.embedded[label]
	if !ok {
		return nil, ctklog.Report(r.log, ctkerr.Dataf(opReader, errNoSuchEmbed))
	}
	return container.ReadRange(r.f, rg)
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.closed = true
	if err := r.f.Close(); err != nil {
		return ctklog.Report(r.log, ctkerr.Dataf(opReader, err))
	}
	return nil
}
