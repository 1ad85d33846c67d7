package ctk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatinski/ctk-sub001/header"
)

func fourElectrodes() []header.Electrode {
	var es []header.Electrode
	for _, label := range []string{"1", "2", "3", "4"} {
		es = append(es, header.Electrode{
			Label:  label,
			IScale: 1,
			RScale: 1.0 / 256,
			Unit:   "uV",
			Reference: "ref",
		})
	}
	return es
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.cnt")

	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.SetElectrodes(fourElectrodes()))
	require.NoError(t, w.SetSamplingRate(256))
	require.NoError(t, w.SetEpochLength(1024))
	require.NoError(t, w.SetStartTime(time.Date(2021, time.June, 15, 10, 0, 0, 0, time.UTC)))

	epoch := []int64{11, 21, 31, 41, 12, 22, 32, 42}
	for i := 0; i < 3; i++ {
		require.NoError(t, w.AppendColumnMajor(epoch))
	}
	require.NoError(t, w.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
	for _, suffix := range []string{"raw3_data", "raw3_ep", "raw3_chan", "eeph", "info"} {
		_, err := os.Stat(path + "_" + suffix + ".bin")
		assert.Error(t, err, "side-car %s should have been removed on assembly", suffix)
	}

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(6), r.SampleCount())
	assert.Equal(t, 4, r.Header().Channels)
	assert.Equal(t, 256.0, r.Header().SamplingRate)

	first, err := r.RangeColumnMajor(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 21, 31, 41}, first)

	second, err := r.RangeColumnMajor(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 22, 32, 42}, second)

	all, err := r.RangeColumnMajor(0, 6)
	require.NoError(t, err)
	assert.Len(t, all, 24)
}

func TestWriterRejectsSetupAfterAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.cnt")

	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.SetElectrodes(fourElectrodes()))
	require.NoError(t, w.SetSamplingRate(256))
	require.NoError(t, w.SetEpochLength(1024))
	require.NoError(t, w.AppendColumnMajor([]int64{1, 2, 3, 4}))

	err = w.SetSamplingRate(512)
	assert.Error(t, err)
	require.NoError(t, w.Close())
}

func TestWriterRejectsMethodsAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.cnt")

	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.SetElectrodes(fourElectrodes()))
	require.NoError(t, w.SetSamplingRate(256))
	require.NoError(t, w.SetEpochLength(1024))
	require.NoError(t, w.AppendColumnMajor([]int64{1, 2, 3, 4}))
	require.NoError(t, w.Close())

	assert.Error(t, w.AppendColumnMajor([]int64{1, 2, 3, 4}))
}

func TestReaderRejectsRangeAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.cnt")

	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.SetElectrodes(fourElectrodes()))
	require.NoError(t, w.SetSamplingRate(256))
	require.NoError(t, w.SetEpochLength(1024))
	require.NoError(t, w.AppendColumnMajor([]int64{1, 2, 3, 4}))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.RangeColumnMajor(0, 1)
	assert.Error(t, err)
}

func TestWriterEmbedRejectsReservedLabel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.cnt")

	w, err := New(path)
	require.NoError(t, err)
	embedPath := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(embedPath, []byte("hello"), 0o644))

	err = w.Embed([4]byte{'e', 'e', 'p', 'h'}, embedPath)
	assert.Error(t, err)
}

func TestWriterEmbedAndReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.cnt")
	embedPath := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(embedPath, []byte("hello world"), 0o644))

	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.SetElectrodes(fourElectrodes()))
	require.NoError(t, w.SetSamplingRate(256))
	require.NoError(t, w.SetEpochLength(1024))
	require.NoError(t, w.AppendColumnMajor([]int64{1, 2, 3, 4}))
	require.NoError(t, w.Embed([4]byte{'n', 'o', 't', 'e'}, embedPath))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	body, err := r.ReadEmbedded([4]byte{'n', 'o', 't', 'e'})
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
}

func TestWriterV4ScalingRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.cnt")

	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.SetElectrodes(fourElectrodes()))
	require.NoError(t, w.SetSamplingRate(256))
	require.NoError(t, w.SetEpochLength(1024))

	raw := []int64{256, 512, 768, 1024}
	scaled := make([]float32, len(raw))
	for i, v := range raw {
		scaled[i] = float32(v) / 256
	}
	require.NoError(t, w.AppendColumnMajorV4(&audio.Float32Buffer{
		Data:   scaled,
		Format: &audio.Format{NumChannels: 4, SampleRate: 256},
	}))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.RangeV4(0, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, scaled, got.Data, 1e-4)
}
