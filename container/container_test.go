package container

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatinski/ctk-sub001/internal/ctklog"
)

type memFile struct {
	buf []byte
	pos int64
}

func newMemFile() *memFile { return &memFile{buf: make([]byte, 0)} }

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		m.pos = offset
	case 1:
		m.pos += offset
	case 2:
		m.pos = int64(len(m.buf)) + offset
	}
	return m.pos, nil
}

func buildSample(t *testing.T, width SizeWidth) []byte {
	t.Helper()
	f := newMemFile()
	w := NewWriter(f, width)
	require.NoError(t, w.OpenRoot(LabelCNT))

	require.NoError(t, w.OpenChunk(IDEeph))
	_, err := w.Write([]byte("[File Version]\n1.0\n"))
	require.NoError(t, err)
	require.NoError(t, w.CloseChunk())

	require.NoError(t, w.OpenChunk(IDInfo))
	_, err = w.Write([]byte("[Comment]\nhi\n"))
	require.NoError(t, err)
	require.NoError(t, w.CloseChunk())

	require.NoError(t, w.OpenList(LabelRaw3))
	require.NoError(t, w.OpenChunk(IDEp))
	_, err = w.Write([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.OpenChunk(IDChan))
	_, err = w.Write([]byte{9, 9})
	require.NoError(t, err)
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.OpenChunk(IDData))
	_, err = w.Write([]byte("some compressed epoch bytes"))
	require.NoError(t, err)
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.CloseChunk()) // raw3

	require.NoError(t, w.Close())

	return f.buf
}

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, width := range []SizeWidth{Width32, Width64} {
		data := buildSample(t, width)
		f := &memFile{buf: data}

		root, label, err := OpenRoot(f)
		require.NoError(t, err)
		assert.Equal(t, LabelCNT, label)

		idx, err := BuildIndex(root)
		require.NoError(t, err)
		assert.Equal(t, width, idx.Width)

		eephBytes, err := ReadRange(bytes.NewReader(data), idx.Eeph)
		require.NoError(t, err)
		assert.Equal(t, "[File Version]\n1.0\n", string(eephBytes))

		dataBytes, err := ReadRange(bytes.NewReader(data), idx.Data)
		require.NoError(t, err)
		assert.Equal(t, "some compressed epoch bytes", string(dataBytes))

		epBytes, err := ReadRange(bytes.NewReader(data), idx.Ep)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4, 5}, epBytes)
	}
}

func TestEvenLengthPadding(t *testing.T) {
	data := buildSample(t, Width32)
	// the "ep" chunk payload is 5 bytes (odd): confirm a pad byte
	// follows without being counted in the size field.
	f := &memFile{buf: data}
	root, _, err := OpenRoot(f)
	require.NoError(t, err)
	idx, err := BuildIndex(root)
	require.NoError(t, err)
	assert.EqualValues(t, 5, idx.Ep.Size)
}

func TestBrokenScanRecoversIdentifiers(t *testing.T) {
	data := buildSample(t, Width32)

	// corrupt the root/raw3 size fields to simulate a damaged chunk
	// table, but leave chunk ids and payload bytes intact.
	corrupt := append([]byte(nil), data...)
	for i := 4; i < 8; i++ { // root size field
		corrupt[i] = 0xff
	}
	if p := bytes.Index(corrupt, ListID[:]); p >= 0 { // raw3 LIST size field
		for i := p + 4; i < p+8; i++ {
			corrupt[i] = 0xff
		}
	}

	idx, err := BrokenScan(corrupt, ctklog.Nop())
	require.NoError(t, err)
	assert.Greater(t, idx.Data.Size, int64(0))
	assert.Greater(t, idx.Eeph.Size, int64(0))
}

func TestEmbeddedChunkSurvivesIndex(t *testing.T) {
	f := newMemFile()
	w := NewWriter(f, Width32)
	require.NoError(t, w.OpenRoot(LabelCNT))
	require.NoError(t, w.OpenChunk(IDEeph))
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.OpenChunk(IDInfo))
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.OpenList(LabelRaw3))
	require.NoError(t, w.OpenChunk(IDEp))
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.OpenChunk(IDChan))
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.OpenChunk(IDData))
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.CloseChunk())

	usr1 := newID("usr1")
	require.NoError(t, w.OpenChunk(usr1))
	_, err := w.Write([]byte("embedded payload"))
	require.NoError(t, err)
	require.NoError(t, w.CloseChunk())
	require.NoError(t, w.Close())

	root, _, err := OpenRoot(&memFile{buf: f.buf})
	require.NoError(t, err)
	idx, err := BuildIndex(root)
	require.NoError(t, err)
	require.Contains(t, idx.Embedded, usr1)
	payload, err := ReadRange(bytes.NewReader(f.buf), idx.Embedded[usr1])
	require.NoError(t, err)
	assert.Equal(t, "embedded payload", string(payload))
}
