package flat

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatinski/ctk-sub001/container"
)

func TestPartHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	label := container.IDData
	require.NoError(t, WritePartHeader(&buf, TagData, label))

	buf.Write([]byte("payload"))

	hdr, err := ReadPartHeader(&buf, TagData)
	require.NoError(t, err)
	assert.Equal(t, label, hdr.Label)
	assert.Equal(t, TagData, hdr.Tag)

	assert.Equal(t, "payload", buf.String())
}

func TestReadPartHeaderRejectsWrongTag(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePartHeader(&buf, TagData, container.IDData))
	_, err := ReadPartHeader(&buf, TagChan)
	assert.Error(t, err)
}

func TestCreateSideCarWritesHeader(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "rec")

	sc, err := CreateSideCar(base, TagEeph, container.IDEeph)
	require.NoError(t, err)
	_, err = sc.Write([]byte("[File Version]\n1.0\n"))
	require.NoError(t, err)
	require.NoError(t, sc.Close())

	assert.Equal(t, SideCarName(base, TagEeph), sc.Name)

	f, err := os.Open(sc.Name)
	require.NoError(t, err)
	defer f.Close()

	hdr, err := ReadPartHeader(f, TagEeph)
	require.NoError(t, err)
	assert.Equal(t, container.IDEeph, hdr.Label)
}

func TestAssembleStitchesSideCarsAndDeletesThem(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "rec")

	write := func(tag Tag, label container.ID, payload string) {
		sc, err := CreateSideCar(base, tag, label)
		require.NoError(t, err)
		_, err = sc.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, sc.Close())
	}

	write(TagEp, container.IDEp, "EP")
	write(TagChan, container.IDChan, "CHAN")
	write(TagData, container.IDData, "DATA")
	write(TagEeph, container.IDEeph, "[Samples]\n0\n")
	write(TagInfo, container.IDInfo, "[Comment]\n\n")

	embedPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(embedPath, []byte("hello"), 0o644))

	var out bytes.Buffer
	asm := &Assembler{Base: base, Width: container.Width32}
	err := asm.Assemble(&seekBuf{buf: &out}, []PartSpec{
		{Tag: TagEp, Label: container.IDEp},
		{Tag: TagChan, Label: container.IDChan},
		{Tag: TagData, Label: container.IDData},
		{Tag: TagEeph, Label: container.IDEeph},
		{Tag: TagInfo, Label: container.IDInfo},
	}, []EmbeddedFile{
		{ID: container.ID{'n', 'o', 't', 'e'}, Path: embedPath},
	})
	require.NoError(t, err)

	for _, tag := range []Tag{TagEp, TagChan, TagData, TagEeph, TagInfo} {
		_, statErr := os.Stat(SideCarName(base, tag))
		assert.True(t, os.IsNotExist(statErr))
	}

	root, label, err := container.OpenRoot(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, container.LabelCNT, label)

	idx, err := container.BuildIndex(root)
	require.NoError(t, err)
	assert.Equal(t, int64(len("DATA")), idx.Data.Size)
	assert.Equal(t, int64(len("EP")), idx.Ep.Size)

	var found bool
	for id := range idx.Embedded {
		if id == (container.ID{'n', 'o', 't', 'e'}) {
			found = true
		}
	}
	assert.True(t, found)
}

// seekBuf adapts a *bytes.Buffer into an io.WriteSeeker for tests,
// since Assembler writes through a container.Writer that patches
// chunk sizes via seek-back.
type seekBuf struct {
	buf *bytes.Buffer
	pos int64
}

func (s *seekBuf) Write(p []byte) (int, error) {
	if s.pos < int64(s.buf.Len()) {
		b := s.buf.Bytes()
		n := copy(b[s.pos:], p)
		s.pos += int64(n)
		if n < len(p) {
			s.buf.Write(p[n:])
			s.pos += int64(len(p) - n)
		}
		return len(p), nil
	}
	n, err := s.buf.Write(p)
	s.pos += int64(n)
	return n, err
}

func (s *seekBuf) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(s.buf.Len()) + offset
	}
	return s.pos, nil
}
