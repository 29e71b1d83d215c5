package chunker

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRandomFile(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path, data
}

func TestSourceChunksCoverFileOnce(t *testing.T) {
	const chunkSize = 1000
	path, data := writeRandomFile(t, 3500)

	src, err := Open(path, chunkSize)
	require.NoError(t, err)
	defer src.Close()

	var got []byte
	var sizes []int
	for {
		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "input.bin", chunk.Filename)
		assert.Equal(t, int64(3500), chunk.TotalSize)
		sizes = append(sizes, len(chunk.Data))
		got = append(got, chunk.Data...)
	}

	assert.Equal(t, []int{1000, 1000, 1000, 500}, sizes)
	assert.Equal(t, data, got)
	assert.Equal(t, int64(3500), src.Sent())

	_, err = src.Next()
	assert.Equal(t, io.EOF, err, "a drained source stays drained")
}

func TestSourceEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	src, err := Open(path, 64)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
	assert.Zero(t, src.TotalSize())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"), 64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSourceObserverSeesEveryByte(t *testing.T) {
	src := NewSource(bytes.NewReader(make([]byte, 2500)), "x", 2500, 1024)
	var seen int
	src.Observe(func(n int) { seen += n })

	_, err := io.Copy(io.Discard, src)
	require.NoError(t, err)
	assert.Equal(t, 2500, seen)
	assert.Equal(t, int64(2500), src.Sent())
}

func TestDrainCommitsAtomically(t *testing.T) {
	path, data := writeRandomFile(t, 10_000)
	src, err := Open(path, 4096)
	require.NoError(t, err)
	defer src.Close()

	dest := filepath.Join(t.TempDir(), "out", "copy.bin")
	sink, err := NewSink(dest)
	require.NoError(t, err)

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err), "destination must not exist before commit")

	n, err := Drain(src, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), sink.Sum())

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be gone after commit")
}

type failingStream struct {
	chunks int
}

func (f *failingStream) Next() (Chunk, error) {
	if f.chunks == 0 {
		return Chunk{}, errors.New("connection reset")
	}
	f.chunks--
	return Chunk{Filename: "broken.bin", Data: []byte("partial")}, nil
}

func TestDrainAbortsOnStreamError(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "broken.bin")
	sink, err := NewSink(dest)
	require.NoError(t, err)

	n, err := Drain(&failingStream{chunks: 2}, sink, nil)
	require.Error(t, err)
	assert.Equal(t, int64(14), n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed transfers leave nothing behind")

	_, err = sink.Commit()
	assert.ErrorIs(t, err, ErrSinkClosed)
}

func TestVerifySizeDetectsTruncation(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 2500)
	src := NewSource(bytes.NewReader(data), "short.bin", 4000, 1000)

	dest := filepath.Join(t.TempDir(), "short.bin")
	sink, err := NewSink(dest)
	require.NoError(t, err)

	_, err = Drain(VerifySize(src), sink, nil)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestVerifySizeSkipsUndeclaredSize(t *testing.T) {
	src := NewSource(bytes.NewReader([]byte("abc")), "unknown.bin", -1, 1000)

	sink, err := NewSink(filepath.Join(t.TempDir(), "unknown.bin"))
	require.NoError(t, err)

	n, err := Drain(VerifySize(src), sink, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
