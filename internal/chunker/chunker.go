package chunker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

// DefaultChunkSize is used when a caller passes a non-positive chunk size.
const DefaultChunkSize = 1024 * 1024

// Chunk is one piece of a file in transit. Its position is implied by the
// order in which it was produced.
type Chunk struct {
	Filename  string
	Data      []byte
	TotalSize int64
}

// Stream is a forward-only chunk sequence. Next returns io.EOF once every
// chunk has been produced.
type Stream interface {
	Next() (Chunk, error)
}

// Observer is told the payload length of every chunk that passes by.
type Observer func(n int)

// Source produces the chunks of a single file or byte stream. Data returned
// by Next is only valid until the following call to Next.
type Source struct {
	r         io.Reader
	closer    io.Closer
	filename  string
	totalSize int64
	buf       []byte
	sent      atomic.Int64
	done      bool
	observe   Observer
}

// Open opens filePath for a single forward pass. A missing file yields an
// error matching os.ErrNotExist.
func Open(filePath string, chunkSize int) (*Source, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s is a directory: %w", filePath, os.ErrNotExist)
	}

	src := NewSource(file, filepath.Base(filePath), fileInfo.Size(), chunkSize)
	src.closer = file
	return src, nil
}

// NewSource chunks an arbitrary reader. totalSize is attached to every chunk
// unchanged; pass -1 when it is unknown.
func NewSource(r io.Reader, filename string, totalSize int64, chunkSize int) *Source {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Source{
		r:         r,
		filename:  filename,
		totalSize: totalSize,
		buf:       make([]byte, chunkSize),
	}
}

// Observe registers fn to be called with the size of every chunk or read.
func (s *Source) Observe(fn Observer) {
	s.observe = fn
}

// Filename returns the name attached to every chunk.
func (s *Source) Filename() string { return s.filename }

// TotalSize returns the size computed when the source was opened.
func (s *Source) TotalSize() int64 { return s.totalSize }

// Sent returns how many bytes have been handed out so far. It is safe to call
// while another goroutine reads.
func (s *Source) Sent() int64 { return s.sent.Load() }

// Next fills the chunk buffer completely unless the input ends first.
func (s *Source) Next() (Chunk, error) {
	if s.done {
		return Chunk{}, io.EOF
	}

	n, err := io.ReadFull(s.r, s.buf)
	switch {
	case err == io.EOF:
		s.done = true
		return Chunk{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
	case err != nil:
		return Chunk{}, fmt.Errorf("failed to read chunk: %w", err)
	}

	s.account(n)
	return Chunk{
		Filename:  s.filename,
		Data:      s.buf[:n],
		TotalSize: s.totalSize,
	}, nil
}

// Read lets the source be used directly as a streamed request body. Read and
// Next must not be mixed on the same source.
func (s *Source) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.account(n)
	return n, err
}

// Close releases the underlying file, if the source opened one.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func (s *Source) account(n int) {
	if n <= 0 {
		return
	}
	s.sent.Add(int64(n))
	if s.observe != nil {
		s.observe(n)
	}
}
