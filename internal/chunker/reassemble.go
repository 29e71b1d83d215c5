package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	ErrSinkClosed   = errors.New("sink already committed or aborted")
	ErrSizeMismatch = errors.New("received size does not match declared size")
)

// Sink writes an ordered chunk sequence to a temporary file next to its
// destination and only exposes it under the final name on Commit.
type Sink struct {
	file     *os.File
	tmpPath  string
	destPath string
	written  int64
	hash     hash.Hash
	closed   bool
}

// NewSink prepares a temporary file for destPath, creating parent
// directories as needed.
func NewSink(destPath string) (*Sink, error) {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(destPath)+"."+uuid.NewString()+".part")
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	return &Sink{
		file:     file,
		tmpPath:  tmpPath,
		destPath: destPath,
		hash:     sha256.New(),
	}, nil
}

// Put appends the chunk payload.
func (s *Sink) Put(c Chunk) error {
	if s.closed {
		return ErrSinkClosed
	}

	n, err := s.file.Write(c.Data)
	s.written += int64(n)
	s.hash.Write(c.Data[:n])
	if err != nil {
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	return nil
}

// Written returns the number of payload bytes written so far.
func (s *Sink) Written() int64 { return s.written }

// Sum returns the hex sha256 of everything written so far.
func (s *Sink) Sum() string { return hex.EncodeToString(s.hash.Sum(nil)) }

// Commit flushes the temporary file and renames it over the destination.
func (s *Sink) Commit() (int64, error) {
	if s.closed {
		return s.written, ErrSinkClosed
	}
	s.closed = true

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		os.Remove(s.tmpPath)
		return s.written, fmt.Errorf("failed to sync file: %w", err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.tmpPath)
		return s.written, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(s.tmpPath, s.destPath); err != nil {
		os.Remove(s.tmpPath)
		return s.written, fmt.Errorf("failed to move file into place: %w", err)
	}
	return s.written, nil
}

// Abort discards the temporary file. Calling it after Commit is a no-op.
func (s *Sink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true

	closeErr := s.file.Close()
	if err := os.Remove(s.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove partial file: %w", err)
	}
	return closeErr
}

// Drain pumps stream into sink, committing on io.EOF and aborting on any
// other error. observe may be nil.
func Drain(stream Stream, sink *Sink, observe Observer) (int64, error) {
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			return sink.Commit()
		}
		if err != nil {
			sink.Abort()
			return sink.Written(), err
		}

		if err := sink.Put(chunk); err != nil {
			sink.Abort()
			return sink.Written(), err
		}
		if observe != nil {
			observe(len(chunk.Data))
		}
	}
}

// VerifySize wraps stream so that it fails at the end when the bytes seen
// differ from the total size declared by the first chunk. A declared size of
// zero or less is not checked.
func VerifySize(stream Stream) Stream {
	return &sizeCheckedStream{stream: stream, declared: -1}
}

type sizeCheckedStream struct {
	stream   Stream
	declared int64
	received int64
}

func (c *sizeCheckedStream) Next() (Chunk, error) {
	chunk, err := c.stream.Next()
	if err == io.EOF {
		if c.declared > 0 && c.received != c.declared {
			return chunk, fmt.Errorf("%w: got %d of %d bytes", ErrSizeMismatch, c.received, c.declared)
		}
		return chunk, io.EOF
	}
	if err != nil {
		return chunk, err
	}

	if c.declared < 0 {
		c.declared = chunk.TotalSize
	}
	c.received += int64(len(chunk.Data))
	return chunk, nil
}
