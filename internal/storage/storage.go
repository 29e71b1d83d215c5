package storage

import (
	"errors"

	"github.com/jaywantadh/gwbench/internal/chunker"
	"github.com/jaywantadh/gwbench/internal/metadata"
)

var (
	ErrNotFound     = errors.New("file not found")
	ErrInvalidName  = errors.New("invalid file name")
	ErrSizeMismatch = chunker.ErrSizeMismatch
)

// StoreSummary is returned once an upload has been persisted.
type StoreSummary struct {
	Message       string `json:"message"`
	BytesReceived int64  `json:"bytes_received"`
	SHA256        string `json:"sha256,omitempty"`
}

// Storage is the protocol-agnostic file backend used by both transports.
type Storage interface {
	// Store consumes the whole chunk stream and persists it as filename.
	// The file only becomes visible once the stream ended cleanly.
	Store(filename string, stream chunker.Stream) (StoreSummary, error)
	// Retrieve opens a stored file as a chunk source.
	Retrieve(filename string, chunkSize int) (*chunker.Source, error)
	// List returns the catalog of stored files.
	List() ([]metadata.FileRecord, error)
}
