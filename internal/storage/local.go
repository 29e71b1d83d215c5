package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/gwbench/internal/chunker"
	"github.com/jaywantadh/gwbench/internal/metadata"
	"github.com/jaywantadh/gwbench/pkg/logging"
)

const progressLogStep = 10 * 1024 * 1024

// LocalStorage implements the Storage interface for the local filesystem.
// Every file lives directly under basePath.
type LocalStorage struct {
	basePath string
	catalog  *metadata.MetadataStore
	logger   *logrus.Logger
}

// NewLocalStorage creates a new LocalStorage instance. catalog may be nil.
func NewLocalStorage(basePath string, catalog *metadata.MetadataStore, logger *logrus.Logger) (*LocalStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{
		basePath: abs,
		catalog:  catalog,
		logger:   logging.Or(logger),
	}, nil
}

// Root returns the absolute upload directory.
func (s *LocalStorage) Root() string { return s.basePath }

// Store writes the stream chunk by chunk into a temp file and renames it into
// place after the last chunk.
func (s *LocalStorage) Store(filename string, stream chunker.Stream) (StoreSummary, error) {
	destPath, err := s.resolve(filename)
	if err != nil {
		return StoreSummary{}, err
	}

	sink, err := chunker.NewSink(destPath)
	if err != nil {
		return StoreSummary{}, err
	}

	log := s.logger.WithField("filename", filename)
	log.Info("Receiving file")

	checked := chunker.VerifySize(stream)
	var logged int64
	written, err := chunker.Drain(checked, sink, func(n int) {
		if total := sink.Written(); total/progressLogStep > logged/progressLogStep {
			log.Debugf("Received %.1f MB", float64(total)/(1024*1024))
			logged = total
		}
	})
	if err != nil {
		log.WithError(err).Warn("Upload aborted")
		return StoreSummary{BytesReceived: written}, err
	}

	sum := sink.Sum()
	if s.catalog != nil {
		if err := s.catalog.PutFileRecord(metadata.NewFileRecord(filename, written, sum)); err != nil {
			log.WithError(err).Warn("Failed to record file in catalog")
		}
	}

	log.WithField("bytes", written).Info("File saved")
	return StoreSummary{
		Message:       fmt.Sprintf("File %s uploaded successfully", filename),
		BytesReceived: written,
		SHA256:        sum,
	}, nil
}

// Retrieve opens a stored file for streaming back to a client.
func (s *LocalStorage) Retrieve(filename string, chunkSize int) (*chunker.Source, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}

	src, err := chunker.Open(path, chunkSize)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, err
	}
	return src, nil
}

// List returns the catalog records, or a directory listing when no catalog
// is configured.
func (s *LocalStorage) List() ([]metadata.FileRecord, error) {
	if s.catalog != nil {
		return s.catalog.ListFileRecords()
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	records := []metadata.FileRecord{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		records = append(records, metadata.FileRecord{
			FileName: entry.Name(),
			Size:     info.Size(),
			StoredAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].FileName < records[j].FileName
	})
	return records, nil
}

// resolve maps a client supplied name to a path directly under basePath.
// Names with separators, or starting with a dot, are rejected.
func (s *LocalStorage) resolve(filename string) (string, error) {
	if filename == "" || strings.HasPrefix(filename, ".") || strings.ContainsAny(filename, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}

	path := filepath.Join(s.basePath, filename)
	if filepath.Dir(path) != s.basePath {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return path, nil
}
