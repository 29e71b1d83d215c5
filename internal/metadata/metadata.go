package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var ErrRecordNotFound = errors.New("file record not found")

const filePrefix = "file:"

// FileRecord describes a file held by the file server.
type FileRecord struct {
	FileName string    `json:"file_name"`
	Size     int64     `json:"size"`
	SHA256   string    `json:"sha256"`
	StoredAt time.Time `json:"stored_at"`
}

// MetadataStore wraps BadgerDB for metadata operations.
type MetadataStore struct {
	db *badger.DB
}

// OpenMetadataStore opens (or creates) a BadgerDB at the given path.
func OpenMetadataStore(dbPath string) (*MetadataStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &MetadataStore{db: db}, nil
}

// Close closes the BadgerDB.
func (ms *MetadataStore) Close() error {
	return ms.db.Close()
}

// PutFileRecord stores or replaces the record for rec.FileName.
func (ms *MetadataStore) PutFileRecord(rec FileRecord) error {
	key := []byte(filePrefix + rec.FileName)
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return ms.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// GetFileRecord retrieves the record of a stored file.
func (ms *MetadataStore) GetFileRecord(fileName string) (FileRecord, error) {
	key := []byte(filePrefix + fileName)
	var rec FileRecord
	err := ms.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, fmt.Errorf("%w: %s", ErrRecordNotFound, fileName)
	}
	return rec, err
}

// ListFileRecords returns every record ordered by file name.
func (ms *MetadataStore) ListFileRecords() ([]FileRecord, error) {
	var records []FileRecord
	err := ms.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(filePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec FileRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].FileName < records[j].FileName
	})
	return records, nil
}

// Helper to create a new FileRecord
func NewFileRecord(fileName string, size int64, sha256 string) FileRecord {
	return FileRecord{
		FileName: fileName,
		Size:     size,
		SHA256:   sha256,
		StoredAt: time.Now().UTC(),
	}
}
