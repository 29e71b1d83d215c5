package metadata

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestMetadataStoreCRUD(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gwbench_test_metadata_db")

	store, err := OpenMetadataStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open metadata store: %v", err)
	}
	defer store.Close()

	rec := NewFileRecord("testfile.bin", 12345, "abc123")
	if err := store.PutFileRecord(rec); err != nil {
		t.Fatalf("failed to put file record: %v", err)
	}

	got, err := store.GetFileRecord("testfile.bin")
	if err != nil {
		t.Fatalf("failed to get file record: %v", err)
	}
	if got.FileName != rec.FileName || got.Size != rec.Size || got.SHA256 != rec.SHA256 {
		t.Errorf("retrieved file record does not match: %+v", got)
	}

	// Overwrite keeps a single record per name
	rec.Size = 42
	if err := store.PutFileRecord(rec); err != nil {
		t.Fatalf("failed to overwrite file record: %v", err)
	}
	if err := store.PutFileRecord(NewFileRecord("another.bin", 7, "def456")); err != nil {
		t.Fatalf("failed to put second record: %v", err)
	}

	all, err := store.ListFileRecords()
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].FileName != "another.bin" || all[1].Size != 42 {
		t.Errorf("unexpected listing: %+v", all)
	}
}

func TestMetadataStoreMissingRecord(t *testing.T) {
	store, err := OpenMetadataStore(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("failed to open metadata store: %v", err)
	}
	defer store.Close()

	_, err = store.GetFileRecord("ghost.bin")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}
