package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists Records as a single JSON file under a directory,
// written atomically (temp file + rename) so a crash mid-write never
// leaves a truncated index behind.
type FileStore struct {
	dir      string
	fileName string
}

// New constructs a FileStore rooted at dir. dir is created on first Save
// if it doesn't already exist.
func New(dir string) *FileStore {
	return &FileStore{dir: dir, fileName: "index.json"}
}

var _ Store = (*FileStore)(nil)

func (f *FileStore) path() string {
	return filepath.Join(f.dir, f.fileName)
}

// Load reads the persisted index. A missing file is not an error; it
// reports zero records so a first-run index build proceeds.
func (f *FileStore) Load(ctx context.Context) ([]Record, error) {
	raw, err := os.ReadFile(f.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ragsvc store: read index: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("ragsvc store: decode index: %w", err)
	}
	return records, nil
}

// Save replaces the persisted index with records.
func (f *FileStore) Save(ctx context.Context, records []Record) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("ragsvc store: create dir: %w", err)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("ragsvc store: encode index: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("ragsvc store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ragsvc store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ragsvc store: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ragsvc store: rename index: %w", err)
	}
	return nil
}
