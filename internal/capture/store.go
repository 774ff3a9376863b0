// Package capture persists post records.
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"scripters-bot/internal/posts"
	"scripters-bot/internal/storage/local"
)

// ErrNotFound is returned when no record is stored for an id.
var ErrNotFound = errors.New("record not found")

// Store saves post records.
type Store interface {
	// Save writes rec, replacing any record with the same id.
	Save(ctx context.Context, rec posts.Record) error
}

const recordExt = ".json"

// FileStore keeps one pretty-printed JSON file per post, named <id>.json.
// It is the durable source of truth for published posts.
type FileStore struct {
	blobs *local.BlobStore
}

// NewFileStore creates a FileStore rooted at dir. The directory is created on
// the first write.
func NewFileStore(dir string) (*FileStore, error) {
	blobs, err := local.New(local.Config{BaseDir: dir})
	if err != nil {
		return nil, fmt.Errorf("failed to open record directory: %w", err)
	}
	return &FileStore{blobs: blobs}, nil
}

// Dir returns the directory records are written to.
func (s *FileStore) Dir() string {
	return s.blobs.BaseDir()
}

// EnsureDir creates the record directory if it is missing.
func (s *FileStore) EnsureDir() error {
	return s.blobs.EnsureDir()
}

// RecordName is the file name holding the record for post id.
func RecordName(id int) string {
	return strconv.Itoa(id) + recordExt
}

// Save writes rec to <dir>/<id>.json.
func (s *FileStore) Save(ctx context.Context, rec posts.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	// Captions are kept readable: no \u003c-style escaping of HTML characters.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("marshal record %d: %w", rec.ID, err)
	}
	if _, err := s.blobs.Put(ctx, RecordName(rec.ID), buf.Bytes()); err != nil {
		return fmt.Errorf("write record %d: %w", rec.ID, err)
	}
	return nil
}

// Load reads the record stored for id.
func (s *FileStore) Load(ctx context.Context, id int) (posts.Record, error) {
	data, err := s.blobs.Get(ctx, RecordName(id))
	if err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return posts.Record{}, ErrNotFound
		}
		return posts.Record{}, fmt.Errorf("read record %d: %w", id, err)
	}
	var rec posts.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return posts.Record{}, fmt.Errorf("decode record %d: %w", id, err)
	}
	return rec, nil
}

// List returns every stored record, newest id first. Files whose names are
// not post ids are ignored.
func (s *FileStore) List(ctx context.Context) ([]posts.Record, error) {
	names, err := s.blobs.List(ctx, recordExt)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, err := strconv.Atoi(strings.TrimSuffix(name, recordExt))
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))

	records := make([]posts.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
