package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/google/uuid"
)

// ErrShareFailed is returned by MemoryStore when sharing is set to fail.
var ErrShareFailed = errors.New("share failed")

type memoryEntry struct {
	file   StoredFile
	opts   SaveOptions
	data   []byte
	shared bool
}

// MemoryStore keeps files in process memory. Intended for tests and
// throwaway servers.
type MemoryStore struct {
	mu        sync.RWMutex
	baseURL   string
	objs      map[string]memoryEntry
	order     []string
	failShare bool
	failSave  bool
}

// NewMemoryStore returns an empty in-memory store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objs: make(map[string]memoryEntry)}
}

// FailShares makes subsequent ShareAnyoneWithLink calls fail.
func (s *MemoryStore) FailShares(fail bool) {
	s.mu.Lock()
	s.failShare = fail
	s.mu.Unlock()
}

// FailSaves makes subsequent Save calls fail.
func (s *MemoryStore) FailSaves(fail bool) {
	s.mu.Lock()
	s.failSave = fail
	s.mu.Unlock()
}

// Save stores a copy of r.
func (s *MemoryStore) Save(ctx context.Context, folder, name string, r io.Reader, opts SaveOptions) (StoredFile, error) {
	if r == nil {
		return StoredFile{}, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}
	folder, err := cleanFolder(folder)
	if err != nil {
		return StoredFile{}, err
	}
	name, err = cleanName(name)
	if err != nil {
		return StoredFile{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return StoredFile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return StoredFile{}, fmt.Errorf("save %s/%s: storage unavailable", folder, name)
	}
	key := path.Join(folder, uuid.NewString(), name)
	file := StoredFile{Key: key, Folder: folder, Name: name, SizeBytes: int64(len(data)), URL: s.url(key)}
	s.objs[key] = memoryEntry{file: file, opts: opts, data: data}
	s.order = append(s.order, key)
	return file, nil
}

// ShareAnyoneWithLink marks the file as shared.
func (s *MemoryStore) ShareAnyoneWithLink(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failShare {
		return ErrShareFailed
	}
	entry, ok := s.objs[key]
	if !ok {
		return ErrNotFound
	}
	entry.shared = true
	s.objs[key] = entry
	return nil
}

// Open returns a reader over a copy of the stored content.
func (s *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, SaveOptions, error) {
	s.mu.RLock()
	entry, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, SaveOptions{}, ErrNotFound
	}
	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return io.NopCloser(bytes.NewReader(data)), entry.opts, nil
}

// IsShared reports whether the file was shared.
func (s *MemoryStore) IsShared(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.objs[key]
	if !ok {
		return false, ErrNotFound
	}
	return entry.shared, nil
}

// Files lists stored files in save order.
func (s *MemoryStore) Files() []StoredFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StoredFile, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.objs[key].file)
	}
	return out
}

func (s *MemoryStore) url(key string) string {
	return s.baseURL + FilesRoutePrefix + escapeKey(key)
}
