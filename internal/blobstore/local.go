package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FilesRoutePrefix is the URL path under which the server exposes local files.
const FilesRoutePrefix = "/files/"

// LocalStore keeps files on disk as <root>/<folder>/<id>/<name>, with a JSON
// sidecar <root>/<folder>/<id>.meta holding content type and sharing state.
type LocalStore struct {
	root    string
	baseURL string
}

type localMeta struct {
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	Shared      bool      `json:"shared"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewLocalStore creates a local store rooted at root. baseURL is the public
// server address used to build file URLs.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local blob root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}, nil
}

// Save streams r into a fresh directory inside folder.
func (s *LocalStore) Save(ctx context.Context, folder, name string, r io.Reader, opts SaveOptions) (StoredFile, error) {
	var zero StoredFile
	if s == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	folder, err := cleanFolder(folder)
	if err != nil {
		return zero, err
	}
	name, err = cleanName(name)
	if err != nil {
		return zero, err
	}

	id := uuid.NewString()
	key := path.Join(folder, id, name)
	dst, err := s.pathFromKey(key)
	if err != nil {
		return zero, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return zero, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return zero, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return zero, err
	}

	meta := localMeta{ContentType: opts.ContentType, SizeBytes: n, CreatedAt: time.Now().UTC()}
	if err := s.writeMeta(key, meta); err != nil {
		return zero, err
	}

	return StoredFile{Key: key, Folder: folder, Name: name, SizeBytes: n, URL: s.URL(key)}, nil
}

// ShareAnyoneWithLink marks a file as publicly viewable.
func (s *LocalStore) ShareAnyoneWithLink(ctx context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	meta, err := s.readMeta(key)
	if err != nil {
		return err
	}
	meta.Shared = true
	return s.writeMeta(key, meta)
}

// Open returns a reader for the file content.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, SaveOptions, error) {
	if s == nil {
		return nil, SaveOptions{}, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, SaveOptions{}, err
	}
	meta, err := s.readMeta(key)
	if err != nil {
		return nil, SaveOptions{}, err
	}
	p, err := s.pathFromKey(key)
	if err != nil {
		return nil, SaveOptions{}, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, SaveOptions{}, ErrNotFound
	}
	if err != nil {
		return nil, SaveOptions{}, err
	}
	return f, SaveOptions{ContentType: meta.ContentType}, nil
}

// IsShared reports whether a file was shared with anyone holding its link.
func (s *LocalStore) IsShared(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	meta, err := s.readMeta(key)
	if err != nil {
		return false, err
	}
	return meta.Shared, nil
}

// URL returns the public URL of key.
func (s *LocalStore) URL(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.baseURL + FilesRoutePrefix + strings.Join(segments, "/")
}

func (s *LocalStore) metaPath(key string) (string, error) {
	p, err := s.pathFromKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Dir(p) + ".meta", nil
}

func (s *LocalStore) readMeta(key string) (localMeta, error) {
	var meta localMeta
	p, err := s.metaPath(key)
	if err != nil {
		return meta, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return meta, ErrNotFound
	}
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decode blob metadata: %w", err)
	}
	return meta, nil
}

func (s *LocalStore) writeMeta(key string, meta localMeta) error {
	p, err := s.metaPath(key)
	if err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (s *LocalStore) pathFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("blob key is required")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("blob key must be relative")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.Contains(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob key")
	}
	if len(strings.Split(filepath.ToSlash(clean), "/")) < 3 {
		return "", fmt.Errorf("invalid blob key")
	}
	return filepath.Join(s.root, clean), nil
}

func cleanFolder(folder string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(filepath.ToSlash(folder)), "/")
	if folder == "" {
		return "", fmt.Errorf("folder is required")
	}
	clean := path.Clean(folder)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid folder %q", folder)
	}
	return clean, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("invalid file name")
	}
	return name, nil
}
