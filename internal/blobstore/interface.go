package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key does not name a stored file.
var ErrNotFound = errors.New("blob not found")

// SaveOptions carries optional metadata for a stored file.
type SaveOptions struct {
	ContentType string
}

// StoredFile describes one file written to a folder.
type StoredFile struct {
	Key       string
	Folder    string
	Name      string
	SizeBytes int64
	URL       string
}

// FolderStore is the folder-scoped file storage used by the attachment collector.
type FolderStore interface {
	// Save writes r as a new file named name inside folder. Saving the same
	// name twice yields two distinct files.
	Save(ctx context.Context, folder, name string, r io.Reader, opts SaveOptions) (StoredFile, error)
	// ShareAnyoneWithLink grants view access to anyone holding the file URL.
	ShareAnyoneWithLink(ctx context.Context, key string) error
}

// Reader is implemented by stores that can stream content back, which the
// server uses to serve files from the local driver.
type Reader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, SaveOptions, error)
	IsShared(ctx context.Context, key string) (bool, error)
}
