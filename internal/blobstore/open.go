package blobstore

import (
	"context"
	"fmt"
	"strings"
)

// Driver names a FolderStore implementation.
type Driver string

const (
	DriverLocal  Driver = "local"
	DriverS3     Driver = "s3"
	DriverMemory Driver = "memory"
)

// Options selects and configures a FolderStore.
type Options struct {
	Driver  Driver
	Root    string // local driver directory
	BaseURL string // public server address for local and memory URLs
	S3      S3Config
}

// Open builds the FolderStore named by opts.Driver. An empty driver means local.
func Open(ctx context.Context, opts Options) (FolderStore, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(string(opts.Driver))))
	if driver == "" {
		driver = DriverLocal
	}
	switch driver {
	case DriverLocal:
		return NewLocalStore(opts.Root, opts.BaseURL)
	case DriverS3:
		return NewS3Store(ctx, opts.S3)
	case DriverMemory:
		return NewMemoryStore(strings.TrimRight(opts.BaseURL, "/")), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", opts.Driver)
	}
}
