package records

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"intake/internal/blobstore"
	"intake/internal/models"
)

// FilePart is one uploaded file in the order it arrived.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Metrics receives attachment events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	FileStored(category models.Category, sizeBytes int64)
	ShareFailed(category models.Category)
}

// Collector stores the uploads of one category and returns their URLs.
type Collector struct {
	store   blobstore.FolderStore
	folders models.Folders
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
}

// NewCollector constructs a Collector. logger and metrics may be nil.
func NewCollector(fs blobstore.FolderStore, folders models.Folders, logger *slog.Logger, metrics Metrics) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		store:   fs,
		folders: folders,
		logger:  logger.With("component", "collector"),
		metrics: metrics,
		now:     time.Now,
	}
}

// Collect stores every part whose field is category or category[n], in part
// order, and makes each file viewable by link. Sharing failures are logged
// and do not fail the collection. A store failure aborts; files already
// stored stay where they are.
func (c *Collector) Collect(ctx context.Context, parts []FilePart, category models.Category) ([]string, error) {
	urls := []string{}
	if len(parts) == 0 {
		return urls, nil
	}
	folder := category.Folder(c.folders)
	fallbacks := map[string]int{}

	for _, part := range parts {
		if !category.MatchesField(part.Field) {
			continue
		}
		if part.Content == nil {
			return urls, fmt.Errorf("%s upload %q has no content", category, part.Field)
		}

		name := part.Filename
		if !usableFilename(name) {
			name = c.fallbackName(fallbacks)
		}

		file, err := c.store.Save(ctx, folder, name, part.Content, blobstore.SaveOptions{ContentType: part.ContentType})
		if err != nil {
			return urls, fmt.Errorf("store %s file %q: %w", category, name, err)
		}
		if c.metrics != nil {
			c.metrics.FileStored(category, file.SizeBytes)
		}

		if err := c.store.ShareAnyoneWithLink(ctx, file.Key); err != nil {
			c.logger.Warn("share file failed", "category", category, "key", file.Key, "error", err)
			if c.metrics != nil {
				c.metrics.ShareFailed(category)
			}
		}

		urls = append(urls, file.URL)
	}
	return urls, nil
}

// fallbackName names a part uploaded without a filename. Repeats within
// one collection get a numeric suffix.
func (c *Collector) fallbackName(seen map[string]int) string {
	base := "upload_" + strconv.FormatInt(c.now().UnixMilli(), 10)
	n := seen[base]
	seen[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "_" + strconv.Itoa(n)
}

// usableFilename reports whether a client-supplied name still names a file
// once reduced to its last path element.
func usableFilename(name string) bool {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	return base != "." && base != ".." && base != "/"
}
