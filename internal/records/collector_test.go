package records

import (
	"context"
	"strings"
	"testing"
	"time"

	"intake/internal/blobstore"
	"intake/internal/models"
)

func TestCollectKeepsPartOrderAndFiltersByCategory(t *testing.T) {
	files := blobstore.NewMemoryStore("http://files.test")
	folders := models.Folders{Photos: "Photos", Videos: "Videos", Documents: "Docs"}
	c := NewCollector(files, folders, nil, nil)

	parts := []FilePart{
		filePart("photos[1]", "b.jpg", "b"),
		filePart("documents", "x.pdf", "x"),
		filePart("photos[0]", "a.jpg", "a"),
		filePart("photosets", "no.jpg", "n"),
		filePart("photos", "c.jpg", "c"),
	}
	urls, err := c.Collect(context.Background(), parts, models.CategoryPhotos)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 urls, got %#v", urls)
	}
	for i, want := range []string{"/b.jpg", "/a.jpg", "/c.jpg"} {
		if !strings.HasSuffix(urls[i], want) || !strings.Contains(urls[i], "/files/Photos/") {
			t.Fatalf("url %d: expected Photos folder and suffix %s, got %s", i, want, urls[i])
		}
	}

	docs, err := c.Collect(context.Background(), parts, models.CategoryDocuments)
	if err != nil {
		t.Fatalf("collect documents: %v", err)
	}
	if len(docs) != 1 || !strings.Contains(docs[0], "/files/Docs/") {
		t.Fatalf("unexpected documents %#v", docs)
	}

	for _, f := range files.Files() {
		shared, err := files.IsShared(context.Background(), f.Key)
		if err != nil || !shared {
			t.Fatalf("expected %s shared, got %v %v", f.Key, shared, err)
		}
	}
}

func TestCollectEmptyInputYieldsEmptySlice(t *testing.T) {
	c := NewCollector(blobstore.NewMemoryStore(""), models.DefaultFolders(), nil, nil)
	urls, err := c.Collect(context.Background(), nil, models.CategoryVideos)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if urls == nil || len(urls) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", urls)
	}
}

func TestCollectFallbackNamesAreDisambiguated(t *testing.T) {
	files := blobstore.NewMemoryStore("")
	c := NewCollector(files, models.DefaultFolders(), nil, nil)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	parts := []FilePart{
		filePart("documents[0]", "", "1"),
		filePart("documents[1]", "  ", "2"),
		filePart("documents[2]", "", "3"),
	}
	if _, err := c.Collect(context.Background(), parts, models.CategoryDocuments); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var names []string
	for _, f := range files.Files() {
		names = append(names, f.Name)
	}
	want := "upload_1700000000000,upload_1700000000000_1,upload_1700000000000_2"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestCollectReplacesPathOnlyFilenames(t *testing.T) {
	files := blobstore.NewMemoryStore("")
	c := NewCollector(files, models.DefaultFolders(), nil, nil)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	parts := []FilePart{
		filePart("photos[0]", ".", "1"),
		filePart("photos[1]", "..", "2"),
		filePart("photos[2]", "/", "3"),
		filePart("photos[3]", `dir\scan.png`, "4"),
	}
	urls, err := c.Collect(context.Background(), parts, models.CategoryPhotos)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(urls) != 4 {
		t.Fatalf("expected 4 urls, got %#v", urls)
	}
	var names []string
	for _, f := range files.Files() {
		names = append(names, f.Name)
	}
	want := "upload_1700000000000,upload_1700000000000_1,upload_1700000000000_2,scan.png"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
