package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://files.test")

	file, err := s.Save(ctx, "Videos", "clip.mp4", strings.NewReader("frames"), SaveOptions{ContentType: "video/mp4"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(file.URL, "http://files.test/files/Videos/") {
		t.Fatalf("unexpected url %q", file.URL)
	}

	rc, opts, err := s.Open(ctx, file.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "frames" || opts.ContentType != "video/mp4" {
		t.Fatalf("unexpected content %q / %q", string(data), opts.ContentType)
	}

	if err := s.ShareAnyoneWithLink(ctx, file.Key); err != nil {
		t.Fatalf("share: %v", err)
	}
	if shared, _ := s.IsShared(ctx, file.Key); !shared {
		t.Fatal("expected shared")
	}
	if files := s.Files(); len(files) != 1 || files[0].Key != file.Key {
		t.Fatalf("unexpected files %#v", files)
	}
}

func TestMemoryStoreFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("")

	file, err := s.Save(ctx, "Photos", "a.png", strings.NewReader("x"), SaveOptions{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	s.FailShares(true)
	if err := s.ShareAnyoneWithLink(ctx, file.Key); !errors.Is(err, ErrShareFailed) {
		t.Fatalf("expected ErrShareFailed, got %v", err)
	}
	s.FailSaves(true)
	if _, err := s.Save(ctx, "Photos", "b.png", strings.NewReader("y"), SaveOptions{}); err == nil {
		t.Fatal("expected save failure")
	}
	if _, err := s.IsShared(ctx, "Photos/none/c.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, Options{Root: t.TempDir(), BaseURL: "http://x"})
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	if _, ok := st.(*LocalStore); !ok {
		t.Fatalf("expected *LocalStore, got %T", st)
	}

	st, err = Open(ctx, Options{Driver: "MEMORY"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := st.(*MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", st)
	}

	if _, err := Open(ctx, Options{Driver: DriverS3}); err == nil {
		t.Fatal("expected error for s3 without bucket")
	}
	if _, err := Open(ctx, Options{Driver: "ftp"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
