package models

import (
	"reflect"
	"testing"
)

func TestLinksRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		links []string
	}{
		{name: "empty", links: []string{}},
		{name: "single", links: []string{"https://files.example/a.png"}},
		{name: "ordered", links: []string{"https://x/3", "https://x/1", "https://x/2"}},
		{name: "duplicates kept", links: []string{"https://x/1", "https://x/1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLinks(JoinLinks(tt.links))
			if !reflect.DeepEqual(got, tt.links) {
				t.Fatalf("round trip mismatch: want %#v, got %#v", tt.links, got)
			}
		})
	}
}

func TestSplitLinksNeverNil(t *testing.T) {
	got := SplitLinks("")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no links, got %#v", got)
	}
}

func TestSplitLinksDropsEmptyEntries(t *testing.T) {
	got := SplitLinks("https://x/1 |  | https://x/2")
	want := []string{"https://x/1", "https://x/2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestCategoryMatchesField(t *testing.T) {
	tests := []struct {
		field string
		want  bool
	}{
		{field: "photos", want: true},
		{field: "photos[0]", want: true},
		{field: "photos[12]", want: true},
		{field: "photosx", want: false},
		{field: "photo", want: false},
		{field: "videos[0]", want: false},
		{field: "", want: false},
	}
	for _, tt := range tests {
		if got := CategoryPhotos.MatchesField(tt.field); got != tt.want {
			t.Fatalf("MatchesField(%q): expected %v, got %v", tt.field, tt.want, got)
		}
	}
}

func TestCategoryFolder(t *testing.T) {
	folders := Folders{Photos: "p-folder", Videos: "v-folder", Documents: "d-folder"}
	if got := CategoryPhotos.Folder(folders); got != "p-folder" {
		t.Fatalf("expected photos folder, got %q", got)
	}
	if got := CategoryVideos.Folder(folders); got != "v-folder" {
		t.Fatalf("expected videos folder, got %q", got)
	}
	if got := CategoryDocuments.Folder(folders); got != "d-folder" {
		t.Fatalf("expected documents folder, got %q", got)
	}
	if got := Category("scans").Folder(folders); got != "d-folder" {
		t.Fatalf("expected unknown category to fall back to documents, got %q", got)
	}
}

func TestRecordSetLinksNilBecomesEmpty(t *testing.T) {
	var rec Record
	rec.SetLinks(CategoryVideos, nil)
	if rec.Videos == nil || len(rec.Videos) != 0 {
		t.Fatalf("expected empty videos, got %#v", rec.Videos)
	}
	rec.SetLinks(CategoryPhotos, []string{"a"})
	if got := rec.Links(CategoryPhotos); len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected photos %#v", got)
	}
}

func TestOptional(t *testing.T) {
	if _, ok := None[string]().Get(); ok {
		t.Fatal("expected absent value")
	}

	value, ok := Some("").Get()
	if !ok {
		t.Fatal("expected explicitly empty value to be set")
	}
	if value != "" {
		t.Fatalf("expected explicit empty value, got %q", value)
	}
}
