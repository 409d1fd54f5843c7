package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"intake/internal/api"
	"intake/internal/models"
)

type uploadFlags struct {
	photos    []string
	videos    []string
	documents []string
}

// uploads turns file paths into multipart uploads, photos first, then videos,
// then documents.
func (u uploadFlags) uploads() ([]api.Upload, error) {
	out := make([]api.Upload, 0, len(u.photos)+len(u.videos)+len(u.documents))
	for _, group := range []struct {
		category models.Category
		paths    []string
	}{
		{models.CategoryPhotos, u.photos},
		{models.CategoryVideos, u.videos},
		{models.CategoryDocuments, u.documents},
	} {
		for _, path := range group.paths {
			upload, err := newUpload(group.category, path)
			if err != nil {
				return nil, err
			}
			out = append(out, upload)
		}
	}
	return out, nil
}

func newUpload(category models.Category, path string) (api.Upload, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return api.Upload{}, fmt.Errorf("%s: empty file path", category)
	}
	info, err := os.Stat(path)
	if err != nil {
		return api.Upload{}, err
	}
	if info.IsDir() {
		return api.Upload{}, fmt.Errorf("%s: %s is a directory", category, path)
	}
	return api.Upload{
		Field:       string(category),
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Path:        path,
	}, nil
}

type arrayFlagBinder interface {
	StringArrayVar(p *[]string, name string, value []string, usage string)
}

func bindUploadFlags(flags arrayFlagBinder, u *uploadFlags) {
	flags.StringArrayVar(&u.photos, "photo", nil, "photo file to attach (repeatable)")
	flags.StringArrayVar(&u.videos, "video", nil, "video file to attach (repeatable)")
	flags.StringArrayVar(&u.documents, "document", nil, "document file to attach (repeatable)")
}
