package models

import "strings"

// Category names the attachment bucket a file belongs to.
type Category string

const (
	CategoryPhotos    Category = "photos"
	CategoryVideos    Category = "videos"
	CategoryDocuments Category = "documents"
)

// Categories lists every attachment category in collection order.
var Categories = []Category{CategoryPhotos, CategoryVideos, CategoryDocuments}

// MatchesField reports whether a multipart field name belongs to the
// category, either as "photos" or as an indexed "photos[3]".
func (c Category) MatchesField(field string) bool {
	prefix := string(c)
	if prefix == "" {
		return false
	}
	return field == prefix || strings.HasPrefix(field, prefix+"[")
}

// Folder resolves which storage folder receives files of this category.
// Anything that is neither a photo nor a video is filed as a document.
func (c Category) Folder(folders Folders) string {
	switch {
	case strings.HasPrefix(string(c), "photo"):
		return folders.Photos
	case strings.HasPrefix(string(c), "video"):
		return folders.Videos
	default:
		return folders.Documents
	}
}

// Folders names the storage location for each category.
type Folders struct {
	Photos    string
	Videos    string
	Documents string
}

// DefaultFolders uses the category names as folder names.
func DefaultFolders() Folders {
	return Folders{
		Photos:    string(CategoryPhotos),
		Videos:    string(CategoryVideos),
		Documents: string(CategoryDocuments),
	}
}
