package models

import (
	"strings"
	"time"
)

// LinkDelimiter separates URLs inside one link cell.
const LinkDelimiter = " | "

// TimestampLayout is how creation instants are written to the table.
const TimestampLayout = time.RFC3339Nano

// Header names of the record table. Columns may appear in any order.
const (
	FieldTimestamp     = "Timestamp"
	FieldToken         = "Token"
	FieldPatientName   = "Patient Name"
	FieldAge           = "Age"
	FieldGender        = "Gender"
	FieldNotes         = "Notes"
	FieldPhotoLinks    = "Photo Links"
	FieldVideoLinks    = "Video Links"
	FieldDocumentLinks = "Document Links"
)

// DefaultHeaders is the header row written to an empty table.
var DefaultHeaders = []string{
	FieldTimestamp,
	FieldToken,
	FieldPatientName,
	FieldAge,
	FieldGender,
	FieldNotes,
	FieldPhotoLinks,
	FieldVideoLinks,
	FieldDocumentLinks,
}

// LinkField returns the header name holding a category's links.
func LinkField(c Category) string {
	switch c {
	case CategoryPhotos:
		return FieldPhotoLinks
	case CategoryVideos:
		return FieldVideoLinks
	default:
		return FieldDocumentLinks
	}
}

// Record is one patient intake row.
type Record struct {
	Timestamp string
	Token     string
	Name      string
	Age       string
	Gender    string
	Notes     string
	Photos    []string
	Videos    []string
	Documents []string
}

// Links returns the link sequence stored for a category.
func (r *Record) Links(c Category) []string {
	switch c {
	case CategoryPhotos:
		return r.Photos
	case CategoryVideos:
		return r.Videos
	default:
		return r.Documents
	}
}

// SetLinks replaces the link sequence stored for a category.
func (r *Record) SetLinks(c Category, links []string) {
	if links == nil {
		links = []string{}
	}
	switch c {
	case CategoryPhotos:
		r.Photos = links
	case CategoryVideos:
		r.Videos = links
	default:
		r.Documents = links
	}
}

// JoinLinks encodes a link sequence into a single cell value.
func JoinLinks(links []string) string {
	return strings.Join(links, LinkDelimiter)
}

// SplitLinks decodes a cell value into its link sequence. Empty entries are
// dropped and the result is never nil.
func SplitLinks(cell string) []string {
	out := []string{}
	if cell == "" {
		return out
	}
	for _, link := range strings.Split(cell, LinkDelimiter) {
		if link == "" {
			continue
		}
		out = append(out, link)
	}
	return out
}
