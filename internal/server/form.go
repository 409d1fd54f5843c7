package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"

	"intake/internal/records"
)

// requestForm is the merged view of a POST: query parameters overlaid by
// body fields, plus file parts in wire order.
type requestForm struct {
	values url.Values
	files  []records.FilePart
	temps  []*os.File
}

// Get returns the first value of key, or "".
func (f *requestForm) Get(key string) string {
	return f.values.Get(key)
}

// Lookup returns the first value of key and whether the key was sent at all.
func (f *requestForm) Lookup(key string) (string, bool) {
	vals, ok := f.values[key]
	if !ok {
		return "", false
	}
	if len(vals) == 0 {
		return "", true
	}
	return vals[0], true
}

func (f *requestForm) cleanup() {
	for _, tmp := range f.temps {
		name := tmp.Name()
		_ = tmp.Close()
		_ = os.Remove(name)
	}
	f.temps = nil
}

// readForm parses query and body. Multipart file parts up to maxMemory in
// total stay in memory; the rest spill to temp files removed by cleanup.
func readForm(r *http.Request, maxMemory int64) (*requestForm, error) {
	form := &requestForm{values: url.Values{}}
	for key, vals := range r.URL.Query() {
		form.values[key] = vals
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := form.readMultipart(r, maxMemory); err != nil {
			form.cleanup()
			return nil, err
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for key, vals := range r.PostForm {
			form.values[key] = vals
		}
	}
	return form, nil
}

func (f *requestForm) readMultipart(r *http.Request, maxMemory int64) error {
	mr, err := r.MultipartReader()
	if err != nil {
		return err
	}
	body := url.Values{}
	remaining := maxMemory

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		field := part.FormName()
		if field == "" {
			part.Close()
			continue
		}

		if !isFilePart(part) {
			var buf bytes.Buffer
			n, err := io.CopyN(&buf, part, remaining+1)
			part.Close()
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			remaining -= n
			if remaining < 0 {
				return multipart.ErrMessageTooLarge
			}
			body.Add(field, buf.String())
			continue
		}

		content, size, err := f.spool(part, remaining)
		part.Close()
		if err != nil {
			return err
		}
		if _, inMemory := content.(*bytes.Reader); inMemory {
			remaining -= size
		}
		f.files = append(f.files, records.FilePart{
			Field:       field,
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	for key, vals := range body {
		f.values[key] = vals
	}
	return nil
}

// spool buffers one file part, in memory when it fits the remaining budget
// and in a temp file otherwise.
func (f *requestForm) spool(part *multipart.Part, remaining int64) (io.Reader, int64, error) {
	var buf bytes.Buffer
	limit := remaining
	if limit < 0 {
		limit = 0
	}
	n, err := io.CopyN(&buf, part, limit+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, err
	}
	if n <= limit {
		return bytes.NewReader(buf.Bytes()), n, nil
	}

	tmp, err := os.CreateTemp("", "intake-upload-*")
	if err != nil {
		return nil, 0, err
	}
	f.temps = append(f.temps, tmp)
	size, err := io.Copy(tmp, io.MultiReader(&buf, part))
	if err != nil {
		return nil, 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, 0, err
	}
	return tmp, size, nil
}

// isFilePart reports whether the part carries a filename parameter, even an
// empty one.
func isFilePart(part *multipart.Part) bool {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return false
	}
	_, ok := params["filename"]
	return ok
}

// formErrorMessage turns a body parsing failure into a client-facing message.
func formErrorMessage(err error) string {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return fmt.Sprintf("request body too large (limit %d bytes)", maxBytesErr.Limit)
	case errors.Is(err, multipart.ErrMessageTooLarge):
		return "form fields too large"
	default:
		return "invalid form body: " + strings.TrimSpace(err.Error())
	}
}
