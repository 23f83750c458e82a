package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ghuser/foundly/pkg/storage"
)

const (
	// maxMultipartMemory bounds the in-memory portion of multipart parsing;
	// larger parts spill to temp files.
	maxMultipartMemory = 32 << 20

	// imagesField is the multipart field carrying item photos.
	imagesField = "images"
)

// formValue returns the first value for key from a parsed multipart form.
func formValue(r *http.Request, key string) string {
	if r.MultipartForm == nil {
		return ""
	}
	if vs := r.MultipartForm.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// formPresent reports whether key was submitted at all, distinguishing an
// absent field from an empty one for partial updates.
func formPresent(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vs, ok := r.MultipartForm.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// formFiles opens every uploaded file under the images field. The returned
// cleanup function must be called once the service is done reading them.
func formFiles(r *http.Request) ([]storage.File, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}

	headers := r.MultipartForm.File[imagesField]
	files := make([]storage.File, 0, len(headers))
	closers := make([]func() error, 0, len(headers))

	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("open uploaded file %s: %w", fh.Filename, err)
		}
		closers = append(closers, src.Close)
		files = append(files, storage.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      src,
		})
	}

	return files, cleanup, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates (2006-01-02).
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be RFC 3339 or YYYY-MM-DD: %w", err)
	}
	return t, nil
}
