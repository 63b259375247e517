// internal/app/system/upload/upload.go
//
// Package upload reads multipart file fields, checks their type by content
// sniffing and writes them to the file store under a saga.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/consultancy/internal/app/system/filestore"
	"github.com/dalemusser/consultancy/internal/app/system/limits"
	"github.com/dalemusser/consultancy/internal/app/system/saga"
	"github.com/dalemusser/waffle/pantry/storage"
)

// DefaultMaxBytes is the request size cap when none is configured.
const DefaultMaxBytes int64 = limits.MaxUploadBody

var (
	ErrNoFile   = errors.New("no file uploaded")
	ErrTooLarge = errors.New("upload is too large")
	ErrBadType  = errors.New("file type not allowed")
)

// Kind restricts which content types a field accepts.
type Kind int

const (
	Image Kind = iota
	Document
)

var documentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	// DetectContentType reports .docx files as zip archives
	"application/zip": true,
}

func (k Kind) allows(contentType string) bool {
	switch k {
	case Image:
		switch contentType {
		case "image/jpeg", "image/png", "image/gif", "image/webp":
			return true
		}
		return false
	case Document:
		return documentTypes[contentType]
	}
	return false
}

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f *File) Size() int64 { return int64(len(f.Data)) }

// Reader returns a fresh reader over the file contents.
func (f *File) Reader() io.Reader { return bytes.NewReader(f.Data) }

// ParseForm caps the body at maxBytes and parses the multipart form.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return ErrTooLarge
		}
		return fmt.Errorf("invalid form data: %w", err)
	}
	return nil
}

// Read loads the named file field. ParseForm must have been called.
// It returns ErrNoFile when the field is missing or empty.
func Read(r *http.Request, field string, kind Kind) (*File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, ErrNoFile
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if !kind.allows(ct) {
		return nil, fmt.Errorf("%w: %s", ErrBadType, ct)
	}
	if kind == Document && ct == "application/zip" {
		ct = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return &File{Name: header.Filename, ContentType: ct, Data: data}, nil
}

// Put writes f under a fresh key in prefix and registers its removal on sg.
func Put(ctx context.Context, fs storage.Store, sg *saga.Saga, prefix string, f *File) (key, url string, err error) {
	key = filestore.NewKey(prefix, f.Name)
	if err := fs.Put(ctx, key, f.Reader(), &storage.PutOptions{ContentType: f.ContentType}); err != nil {
		return "", "", fmt.Errorf("store %s: %w", prefix, err)
	}
	sg.Compensate("delete "+key, func(ctx context.Context) error {
		return fs.Delete(ctx, key)
	})
	return key, fs.URL(key), nil
}

// IsClientError reports whether err should be answered with 400.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoFile) || errors.Is(err, ErrTooLarge) || errors.Is(err, ErrBadType) ||
		strings.HasPrefix(err.Error(), "invalid form data")
}
