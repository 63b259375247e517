// internal/app/system/filestore/filestore.go

// Package filestore names uploaded files and serves disk-backed ones. The
// storage itself is a waffle pantry/storage Store.
package filestore

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// Path prefixes used by each content type.
const (
	PrefixGallery      = "gallery"
	PrefixPopups       = "popups"
	PrefixTeam         = "team"
	PrefixTestimonials = "testimonials"
	PrefixSettings     = "settings"
	PrefixCVs          = "cvs"
)

// NewKey builds a unique key for an upload: prefix/YYYY/MM/<uuid8>-<name>.
// The key is stored on the owning record and used for later deletes.
func NewKey(prefix, filename string) string {
	return newKeyAt(prefix, filename, time.Now().UTC())
}

func newKeyAt(prefix, filename string, now time.Time) string {
	dateDir := fmt.Sprintf("%04d/%02d", now.Year(), now.Month())
	uniqueName := fmt.Sprintf("%s-%s", uuid.New().String()[:8], SanitizeFilename(filename))
	return path.Join(strings.Trim(prefix, "/"), dateDir, uniqueName)
}

// SanitizeFilename removes or replaces characters that could be problematic in keys.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.ToSlash(filename))
	if filename == "." || filename == "/" {
		filename = ""
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		// Truncate but keep a short extension.
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}

// LocalHandler serves files kept by a disk-backed store. Mount it at the
// store's base URL with the prefix stripped. Directories are not listed.
func LocalHandler(local *storage.Local) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		full, err := local.GetFullPath(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		st, err := os.Stat(full)
		if err != nil || st.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, full)
	})
}
