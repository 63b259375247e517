// internal/app/features/shared/shared.go
//
// Package shared holds request helpers used by every JSON feature handler.
package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/saga"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// IDParam parses the {id} route parameter. On failure it writes a 400 and
// returns false.
func IDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	return Param(w, r, "id")
}

// Param parses the named route parameter as an ObjectID.
func Param(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := validate.ObjectID(name, chi.URLParam(r, name))
	if err != nil {
		respond.BadRequest(w, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// StoreError answers a failed store call: 404 for docstore.ErrNotFound,
// 500 (logged) for anything else.
func StoreError(w http.ResponseWriter, r *http.Request, log *zap.Logger, what string, err error, fields ...zap.Field) {
	if errors.Is(err, docstore.ErrNotFound) {
		respond.NotFound(w, what)
		return
	}
	respond.Internal(w, r, log, what+" store call failed", err, fields...)
}

// ActorName is the display name of the signed-in admin, or "".
func ActorName(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		if u.Name != "" {
			return u.Name
		}
		return u.Email
	}
	return ""
}

// DeleteFiles removes keys best-effort after the owning record changed.
// Missing files are ignored; other failures leave an orphan and are logged.
func DeleteFiles(ctx context.Context, fs storage.Store, log *zap.Logger, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := fs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Warn("orphaned file left in storage", zap.String("key", key), zap.Error(err))
		}
	}
}

// RemoveFiles deletes keys that a record is about to lose. Missing files are
// ignored; the first other failure stops and is returned so the caller can
// keep the record pointing at what is still stored.
func RemoveFiles(ctx context.Context, fs storage.Store, keys ...string) error {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := fs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// UploadError answers a failed multipart read: 400 for bad input, 500
// (logged) otherwise.
func UploadError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if upload.IsClientError(err) {
		respond.BadRequest(w, err)
		return
	}
	respond.Internal(w, r, log, "read upload failed", err)
}

// FormBool reads a checkbox-style form value. Missing means def.
func FormBool(r *http.Request, name string, def bool) bool {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v == "on"
	}
	return b
}

// FormInt reads an integer form value. Missing means 0.
func FormInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, validate.Errors{name: "must be a whole number"}
	}
	return n, nil
}

// FormTime reads an RFC 3339 timestamp or a YYYY-MM-DD date. Missing means nil.
func FormTime(r *http.Request, name string) (*time.Time, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, validate.Errors{name: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}
}

// ReplaceFile uploads f under prefix and points a record at it through set,
// which returns the key the record held before. When set fails the new file
// is removed; when it succeeds the old file is removed best-effort.
func ReplaceFile(
	ctx context.Context,
	fs storage.Store,
	log *zap.Logger,
	name, prefix string,
	f *upload.File,
	set func(ctx context.Context, key, url string) (oldKey string, err error),
) (key, url string, err error) {
	sg := saga.New(name, log)
	key, url, err = upload.Put(ctx, fs, sg, prefix, f)
	if err != nil {
		return "", "", err
	}
	oldKey, err := set(ctx, key, url)
	if err != nil {
		return "", "", sg.Fail(ctx, err)
	}
	DeleteFiles(ctx, fs, log, oldKey)
	return key, url, nil
}
