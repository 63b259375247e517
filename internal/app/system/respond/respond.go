// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) {
	JSON(w, http.StatusCreated, v)
}

// NoContent writes 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes {"error": msg} with status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// BadRequest writes a 400. Validation errors include per-field messages.
func BadRequest(w http.ResponseWriter, err error) {
	var verr validate.Errors
	if errors.As(err, &verr) {
		JSON(w, http.StatusBadRequest, ErrorBody{Error: "validation failed", Fields: verr})
		return
	}
	Error(w, http.StatusBadRequest, err.Error())
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, what string) {
	Error(w, http.StatusNotFound, what+" not found")
}

// Internal logs err once with the request path and writes a generic 500.
func Internal(w http.ResponseWriter, r *http.Request, log *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.String("path", r.URL.Path))
	log.Error(msg, fields...)
	Error(w, http.StatusInternalServerError, "internal server error")
}
