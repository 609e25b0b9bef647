// Package respond writes JSON responses and maps apperr kinds to HTTP status.
//
// Error bodies have the shape
//
//	{"error": {"kind": "validation_failed", "message": "...", "fields": [...]}}
//
// Internal errors are logged with their cause; the body never carries it.
package respond

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/limits"
	"go.uber.org/zap"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidReference, apperr.KindValidationFailed:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    apperr.Kind         `json:"kind"`
	Message string              `json:"message"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with status 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// NoContent writes status 204.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Error renders err. Foreign errors are treated as internal.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	e := apperr.As(err)
	status := StatusFor(e.Kind)
	if status >= 500 && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	msg := e.Message
	if e.Kind == apperr.KindInternal {
		msg = "internal error"
	}
	JSON(w, status, errorBody{Error: errorDetail{Kind: e.Kind, Message: msg, Fields: e.Fields}})
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
// A malformed body is a ValidationFailed error on field "body".
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation([]apperr.FieldError{{Field: "body", Reason: "must be valid JSON: " + err.Error()}})
	}
	return nil
}
