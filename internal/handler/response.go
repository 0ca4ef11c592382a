package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/bookshelf/bookshelf-go/internal/middleware"
	"github.com/bookshelf/bookshelf-go/internal/service"
	"github.com/bookshelf/bookshelf-go/internal/validation"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func messageResponse(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// decodeJSON reads a JSON body into dst and writes the error response itself
// when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		if field := invalidField(body, dst); field != "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("%s has an invalid type", field),
				"field": field,
			})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// invalidField names the first top-level key of a well-formed JSON object
// whose value cannot be decoded into the matching field of dst. It returns ""
// when body is not an object or no single field is to blame.
func invalidField(body []byte, dst any) string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return ""
	}

	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		value, ok := raw[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, reflect.New(f.Type).Interface()); err != nil {
			return name
		}
	}
	return ""
}

// writeError maps service errors onto HTTP responses. Unexpected errors are
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, service.ErrBookNotFound),
		errors.Is(err, service.ErrTagNotFound),
		errors.Is(err, service.ErrCatalogNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrTagExists), errors.Is(err, service.ErrRegistrationFailed):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrSearchFailed):
		writeJSON(w, http.StatusInternalServerError, errorResponse(err.Error()))
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Internal server error"))
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name, label string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.NewError(name, "Invalid "+label+" ID")
	}
	return id, nil
}

// callerID returns the authenticated user's id. Routes using it sit behind
// middleware.Auth, so a missing identity is a wiring bug.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Authentication required"))
		return 0, false
	}
	return id.UserID, true
}
