package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		body   string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "Invalid ID", nil) }, http.StatusBadRequest, "Invalid ID"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "Match not found", errors.New("no rows")) }, http.StatusNotFound, "Match not found"},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "Not yours", nil) }, http.StatusForbidden, "Not yours"},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "Taken", nil) }, http.StatusConflict, "Taken"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom", errors.New("db down")) }, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, strings.TrimSpace(rec.Body.String()))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusNotFound, "tournament not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"tournament not found"}`, rec.Body.String())
}
