package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/foundly/pkg/storage"
	reportdomain "github.com/ghuser/foundly/services/report/domain"
)

func TestWriteError_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ErrReportNotFound", reportdomain.ErrReportNotFound, http.StatusNotFound},
		{"ErrItemNotFound", reportdomain.ErrItemNotFound, http.StatusNotFound},
		{"ErrNoReports", reportdomain.ErrNoReports, http.StatusNotFound},
		{"ErrCategoryNotFound", reportdomain.ErrCategoryNotFound, http.StatusBadRequest},
		{"ErrTooManyImages", reportdomain.ErrTooManyImages, http.StatusBadRequest},
		{"storage ErrTooManyFiles", storage.ErrTooManyFiles, http.StatusBadRequest},
		{"ErrInvalidReportType", reportdomain.ErrInvalidReportType, http.StatusUnprocessableEntity},
		{"ErrInvalidReport", reportdomain.ErrInvalidReport, http.StatusUnprocessableEntity},
		{"wrapped ErrReportNotFound", fmt.Errorf("get report: %w", reportdomain.ErrReportNotFound), http.StatusNotFound},
		{"wrapped ErrInvalidReport", fmt.Errorf("%w: title is required", reportdomain.ErrInvalidReport), http.StatusUnprocessableEntity},
		{"unknown error", errors.New("something unexpected"), http.StatusInternalServerError},
		{"generic wrapped error", fmt.Errorf("context: %w", errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestWriteError_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, reportdomain.ErrReportNotFound)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if _, ok := body["error"]; !ok {
		t.Fatal("response body missing 'error' key")
	}
}

func TestWriteError_ContentType(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, reportdomain.ErrReportNotFound)

	ct := w.Header().Get("Content-Type")
	if ct == "" {
		t.Fatal("Content-Type header not set")
	}
}
