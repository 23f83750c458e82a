// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/foundly/pkg/httpx"
	"github.com/ghuser/foundly/pkg/storage"
	reportdomain "github.com/ghuser/foundly/services/report/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors.
func WriteError(w http.ResponseWriter, err error) {
	httpx.JSONError(w, mapErrorToStatus(err), err.Error())
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, reportdomain.ErrReportNotFound),
		errors.Is(err, reportdomain.ErrItemNotFound),
		errors.Is(err, reportdomain.ErrNoReports):
		return http.StatusNotFound // 404
	case errors.Is(err, reportdomain.ErrCategoryNotFound),
		errors.Is(err, reportdomain.ErrTooManyImages),
		errors.Is(err, storage.ErrTooManyFiles):
		return http.StatusBadRequest // 400
	case errors.Is(err, reportdomain.ErrInvalidReportType),
		errors.Is(err, reportdomain.ErrInvalidReport):
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}
