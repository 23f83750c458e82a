package domain

import "errors"

// Sentinel errors for the report domain. Use errors.Is() to check these.
var (
	// ErrReportNotFound indicates the requested report does not exist, or is
	// not owned by the caller on owner-scoped operations. The two cases are
	// deliberately indistinguishable so existence of other users' reports
	// never leaks.
	ErrReportNotFound = errors.New("report not found")

	// ErrItemNotFound indicates the referenced item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrNoReports indicates the caller has no reports at all.
	ErrNoReports = errors.New("no reports found")

	// ErrCategoryNotFound indicates the item references an unknown category.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTooManyImages indicates an item would exceed the image limit.
	ErrTooManyImages = errors.New("too many images")

	// ErrInvalidReportType indicates the report type is not lost or found.
	ErrInvalidReportType = errors.New("invalid report type")

	// ErrInvalidReport indicates the report violates domain constraints.
	ErrInvalidReport = errors.New("invalid report")
)
