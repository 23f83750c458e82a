package models

import "fmt"

// ReportType is a value object for the lost/found discriminator.
type ReportType string

const (
	TypeLost  ReportType = "lost"
	TypeFound ReportType = "found"
)

// NewReportType constructs a valid ReportType or returns an error for any
// value other than "lost" or "found".
func NewReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case TypeLost, TypeFound:
		return ReportType(s), nil
	default:
		return "", fmt.Errorf("report type must be %q or %q, got %q", TypeLost, TypeFound, s)
	}
}

// String returns the underlying string value.
func (t ReportType) String() string {
	return string(t)
}
