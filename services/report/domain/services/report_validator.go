// Package services contains stateless domain services for the report bounded
// context. Domain services enforce business rules that operate purely on
// domain types and have zero external dependencies beyond stdlib and the
// domain layer.
package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/ghuser/foundly/services/report/domain/models"
)

// maxEventDateSkew bounds how far in the future a user-supplied event date
// may lie, tolerating client clock drift without accepting nonsense dates.
const maxEventDateSkew = 24 * time.Hour

// ValidateTitle enforces business rules for report titles beyond the
// structural checks in the Report constructor.
//
// Business rules:
//   - No leading or trailing whitespace
//   - No control characters (Unicode category Cc)
//   - Must not be only whitespace characters
func ValidateTitle(title string) error {
	if title != strings.TrimSpace(title) {
		return fmt.Errorf("report title must not have leading or trailing whitespace")
	}

	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("report title must not be only whitespace")
	}

	for _, r := range title {
		if unicode.IsControl(r) {
			return fmt.Errorf("report title must not contain control characters")
		}
	}

	return nil
}

// ValidateReportForCreation performs cross-field validation on a fully
// constructed Report aggregate before it is persisted. It assumes the Report
// was built via models.NewReport (so structural constraints hold) and adds
// business-level checks spanning multiple fields.
func ValidateReportForCreation(report *models.Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if err := ValidateTitle(report.Title); err != nil {
		return fmt.Errorf("invalid title: %w", err)
	}

	if _, err := models.NewReportType(report.Type.String()); err != nil {
		return err
	}

	if report.Date.After(time.Now().Add(maxEventDateSkew)) {
		return fmt.Errorf("report date must not be in the future")
	}

	if report.ReporterID == uuid.Nil {
		return fmt.Errorf("reporter must be set")
	}

	if report.ItemID == uuid.Nil {
		return fmt.Errorf("item must be set")
	}

	return nil
}
