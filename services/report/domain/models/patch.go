package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemPatch is a partial update of an item. Nil fields are left unchanged.
type ItemPatch struct {
	Name        *string
	Description *string
	CategoryID  *uuid.UUID
	Brand       *string
	Color       *string
	UniqueMarks *string
}

// IsZero reports whether the patch changes nothing.
func (p ItemPatch) IsZero() bool {
	return p.Name == nil && p.Description == nil && p.CategoryID == nil &&
		p.Brand == nil && p.Color == nil && p.UniqueMarks == nil
}

// ReportPatch is a partial update of a report's own fields plus an optional
// patch of the owned item. Reporter and item references are never patchable.
type ReportPatch struct {
	Title       *string
	Type        *ReportType
	Location    *string
	Date        *time.Time
	ContactInfo *string
	Reward      *string

	Item *ItemPatch
}

// IsZero reports whether the patch changes no report-level field.
func (p ReportPatch) IsZero() bool {
	return p.Title == nil && p.Type == nil && p.Location == nil &&
		p.Date == nil && p.ContactInfo == nil && p.Reward == nil
}
