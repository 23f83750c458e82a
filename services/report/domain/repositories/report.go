package repositories

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ghuser/foundly/services/report/domain/models"
)

// ListParams contains pagination, search and sort parameters for report
// listings. Page and Limit are 1-based; values below 1 are floored by
// Normalize. Search is a case-insensitive substring match across the
// repository's searchable fields. SortBy must be one of the whitelisted
// columns; anything else falls back to created_at descending.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string // "ASC" or "DESC"; default DESC

	// Type optionally restricts the listing to lost or found reports.
	Type string
}

// Normalize floors Page/Limit to their minimums and upper-bounds Limit.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.SortOrder != "ASC" {
		p.SortOrder = "DESC"
	}
	return p
}

// Offset returns the row offset for the normalized page/limit.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of a listing plus navigation metadata.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	NextPage   *int `json:"next_page,omitempty"`
	PrevPage   *int `json:"prev_page,omitempty"`
}

// NewPage assembles a Page from a result slice and total count.
func NewPage[T any](items []T, total int, params ListParams) Page[T] {
	totalPages := (total + params.Limit - 1) / params.Limit
	page := Page[T]{
		Items:      items,
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
	if params.Page*params.Limit < total {
		next := params.Page + 1
		page.NextPage = &next
	}
	if params.Offset() > 0 {
		prev := params.Page - 1
		page.PrevPage = &prev
	}
	return page
}

// ItemRepository is the persistence interface for items. Methods taking a
// *sql.Tx run inside the caller's transaction; the repository never opens
// its own. Object-store I/O is the caller's concern, never the repository's.
type ItemRepository interface {
	Create(ctx context.Context, tx *sql.Tx, item *models.Item) error

	// GetByID retrieves an item with its category name joined.
	// Returns domain.ErrItemNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// Update merges patch into the item and appends newImages, enforcing the
	// MaxItemImages cap against the row's current image list. Returns
	// domain.ErrTooManyImages when the cap would be exceeded (item unchanged)
	// and domain.ErrItemNotFound when the id does not resolve.
	Update(ctx context.Context, tx *sql.Tx, id uuid.UUID, patch models.ItemPatch, newImages []models.Image) (*models.Item, error)

	// Delete removes the item and returns the deleted row, image handles
	// included, so the caller can purge them from the object store.
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Item, error)
}

// ReportRepository is the persistence interface for reports.
// All read methods return reports joined with their item (plus category name)
// and reporter identity.
type ReportRepository interface {
	Create(ctx context.Context, tx *sql.Tx, report *models.Report) error

	// GetByID retrieves any report. Returns domain.ErrReportNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)

	// GetOwned retrieves a report matching both id AND reporter. The compound
	// predicate is the ownership check: a non-owner read is indistinguishable
	// from a missing row. When tx is non-nil the row is locked FOR UPDATE.
	GetOwned(ctx context.Context, tx *sql.Tx, id, reporterID uuid.UUID) (*models.Report, error)

	// FindByReporter lists a user's reports in reverse-chronological order.
	FindByReporter(ctx context.Context, reporterID uuid.UUID) ([]*models.Report, error)

	// Update applies the report-level fields of patch, re-asserting the
	// (id, reporter_id) predicate in the UPDATE itself.
	Update(ctx context.Context, tx *sql.Tx, id, reporterID uuid.UUID, patch models.ReportPatch) error

	// Delete removes a report by id. Ownership must already be established.
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error

	// FindAll is the non-transactional listing path: filter + search + sort +
	// paginate. Returns the page slice and the total matching count.
	FindAll(ctx context.Context, params ListParams) ([]*models.Report, int, error)
}
