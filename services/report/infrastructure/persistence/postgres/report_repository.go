package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/foundly/pkg/database"
	reportdomain "github.com/ghuser/foundly/services/report/domain"
	"github.com/ghuser/foundly/services/report/domain/models"
	"github.com/ghuser/foundly/services/report/domain/repositories"
)

// reportColumns is the joined projection every read path returns: the report
// row plus its item (with category name) and reporter identity.
const reportColumns = `
	r.id, r.title, r.type, r.location, r.date, r.contact_info, r.reward,
	r.reporter_id, r.item_id, r.created_at, r.updated_at,
	i.id, i.name, i.description, i.category_id, c.name,
	i.brand, i.color, i.unique_marks, i.images, i.created_at, i.updated_at,
	u.id, u.name, u.email`

const reportJoins = `
	FROM reports r
	JOIN items i ON i.id = r.item_id
	JOIN categories c ON c.id = i.category_id
	JOIN users u ON u.id = r.reporter_id`

// ReportRepository implements repositories.ReportRepository against PostgreSQL.
type ReportRepository struct {
	db *database.Database
}

// NewReportRepository returns a ReportRepository backed by the given pool.
func NewReportRepository(db *database.Database) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db.DB()
}

// Create persists a new Report row.
func (r *ReportRepository) Create(ctx context.Context, tx *sql.Tx, report *models.Report) error {
	_, err := r.q(tx).ExecContext(ctx, `
		INSERT INTO reports (id, title, type, location, date, contact_info, reward, reporter_id, item_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		report.ID, report.Title, report.Type.String(), report.Location, report.Date,
		report.ContactInfo, nullString(report.Reward), report.ReporterID, report.ItemID,
		report.CreatedAt, report.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("%w: reporter or item reference does not resolve", reportdomain.ErrReportNotFound)
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetByID retrieves any report, fully joined. Returns ErrReportNotFound when absent.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT`+reportColumns+reportJoins+` WHERE r.id = $1`, id)
	return r.one(row)
}

// GetOwned retrieves a report matching both id AND reporter_id in a single
// compound predicate — the ownership check itself. A non-owner lookup is
// indistinguishable from a missing row. Inside a transaction the report row
// is locked FOR UPDATE so concurrent owner mutations serialize.
func (r *ReportRepository) GetOwned(ctx context.Context, tx *sql.Tx, id, reporterID uuid.UUID) (*models.Report, error) {
	query := `SELECT` + reportColumns + reportJoins + ` WHERE r.id = $1 AND r.reporter_id = $2`
	if tx != nil {
		query += " FOR UPDATE OF r"
	}
	return r.one(r.q(tx).QueryRowContext(ctx, query, id, reporterID))
}

// FindByReporter lists a user's reports, newest first, fully joined.
func (r *ReportRepository) FindByReporter(ctx context.Context, reporterID uuid.UUID) ([]*models.Report, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT`+reportColumns+reportJoins+` WHERE r.reporter_id = $1 ORDER BY r.created_at DESC`, reporterID)
	if err != nil {
		return nil, fmt.Errorf("query reports by reporter: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return r.collect(rows)
}

// Update applies the report-level fields of patch. The UPDATE re-asserts the
// (id, reporter_id) predicate so ownership cannot change between the caller's
// check and this write. Returns ErrReportNotFound when no row matched.
func (r *ReportRepository) Update(ctx context.Context, tx *sql.Tx, id, reporterID uuid.UUID, patch models.ReportPatch) error {
	res, err := r.q(tx).ExecContext(ctx, `
		UPDATE reports
		SET title        = COALESCE($3, title),
		    type         = COALESCE($4, type),
		    location     = COALESCE($5, location),
		    date         = COALESCE($6, date),
		    contact_info = COALESCE($7, contact_info),
		    reward       = COALESCE($8, reward),
		    updated_at   = now()
		WHERE id = $1 AND reporter_id = $2`,
		id, reporterID,
		patch.Title, reportTypeArg(patch.Type), patch.Location, patch.Date,
		patch.ContactInfo, patch.Reward,
	)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report rows affected: %w", err)
	}
	if n == 0 {
		return reportdomain.ErrReportNotFound
	}
	return nil
}

// Delete removes a report by id. Returns ErrReportNotFound when absent.
func (r *ReportRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report rows affected: %w", err)
	}
	if n == 0 {
		return reportdomain.ErrReportNotFound
	}
	return nil
}

// searchable fields and sortable columns for FindAll. SortBy values outside
// the whitelist fall back to created_at, which also blocks SQL injection
// through the sort parameter.
var (
	searchableFields = []string{"r.title", "r.location"}

	sortableColumns = map[string]string{
		"created_at": "r.created_at",
		"date":       "r.date",
		"title":      "r.title",
	}
)

// FindAll is the public/admin listing path: optional type filter, optional
// case-insensitive substring search across title and location, whitelisted
// sort, limit/offset pagination. Returns the page slice and total count.
func (r *ReportRepository) FindAll(ctx context.Context, params repositories.ListParams) ([]*models.Report, int, error) {
	params = params.Normalize()

	where := "WHERE true"
	args := []any{}

	if params.Type != "" {
		args = append(args, params.Type)
		where += fmt.Sprintf(" AND r.type = $%d", len(args))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (%s ILIKE $%d OR %s ILIKE $%d)",
			searchableFields[0], n, searchableFields[1], n)
	}

	var total int
	countQuery := "SELECT count(*) FROM reports r " + where
	if err := r.db.DB().QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	sortCol, ok := sortableColumns[params.SortBy]
	if !ok {
		sortCol = "r.created_at"
	}
	order := "DESC"
	if params.SortOrder == "ASC" {
		order = "ASC"
	}

	args = append(args, params.Limit, params.Offset())
	query := fmt.Sprintf("SELECT%s%s %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		reportColumns, reportJoins, where, sortCol, order, len(args)-1, len(args))

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	reports, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *ReportRepository) one(row *sql.Row) (*models.Report, error) {
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reportdomain.ErrReportNotFound
		}
		return nil, fmt.Errorf("query report: %w", err)
	}
	return report, nil
}

func (r *ReportRepository) collect(rows *sql.Rows) ([]*models.Report, error) {
	var reports []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return reports, nil
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		report   models.Report
		item     models.Item
		reporter models.Reporter

		typ    string
		reward sql.NullString
		brand  sql.NullString
		color  sql.NullString
		marks  sql.NullString
		images []byte
	)

	err := row.Scan(
		&report.ID, &report.Title, &typ, &report.Location, &report.Date,
		&report.ContactInfo, &reward, &report.ReporterID, &report.ItemID,
		&report.CreatedAt, &report.UpdatedAt,
		&item.ID, &item.Name, &item.Description, &item.CategoryID, &item.CategoryName,
		&brand, &color, &marks, &images, &item.CreatedAt, &item.UpdatedAt,
		&reporter.ID, &reporter.Name, &reporter.Email,
	)
	if err != nil {
		return nil, err
	}

	report.Type = models.ReportType(typ)
	report.Reward = reward.String
	item.Brand = brand.String
	item.Color = color.String
	item.UniqueMarks = marks.String
	if err := json.Unmarshal(images, &item.Images); err != nil {
		return nil, fmt.Errorf("unmarshal item images: %w", err)
	}

	report.Item = &item
	report.Reporter = &reporter
	return &report, nil
}

// reportTypeArg converts an optional ReportType to a driver-friendly *string.
func reportTypeArg(t *models.ReportType) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}
