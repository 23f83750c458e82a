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
)

const pgForeignKeyViolation = "23503"

// querier is the subset of *sql.DB / *sql.Tx the repositories need, so every
// method can run either on the pool or inside a caller-owned transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
// It performs no object-store I/O: image upload and deletion belong to the
// caller, keeping storage I/O decoupled from persistence I/O.
type ItemRepository struct {
	db *database.Database
}

// NewItemRepository returns an ItemRepository backed by the given pool.
func NewItemRepository(db *database.Database) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db.DB()
}

// Create persists a new Item. An unknown category surfaces as
// domain.ErrCategoryNotFound via the foreign key violation.
func (r *ItemRepository) Create(ctx context.Context, tx *sql.Tx, item *models.Item) error {
	images, err := json.Marshal(item.Images)
	if err != nil {
		return fmt.Errorf("marshal item images: %w", err)
	}

	_, err = r.q(tx).ExecContext(ctx, `
		INSERT INTO items (id, name, description, category_id, brand, color, unique_marks, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.Name, item.Description, item.CategoryID,
		nullString(item.Brand), nullString(item.Color), nullString(item.UniqueMarks),
		images, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return reportdomain.ErrCategoryNotFound
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID retrieves an item with its category name joined.
// Returns ErrItemNotFound when absent.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return r.get(ctx, r.db.DB(), id, false)
}

// Update merges patch into the item and appends newImages. The row is locked
// FOR UPDATE for the duration of the transaction so the image-cap check and
// the write are a single unit; exceeding models.MaxItemImages fails with
// ErrTooManyImages and leaves the row untouched.
func (r *ItemRepository) Update(ctx context.Context, tx *sql.Tx, id uuid.UUID, patch models.ItemPatch, newImages []models.Image) (*models.Item, error) {
	item, err := r.get(ctx, r.q(tx), id, tx != nil)
	if err != nil {
		return nil, err
	}

	if !item.CanAddImages(len(newImages)) {
		return nil, fmt.Errorf("%w: item has %d images, adding %d exceeds the limit of %d",
			reportdomain.ErrTooManyImages, len(item.Images), len(newImages), models.MaxItemImages)
	}

	applyItemPatch(item, patch)
	item.Images = append(item.Images, newImages...)

	images, err := json.Marshal(item.Images)
	if err != nil {
		return nil, fmt.Errorf("marshal item images: %w", err)
	}

	_, err = r.q(tx).ExecContext(ctx, `
		UPDATE items
		SET name = $2, description = $3, category_id = $4, brand = $5, color = $6,
		    unique_marks = $7, images = $8, updated_at = now()
		WHERE id = $1`,
		item.ID, item.Name, item.Description, item.CategoryID,
		nullString(item.Brand), nullString(item.Color), nullString(item.UniqueMarks), images,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, reportdomain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	return r.get(ctx, r.q(tx), id, false)
}

// Delete removes the item and returns the deleted row so the caller can purge
// its image handles from the object store. Returns ErrItemNotFound when absent.
func (r *ItemRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Item, error) {
	item, err := r.get(ctx, r.q(tx), id, tx != nil)
	if err != nil {
		return nil, err
	}

	if _, err := r.q(tx).ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) get(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*models.Item, error) {
	query := `
		SELECT i.id, i.name, i.description, i.category_id, c.name,
		       i.brand, i.color, i.unique_marks, i.images, i.created_at, i.updated_at
		FROM items i
		JOIN categories c ON c.id = i.category_id
		WHERE i.id = $1`
	if forUpdate {
		query += " FOR UPDATE OF i"
	}

	item, err := scanItem(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reportdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item   models.Item
		brand  sql.NullString
		color  sql.NullString
		marks  sql.NullString
		images []byte
	)
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.CategoryID, &item.CategoryName,
		&brand, &color, &marks, &images, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Brand = brand.String
	item.Color = color.String
	item.UniqueMarks = marks.String
	if err := json.Unmarshal(images, &item.Images); err != nil {
		return nil, fmt.Errorf("unmarshal item images: %w", err)
	}
	return &item, nil
}

func applyItemPatch(item *models.Item, patch models.ItemPatch) {
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		item.CategoryID = *patch.CategoryID
	}
	if patch.Brand != nil {
		item.Brand = *patch.Brand
	}
	if patch.Color != nil {
		item.Color = *patch.Color
	}
	if patch.UniqueMarks != nil {
		item.UniqueMarks = *patch.UniqueMarks
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
