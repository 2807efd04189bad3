package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// CategoryStore implements ports.CategoryStore using SQLite.
type CategoryStore struct {
	db *DB
}

// NewCategoryStore creates a new SQLite category store.
func NewCategoryStore(db *DB) *CategoryStore {
	return &CategoryStore{db: db}
}

var _ ports.CategoryStore = (*CategoryStore)(nil)

// Get retrieves a category by ID, scoped to its owner.
func (s *CategoryStore) Get(ctx context.Context, ownerID, id string) (finance.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, type, color, icon, created_at
		FROM categories
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	return scanCategory(row)
}

// ListByOwner returns all of a user's categories.
func (s *CategoryStore) ListByOwner(ctx context.Context, ownerID string) ([]finance.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, type, color, icon, created_at
		FROM categories
		WHERE owner_id = ?
		ORDER BY name
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []finance.Category
	for rows.Next() {
		var c finance.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Type, &c.Color, &c.Icon, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Create stores a new category.
func (s *CategoryStore) Create(ctx context.Context, c finance.Category) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, owner_id, name, type, color, icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.OwnerID, c.Name, string(c.Type), c.Color, c.Icon, c.CreatedAt)

	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// Update modifies a category.
func (s *CategoryStore) Update(ctx context.Context, c finance.Category) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, type = ?, color = ?, icon = ?
		WHERE id = ? AND owner_id = ?
	`, c.Name, string(c.Type), c.Color, c.Icon, c.ID, c.OwnerID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a category. Referencing transactions and purchases keep
// a null category through the schema's ON DELETE SET NULL.
func (s *CategoryStore) Delete(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM categories WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOrCreate returns the category with the given name, inserting it if
// absent. The (owner, name) unique constraint makes concurrent calls
// converge on a single row.
func (s *CategoryStore) GetOrCreate(ctx context.Context, c finance.Category) (finance.Category, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, owner_id, name, type, color, icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, name) DO NOTHING
	`, c.ID, c.OwnerID, c.Name, string(c.Type), c.Color, c.Icon, c.CreatedAt)
	if err != nil {
		return finance.Category{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, type, color, icon, created_at
		FROM categories
		WHERE owner_id = ? AND name = ?
	`, c.OwnerID, c.Name)
	return scanCategory(row)
}

func scanCategory(row *sql.Row) (finance.Category, error) {
	var c finance.Category
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Type, &c.Color, &c.Icon, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Category{}, ErrNotFound
	}
	if err != nil {
		return finance.Category{}, err
	}
	return c, nil
}
