package category

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	categoryColumns = `category_id, name, description, image_url, image_asset_id, slug, is_active, sort_order, created_at, updated_at`

	listCategoriesQuery = `
		SELECT ` + categoryColumns + `
		FROM categories
		ORDER BY sort_order ASC, created_at DESC
	`
	listActiveCategoriesQuery = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE is_active = TRUE
		ORDER BY sort_order ASC, created_at DESC
	`
	getCategoryByIDQuery = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE category_id = $1
	`
	getCategoryBySlugQuery = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE slug = $1
	`
	categoryTakenQuery = `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE (name = $1 OR slug = $2) AND category_id <> $3
		)
	`
	insertCategoryQuery = `
		INSERT INTO categories (name, description, image_url, image_asset_id, slug, is_active, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING category_id, created_at, updated_at
	`
	updateCategoryQuery = `
		UPDATE categories
		SET name = $1,
			description = $2,
			image_url = $3,
			image_asset_id = $4,
			slug = $5,
			is_active = $6,
			sort_order = $7,
			updated_at = now()
		WHERE category_id = $8
	`
	deleteCategoryQuery = `DELETE FROM categories WHERE category_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := listCategoriesQuery
	if activeOnly {
		query = listActiveCategoriesQuery
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, getCategoryByIDQuery, id))
	if err == sql.ErrNoRows {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, getCategoryBySlugQuery, slug))
	if err == sql.ErrNoRows {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepository) NameOrSlugTaken(ctx context.Context, name, slug string, excludeID int) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, categoryTakenQuery, name, slug, excludeID).Scan(&taken)
	return taken, err
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	err := r.db.QueryRowContext(
		ctx,
		insertCategoryQuery,
		c.Name,
		c.Description,
		c.Image.URL,
		c.Image.AssetID,
		c.Slug,
		c.IsActive,
		c.SortOrder,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, c Category) (Category, error) {
	result, err := r.db.ExecContext(
		ctx,
		updateCategoryQuery,
		c.Name,
		c.Description,
		c.Image.URL,
		c.Image.AssetID,
		c.Slug,
		c.IsActive,
		c.SortOrder,
		id,
	)
	if err != nil {
		return Category{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Category{}, err
	}
	if affected == 0 {
		return Category{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(scanner rowScanner) (Category, error) {
	var c Category
	if err := scanner.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Image.URL,
		&c.Image.AssetID,
		&c.Slug,
		&c.IsActive,
		&c.SortOrder,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Category{}, err
	}
	return c, nil
}
