package dress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	dressColumns = `dress_id, name, description, category_id, images, price_original, price_discounted,
		sizes, colors, material, care_instructions, tags, sku, is_active, is_featured, sort_order,
		contact_number, contact_message_template, views, rating_average, rating_count, created_at, updated_at`

	getDressByIDQuery = `
		SELECT ` + dressColumns + `
		FROM dresses
		WHERE dress_id = $1
	`
	getActiveDressByIDQuery = `
		SELECT ` + dressColumns + `
		FROM dresses
		WHERE dress_id = $1 AND is_active = TRUE
	`
	featuredDressesQuery = `
		SELECT ` + dressColumns + `
		FROM dresses
		WHERE is_active = TRUE AND is_featured = TRUE
		ORDER BY sort_order ASC, created_at DESC
		LIMIT $1
	`
	// An empty sku argument falls through to the running sequence.
	insertDressQuery = `
		INSERT INTO dresses (name, description, category_id, images, price_original, price_discounted,
			sizes, colors, material, care_instructions, tags, sku, is_active, is_featured, sort_order,
			contact_number, contact_message_template, rating_average, rating_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,
			COALESCE(NULLIF($12,''), 'DRESS' || lpad(nextval('dress_sku_seq')::text, 6, '0')),
			$13,$14,$15,$16,$17,$18,$19)
		RETURNING dress_id, sku, views, created_at, updated_at
	`
	updateDressQuery = `
		UPDATE dresses
		SET name = $1,
			description = $2,
			category_id = $3,
			images = $4,
			price_original = $5,
			price_discounted = $6,
			sizes = $7,
			colors = $8,
			material = $9,
			care_instructions = $10,
			tags = $11,
			is_active = $12,
			is_featured = $13,
			sort_order = $14,
			contact_number = $15,
			contact_message_template = $16,
			rating_average = $17,
			rating_count = $18,
			updated_at = now()
		WHERE dress_id = $19
	`
	deleteDressQuery         = `DELETE FROM dresses WHERE dress_id = $1`
	incrementDressViewsQuery = `UPDATE dresses SET views = views + 1 WHERE dress_id = $1`
	countByCategoryQuery     = `SELECT COUNT(*) FROM dresses WHERE category_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// buildWhere assembles the filter into a WHERE clause with positional args.
func buildWhere(f Filter) (string, []any) {
	var clause strings.Builder
	args := []any{}
	argPos := 1

	clause.WriteString(" WHERE 1=1")
	if f.ActiveOnly {
		clause.WriteString(" AND is_active = TRUE")
	}
	if f.CategoryID != nil {
		clause.WriteString(fmt.Sprintf(" AND category_id = $%d", argPos))
		args = append(args, *f.CategoryID)
		argPos++
	}
	if f.Featured != nil {
		clause.WriteString(fmt.Sprintf(" AND is_featured = $%d", argPos))
		args = append(args, *f.Featured)
		argPos++
	}
	if f.Size != "" {
		needle, _ := json.Marshal([]map[string]string{{"size": f.Size}})
		clause.WriteString(fmt.Sprintf(" AND sizes @> $%d::jsonb", argPos))
		args = append(args, string(needle))
		argPos++
	}
	if f.Color != "" {
		clause.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM jsonb_array_elements(colors) col WHERE col->>'name' ILIKE $%d)", argPos))
		args = append(args, "%"+f.Color+"%")
		argPos++
	}
	if f.Material != "" {
		clause.WriteString(fmt.Sprintf(" AND material ILIKE $%d", argPos))
		args = append(args, "%"+f.Material+"%")
		argPos++
	}
	if f.MinPrice != nil {
		clause.WriteString(fmt.Sprintf(" AND price_original >= $%d", argPos))
		args = append(args, *f.MinPrice)
		argPos++
	}
	if f.MaxPrice != nil {
		clause.WriteString(fmt.Sprintf(" AND price_original <= $%d", argPos))
		args = append(args, *f.MaxPrice)
		argPos++
	}
	if f.Query != "" {
		clause.WriteString(fmt.Sprintf(
			" AND (name ILIKE $%d OR description ILIKE $%d OR material ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) tag WHERE tag ILIKE $%d))",
			argPos, argPos, argPos, argPos))
		args = append(args, "%"+f.Query+"%")
		argPos++
	}
	return clause.String(), args
}

func orderClause(s Sort) string {
	switch s {
	case SortOldest:
		return " ORDER BY created_at ASC, dress_id ASC"
	case SortPriceAsc:
		return " ORDER BY COALESCE(price_discounted, price_original) ASC, dress_id ASC"
	case SortPriceDesc:
		return " ORDER BY COALESCE(price_discounted, price_original) DESC, dress_id ASC"
	case SortNameAsc:
		return " ORDER BY name ASC, dress_id ASC"
	case SortNameDesc:
		return " ORDER BY name DESC, dress_id ASC"
	case SortFeatured:
		return " ORDER BY is_featured DESC, sort_order ASC, created_at DESC"
	default:
		return " ORDER BY created_at DESC, dress_id DESC"
	}
}

func (r *PostgresRepository) List(ctx context.Context, f Filter, s Sort, page, pageSize int) ([]Dress, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dresses"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + dressColumns + " FROM dresses" + where + orderClause(s) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Dress, 0)
	for rows.Next() {
		d, err := scanDress(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepository) Featured(ctx context.Context, limit int) ([]Dress, error) {
	rows, err := r.db.QueryContext(ctx, featuredDressesQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Dress, 0)
	for rows.Next() {
		d, err := scanDress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int, activeOnly bool) (Dress, error) {
	query := getDressByIDQuery
	if activeOnly {
		query = getActiveDressByIDQuery
	}
	d, err := scanDress(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return Dress{}, ErrNotFound
	}
	return d, err
}

func (r *PostgresRepository) Create(ctx context.Context, d Dress) (Dress, error) {
	images, sizes, colors, err := marshalSets(d)
	if err != nil {
		return Dress{}, err
	}

	err = r.db.QueryRowContext(
		ctx,
		insertDressQuery,
		d.Name,
		d.Description,
		d.CategoryID,
		images,
		d.Price.Original,
		discountedArg(d.Price),
		sizes,
		colors,
		d.Material,
		d.CareInstructions,
		pq.Array(d.Tags),
		d.SKU,
		d.IsActive,
		d.IsFeatured,
		d.SortOrder,
		d.ContactNumber,
		d.ContactMessageTemplate,
		d.Rating.Average,
		d.Rating.Count,
	).Scan(&d.ID, &d.SKU, &d.Views, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Dress{}, ErrSKUTaken
		}
		return Dress{}, fmt.Errorf("insert dress: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, d Dress) (Dress, error) {
	images, sizes, colors, err := marshalSets(d)
	if err != nil {
		return Dress{}, err
	}

	result, err := r.db.ExecContext(
		ctx,
		updateDressQuery,
		d.Name,
		d.Description,
		d.CategoryID,
		images,
		d.Price.Original,
		discountedArg(d.Price),
		sizes,
		colors,
		d.Material,
		d.CareInstructions,
		pq.Array(d.Tags),
		d.IsActive,
		d.IsFeatured,
		d.SortOrder,
		d.ContactNumber,
		d.ContactMessageTemplate,
		d.Rating.Average,
		d.Rating.Count,
		id,
	)
	if err != nil {
		return Dress{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Dress{}, err
	}
	if affected == 0 {
		return Dress{}, ErrNotFound
	}
	return r.GetByID(ctx, id, false)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteDressQuery, id)
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

func (r *PostgresRepository) IncrementViews(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, incrementDressViewsQuery, id)
	return err
}

func (r *PostgresRepository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, countByCategoryQuery, categoryID).Scan(&count)
	return count, err
}

func marshalSets(d Dress) (images, sizes, colors []byte, err error) {
	if images, err = json.Marshal(d.Images); err != nil {
		return nil, nil, nil, err
	}
	if d.Sizes == nil {
		d.Sizes = []SizeOption{}
	}
	if sizes, err = json.Marshal(d.Sizes); err != nil {
		return nil, nil, nil, err
	}
	if d.Colors == nil {
		d.Colors = []ColorOption{}
	}
	if colors, err = json.Marshal(d.Colors); err != nil {
		return nil, nil, nil, err
	}
	return images, sizes, colors, nil
}

func discountedArg(p Price) any {
	if p.Discounted == nil {
		return nil
	}
	return *p.Discounted
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDress(scanner rowScanner) (Dress, error) {
	var (
		d          Dress
		images     []byte
		sizes      []byte
		colors     []byte
		discounted sql.NullInt64
		tags       pq.StringArray
	)
	if err := scanner.Scan(
		&d.ID,
		&d.Name,
		&d.Description,
		&d.CategoryID,
		&images,
		&d.Price.Original,
		&discounted,
		&sizes,
		&colors,
		&d.Material,
		&d.CareInstructions,
		&tags,
		&d.SKU,
		&d.IsActive,
		&d.IsFeatured,
		&d.SortOrder,
		&d.ContactNumber,
		&d.ContactMessageTemplate,
		&d.Views,
		&d.Rating.Average,
		&d.Rating.Count,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return Dress{}, err
	}

	if err := json.Unmarshal(images, &d.Images); err != nil {
		return Dress{}, fmt.Errorf("decode images: %w", err)
	}
	if err := json.Unmarshal(sizes, &d.Sizes); err != nil {
		return Dress{}, fmt.Errorf("decode sizes: %w", err)
	}
	if err := json.Unmarshal(colors, &d.Colors); err != nil {
		return Dress{}, fmt.Errorf("decode colors: %w", err)
	}
	if discounted.Valid {
		v := int(discounted.Int64)
		d.Price.Discounted = &v
	}
	d.Tags = []string(tags)
	return d, nil
}
