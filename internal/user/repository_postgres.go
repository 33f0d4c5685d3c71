package user

import (
	"context"
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	userColumns = `user_id, username, email, password, role, created_at, updated_at`

	getUserByIDQuery       = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	getUserByEmailQuery    = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	getUserByUsernameQuery = `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	insertUserQuery        = `
		INSERT INTO users (username, email, password, role)
		VALUES ($1,$2,$3,$4)
		RETURNING user_id, created_at, updated_at
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.get(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.get(ctx, getUserByEmailQuery, email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.get(ctx, getUserByUsernameQuery, username)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg any) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Password,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	err := r.db.QueryRowContext(
		ctx,
		insertUserQuery,
		u.Username,
		u.Email,
		u.Password,
		u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}
