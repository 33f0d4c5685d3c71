package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetByEmailCaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"user_id", "username", "email", "password", "role", "created_at", "updated_at"}).
		AddRow(3, "jenny", "jenny@example.com", "$2a$hash", "user", now, now)
	mock.ExpectQuery("lower\\(email\\) = lower\\(\\$1\\)").
		WithArgs("JENNY@example.com").
		WillReturnRows(rows)

	u, err := repo.GetByEmail(context.Background(), "JENNY@example.com")
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if u.ID != 3 || u.Username != "jenny" {
		t.Fatalf("unexpected user %+v", u)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByUsernameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM users").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByUsername(context.Background(), "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserReturnsGeneratedFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("jenny", "jenny@example.com", "$2a$hash", "user").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at", "updated_at"}).AddRow(11, now, now))

	created, err := repo.Create(context.Background(), User{
		Username: "jenny",
		Email:    "jenny@example.com",
		Password: "$2a$hash",
		Role:     "user",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != 11 {
		t.Fatalf("expected generated id 11, got %d", created.ID)
	}
}
