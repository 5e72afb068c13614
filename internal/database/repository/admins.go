package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Admin is an account allowed to log in to the API.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminRepo handles admins.
type AdminRepo struct {
	db *sql.DB
}

func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

func (r *AdminRepo) Upsert(ctx context.Context, a Admin) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO admins(id, email, password_hash, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(email) DO UPDATE SET
	 password_hash=excluded.password_hash;
	`, a.ID, a.Email, a.PasswordHash, a.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *AdminRepo) ByEmail(ctx context.Context, email string) (Admin, error) {
	var a Admin
	var created string
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Admin{}, fmt.Errorf("%w: admin %s", ErrNotFound, email)
	}
	if err != nil {
		return Admin{}, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return a, nil
}
