package account

import (
	"context"
	"database/sql"
	"errors"

	"rollbook/internal/store"
)

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user. A duplicate email surfaces as ErrDuplicateEmail.
func (r *Repository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password, class_name, role)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Email, u.Password, u.ClassName, u.Role)
	if store.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// UserByEmail returns the user with the given email.
func (r *Repository) UserByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password, class_name, role, created_at
		FROM users WHERE email = $1
	`, email)
	return scanUser(row)
}

// UpdateClassName sets the class label and returns the updated user.
func (r *Repository) UpdateClassName(ctx context.Context, userID, className string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET class_name = $2 WHERE id = $1
		RETURNING id, email, password, class_name, role, created_at
	`, userID, className)
	return scanUser(row)
}

// Teachers lists every user with the teacher role, ordered by email for
// stable sheet output.
func (r *Repository) Teachers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, password, class_name, role, created_at
		FROM users WHERE role = 'teacher'
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.ClassName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.ClassName, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
