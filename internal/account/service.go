package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rollbook/internal/auth"
)

// User is a registered account. Teachers own rosters; the other roles exist
// to read aggregated attendance.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash
	ClassName string    `json:"className"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"-"`
}

var (
	// ErrDuplicateEmail means the email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound means no such user.
	ErrNotFound = errors.New("user not found")
)

// Store persists users.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UpdateClassName(ctx context.Context, userID, className string) (User, error)
	Teachers(ctx context.Context) ([]User, error)
}

// Service handles registration and login.
type Service struct {
	store Store
}

// NewService creates a service backed by a user store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates a user with a hashed password. An unknown or empty role
// falls back to teacher. Returns ErrDuplicateEmail when the email is taken.
func (s *Service) Register(ctx context.Context, email, password, role string) (User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:       uuid.NewString(),
		Email:    email,
		Password: hash,
		Role:     auth.NormalizeRole(role),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login checks credentials and returns the matching user. Unknown email and
// wrong password both come back as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := auth.CheckPassword(u.Password, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// UpdateClassName sets the caller's class label.
func (s *Service) UpdateClassName(ctx context.Context, userID, className string) (User, error) {
	return s.store.UpdateClassName(ctx, userID, className)
}
