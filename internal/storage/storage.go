package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/hongminglow/sbc-auth/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations needed by the auth service.
// Records are keyed by email.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByRole(ctx context.Context, role string) ([]models.User, error)
	// CreateUser inserts the user only if no record holds its email.
	// Implementations must return ErrAlreadyExists when the key is taken,
	// and must decide that atomically.
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UpsertUser(ctx context.Context, user models.User) error
	Ping(ctx context.Context) error
	Close()
}

// NormalizeEmail returns the canonical key form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
