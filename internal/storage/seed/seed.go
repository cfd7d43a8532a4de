// Package seed provisions predefined accounts (admins, owners, checkers)
// from a YAML file at start-up.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hongminglow/sbc-auth/internal/auth"
	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/storage"
)

// Account is one predefined user as written in the seed file.
type Account struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

type file struct {
	Users []Account `yaml:"users"`
}

// Load parses a seed file.
func Load(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) ([]Account, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	seen := make(map[string]bool, len(f.Users))
	for i, a := range f.Users {
		email := storage.NormalizeEmail(a.Email)
		switch {
		case email == "" || strings.TrimSpace(a.Name) == "" || a.Password == "":
			return nil, fmt.Errorf("seed user %d: name, email and password are required", i)
		case !models.IsValidRole(a.Role):
			return nil, fmt.Errorf("seed user %s: unknown role %q", email, a.Role)
		case seen[email]:
			return nil, fmt.Errorf("seed user %s: duplicate email", email)
		}
		seen[email] = true
	}
	return f.Users, nil
}

// Apply hashes each account's password and upserts it into store.
func Apply(ctx context.Context, store storage.UserStore, hasher auth.PasswordHasher, accounts []Account) error {
	now := time.Now().UTC()
	for _, a := range accounts {
		hash, err := hasher.Hash(a.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.Email, err)
		}
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		user := models.User{
			ID:           id,
			Name:         strings.TrimSpace(a.Name),
			Email:        storage.NormalizeEmail(a.Email),
			Phone:        strings.TrimSpace(a.Phone),
			Role:         a.Role,
			PasswordHash: hash,
			CreatedAt:    now,
		}
		if err := store.UpsertUser(ctx, user); err != nil {
			return fmt.Errorf("upsert %s: %w", user.Email, err)
		}
	}
	return nil
}
