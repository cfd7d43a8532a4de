// Package memory keeps user records in process memory. It backs local
// development and tests; data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store is a mutex-guarded map of users keyed by normalized email.
type Store struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewUserStore returns an empty Store.
func NewUserStore() *Store {
	return &Store{users: make(map[string]models.User)}
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[storage.NormalizeEmail(email)]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindByRole(_ context.Context, role string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, user := range s.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	key := storage.NormalizeEmail(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[key]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.Email = key
	s.users[key] = user
	return user, nil
}

func (s *Store) UpsertUser(_ context.Context, user models.User) error {
	key := storage.NormalizeEmail(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = key
	s.users[key] = user
	return nil
}

// Delete removes a record. It exists for tests that simulate an account
// disappearing after a session was issued.
func (s *Store) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, storage.NormalizeEmail(email))
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}
