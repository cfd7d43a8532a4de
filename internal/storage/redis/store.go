// Package redis stores each user as a JSON document under the key
// "user::<email>".
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

const keyPrefix = "user::"

// document is the stored shape. Unlike models.User it keeps the hash.
type document struct {
	Type         string    `json:"type"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toDocument(u models.User) document {
	return document{
		Type:         "user",
		ID:           u.ID,
		Name:         u.Name,
		Email:        storage.NormalizeEmail(u.Email),
		Phone:        u.Phone,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (d document) user() models.User {
	return models.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		Role:         d.Role,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

// Key returns the document key for an email.
func Key(email string) string {
	return keyPrefix + storage.NormalizeEmail(email)
}

// Store is a redis-backed user document store.
type Store struct {
	client redis.UniversalClient
}

// NewUserStore wraps an existing client.
func NewUserStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	data, err := s.client.Get(ctx, Key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user from redis: %w", err)
	}
	return decode(data)
}

// FindByRole scans every user document and keeps those holding role.
func (s *Store) FindByRole(ctx context.Context, role string) ([]models.User, error) {
	var out []models.User
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("get user from redis: %w", err)
		}
		user, err := decode(data)
		if err != nil {
			return nil, err
		}
		if user.Role == role {
			out = append(out, user)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// CreateUser writes the document with SETNX so only one writer can claim an email.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	doc := toDocument(user)
	data, err := json.Marshal(doc)
	if err != nil {
		return models.User{}, fmt.Errorf("marshal user: %w", err)
	}
	ok, err := s.client.SetNX(ctx, Key(doc.Email), data, 0).Result()
	if err != nil {
		return models.User{}, fmt.Errorf("insert user into redis: %w", err)
	}
	if !ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	return doc.user(), nil
}

func (s *Store) UpsertUser(ctx context.Context, user models.User) error {
	doc := toDocument(user)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.client.Set(ctx, Key(doc.Email), data, 0).Err(); err != nil {
		return fmt.Errorf("upsert user into redis: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() {
	_ = s.client.Close()
}

func decode(data []byte) (models.User, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.User{}, fmt.Errorf("unmarshal user from redis: %w", err)
	}
	return doc.user(), nil
}
