package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/storage"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// RegisterInput carries the fields a new account is created from.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Service implements registration, login and session recovery.
type Service struct {
	store       storage.UserStore
	hasher      PasswordHasher
	tokens      *TokenManager
	defaultRole string
	now         func() time.Time
	newID       func() string

	dummyOnce sync.Once
	dummyHash string
}

// NewService wires the service. defaultRole is assigned to self-registered users.
func NewService(store storage.UserStore, hasher PasswordHasher, tokens *TokenManager, defaultRole string) *Service {
	if !models.IsValidRole(defaultRole) {
		defaultRole = models.RoleLeader
	}
	return &Service{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		defaultRole: defaultRole,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Register creates a user. It never issues a session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	email := storage.NormalizeEmail(in.Email)

	if in.Name == "" || email == "" || in.Password == "" || in.Phone == "" {
		return models.User{}, validationError("name, email, password and phone are required")
	}
	if !validEmail(email) {
		return models.User{}, validationError("email address is invalid")
	}
	if len(in.Password) < MinPasswordLength {
		return models.User{}, validationError("password must be at least 6 characters")
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return models.User{}, emailTaken(email)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, storeUnavailable("find user by email", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) || errors.Is(err, ErrEmptyPassword) {
			return models.User{}, validationError(err.Error())
		}
		return models.User{}, oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	created, err := s.store.CreateUser(ctx, models.User{
		ID:           s.newID(),
		Name:         in.Name,
		Email:        email,
		Phone:        in.Phone,
		Role:         s.defaultRole,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, emailTaken(email)
		}
		return models.User{}, storeUnavailable("create user", err)
	}
	return created.Sanitized(), nil
}

// Login verifies credentials and returns the user plus a signed session token.
// Unknown email and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = storage.NormalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, "", validationError("email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return models.User{}, "", storeUnavailable("find user by email", err)
		}
		// Burn a comparable amount of time so response latency does not reveal
		// whether the account exists.
		_, _ = s.hasher.Verify(password, s.dummy())
		return models.User{}, "", invalidCredentials()
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return models.User{}, "", oops.Code(CodeInvalidCreds).
			Public(MsgInvalidCredentials).
			With("email", email).
			Wrapf(err, MsgInvalidCredentials)
	}
	if !ok {
		return models.User{}, "", invalidCredentials()
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return models.User{}, "", oops.Code("AUTH_TOKEN_FAILED").Wrap(err)
	}
	return user.Sanitized(), token, nil
}

// RecoverSession resolves a session token to the live user record.
func (s *Service) RecoverSession(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, noSession(nil)
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, noSession(err)
	}
	user, err := s.store.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, noSession(err)
		}
		return models.User{}, storeUnavailable("find user by email", err)
	}
	return user.Sanitized(), nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}

func emailTaken(email string) error {
	return oops.Code(CodeEmailTaken).
		Public("email already registered").
		With("email", email).
		Errorf("email already registered")
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at == strings.LastIndexByte(email, '@') && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
