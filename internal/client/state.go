package client

import (
	"context"
	"sync"

	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/models/dto"
)

// Destinations the state navigates to.
const (
	LoginPath   = "/login"
	DefaultPath = "/"
)

var roleDestinations = map[string]string{
	models.RoleAdmin:   "/admin",
	models.RoleOwner:   "/owner",
	models.RoleChecker: "/checker",
	models.RoleLeader:  "/leader",
}

// DestinationFor maps a role to its landing path.
func DestinationFor(role string) string {
	if dest, ok := roleDestinations[role]; ok {
		return dest
	}
	return DefaultPath
}

// AuthAPI is the server surface State depends on.
type AuthAPI interface {
	Register(ctx context.Context, req dto.RegisterRequest) error
	Login(ctx context.Context, email, password string) (models.User, error)
	Me(ctx context.Context) (models.User, error)
	Logout(ctx context.Context) error
}

// Navigator receives redirects decided by State.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// State caches the signed-in user for the lifetime of a client session.
type State struct {
	api AuthAPI
	nav Navigator

	mu   sync.RWMutex
	user *models.User
}

// NewState returns an empty state. nav may be nil.
func NewState(api AuthAPI, nav Navigator) *State {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &State{api: api, nav: nav}
}

// Init recovers an existing server session. Any failure leaves the state
// signed out without reporting an error.
func (s *State) Init(ctx context.Context) {
	user, err := s.api.Me(ctx)
	if err != nil {
		return
	}
	s.set(&user)
}

// Login signs in and navigates to the role's landing page. On failure the
// current user is left untouched and the error is returned for display.
func (s *State) Login(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	s.set(&user)
	s.nav.Navigate(DestinationFor(user.Role))
	return user, nil
}

// Register creates an account and sends the user to the login page. It does
// not sign in.
func (s *State) Register(ctx context.Context, req dto.RegisterRequest) error {
	if err := s.api.Register(ctx, req); err != nil {
		return err
	}
	s.nav.Navigate(LoginPath)
	return nil
}

// Logout clears local state even when the server call fails; the server
// error, if any, is returned.
func (s *State) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.set(nil)
	s.nav.Navigate(LoginPath)
	return err
}

// CurrentUser returns the cached user, or false when signed out.
func (s *State) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *State) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

// Role returns the cached user's role, or "" when signed out.
func (s *State) Role() string {
	u, _ := s.CurrentUser()
	return u.Role
}

func (s *State) set(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}
