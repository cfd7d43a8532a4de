// Package client talks to the auth API and mirrors the server session into
// local state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hongminglow/sbc-auth/internal/http/respond"
	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/models/dto"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// API is an HTTP client for the auth endpoints. Its cookie jar holds the
// session cookie, so every call carries credentials.
type API struct {
	base       *url.URL
	http       *http.Client
	cookieName string
}

// NewAPI returns a client for the server at baseURL.
func NewAPI(baseURL, cookieName string) (*API, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if cookieName == "" {
		cookieName = "authToken"
	}
	return &API{
		base:       base,
		http:       &http.Client{Jar: jar, Timeout: 15 * time.Second},
		cookieName: cookieName,
	}, nil
}

// SessionToken returns the session cookie value currently held, if any.
func (a *API) SessionToken() string {
	for _, c := range a.http.Jar.Cookies(a.base) {
		if c.Name == a.cookieName {
			return c.Value
		}
	}
	return ""
}

// SetSessionToken installs a previously saved session cookie value.
func (a *API) SetSessionToken(token string) {
	if token == "" {
		return
	}
	a.http.Jar.SetCookies(a.base, []*http.Cookie{{Name: a.cookieName, Value: token, Path: "/"}})
}

func (a *API) Register(ctx context.Context, req dto.RegisterRequest) error {
	return a.do(ctx, http.MethodPost, "/api/register", req, nil)
}

func (a *API) Login(ctx context.Context, email, password string) (models.User, error) {
	var user models.User
	err := a.do(ctx, http.MethodPost, "/api/login", dto.LoginRequest{Email: email, Password: password}, &user)
	return user, err
}

func (a *API) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := a.do(ctx, http.MethodGet, "/api/me", nil, &user)
	return user, err
}

func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env respond.Envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Message != "" {
			apiErr.Message = env.Message
		}
		return apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
