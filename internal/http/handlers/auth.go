package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/hongminglow/sbc-auth/internal/auth"
	"github.com/hongminglow/sbc-auth/internal/http/respond"
	"github.com/hongminglow/sbc-auth/internal/models/dto"
	"github.com/hongminglow/sbc-auth/internal/observability"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// AuthHandler owns the register/login/me/logout endpoints.
type AuthHandler struct {
	service *auth.Service
	cookie  CookieConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAuthHandler constructs the handler. metrics may be nil.
func NewAuthHandler(service *auth.Service, cookie CookieConfig, logger *slog.Logger, metrics *observability.Metrics) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "authToken"
	}
	return &AuthHandler{service: service, cookie: cookie, logger: logger, metrics: metrics}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", h.handleRegister)
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/me", h.handleMe)
	mux.HandleFunc("/api/logout", h.handleLogout)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}

	h.metrics.RecordAuth("register", "success")
	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "role", user.Role)
	respond.JSON(w, http.StatusCreated, dto.RegisterResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.cookie.TTL.Seconds())))
	h.metrics.RecordAuth("login", "success")
	respond.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var token string
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		token = c.Value
	}

	user, err := h.service.RecoverSession(r.Context(), token)
	if err != nil {
		h.fail(w, r, "me", err)
		return
	}
	h.metrics.RecordAuth("me", "success")
	respond.JSON(w, http.StatusOK, user)
}

// handleLogout clears the cookie whether or not a session exists.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	http.SetCookie(w, h.sessionCookie("", -1))
	h.metrics.RecordAuth("logout", "success")
	respond.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.Expires = time.Unix(0, 0)
	}
	return c
}

// fail maps a service error onto a status code and a message safe for clients.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, outcome := http.StatusInternalServerError, "error"
	switch {
	case auth.HasCode(err, auth.CodeValidation):
		status, outcome = http.StatusBadRequest, "invalid"
	case auth.HasCode(err, auth.CodeEmailTaken):
		status, outcome = http.StatusConflict, "conflict"
	case auth.HasCode(err, auth.CodeInvalidCreds), auth.HasCode(err, auth.CodeNoSession):
		status, outcome = http.StatusUnauthorized, "unauthorized"
	}
	h.metrics.RecordAuth(operation, outcome)

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), operation+" failed", "error", err)
		respond.Error(w, status, "internal server error")
		return
	}
	h.logger.InfoContext(r.Context(), operation+" rejected", "status", status, "error", err.Error())
	respond.Error(w, status, oops.GetPublic(err, http.StatusText(status)))
}
