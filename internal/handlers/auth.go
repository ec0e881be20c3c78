package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/swiftcourier/trackingserver/internal/services"
	"github.com/swiftcourier/trackingserver/internal/session"
)

const (
	msgCredentialsRequired = "Username and password required"
	msgInvalidCredentials  = "Invalid credentials"
	msgAdminRequired       = "Admin authentication required"
)

// AuthHandler provides the admin session endpoints.
type AuthHandler struct {
	userService *services.UserService
	sessions    *session.Manager
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{userService: userService, sessions: sessions}
}

// AuthRouter registers login, logout and session routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, sessions *session.Manager) {
	handler := NewAuthHandler(userService, sessions)

	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Get("/session", handler.Session)
}

// RequireAdmin rejects requests whose context carries no admin session.
// session.Manager.Load must run earlier in the chain.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.IsAdmin(r.Context()) {
			writeError(w, http.StatusUnauthorized, msgAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login verifies credentials and starts an admin session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(r)
	if err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgCredentialsRequired)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		writeInternalError(w, r, err, "admin login failed")
		return
	}

	if _, err := h.sessions.Establish(r.Context(), w, user); err != nil {
		writeInternalError(w, r, err, "failed to establish session")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    SessionUser{ID: user.ID, Username: user.Username},
	})
}

// Logout destroys the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// Session reports whether the caller holds an admin session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if session.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusOK, SessionResponse{IsAdmin: true})
		return
	}
	writeJSON(w, http.StatusUnauthorized, SessionResponse{IsAdmin: false})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type LoginResponse struct {
	Message string      `json:"message"`
	User    SessionUser `json:"user"`
}

type SessionResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

func decodeLogin(r *http.Request) (LoginRequest, error) {
	var req LoginRequest
	switch mediaType(r) {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := parseForm(r); err != nil {
			return LoginRequest{}, err
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		return req, nil
	default:
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
}
