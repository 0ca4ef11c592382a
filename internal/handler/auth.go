package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/bookshelf/bookshelf-go/internal/middleware"
	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service  *service.AuthService
	tokenTTL time.Duration
	secure   bool
}

// NewAuthHandler creates a new AuthHandler. secure marks the session cookie
// as HTTPS-only.
func NewAuthHandler(svc *service.AuthService, tokenTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{service: svc, tokenTTL: tokenTTL, secure: secure}
}

// HandleRegister handles POST /api/auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setSession(w, resp.Token)
	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setSession(w, resp.Token)
	writeJSON(w, http.StatusOK, resp)
}

// HandleLogout handles POST /api/auth/logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, messageResponse("Logged out"))
}

// HandleMe handles GET /api/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorResponse("Invalid or expired token"))
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.UserResponse{"user": user})
}

func (h *AuthHandler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		Expires:  time.Now().Add(h.tokenTTL),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
