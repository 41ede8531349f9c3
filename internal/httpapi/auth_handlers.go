package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskhive.org/internal/access"
	"taskhive.org/internal/audit"
	"taskhive.org/internal/ids"
	"taskhive.org/internal/obs"
	"taskhive.org/internal/session"
	"taskhive.org/internal/task"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func tokenResponseFrom(pair session.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(pair.AccessTTL / time.Second),
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := a.users.FindUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			// Same answer as a wrong password, no account probing.
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{"email": email})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if u.Status != task.UserStatusActive {
		writeError(w, r, http.StatusUnauthorized, "account is disabled")
		return
	}

	caller := access.Caller{ID: u.ID, Role: u.Role, Department: u.Department}
	pair, err := a.issuer.Issue(r.Context(), caller)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session could not be created")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login.succeeded", map[string]any{
		"user_id": u.ID,
		"role":    string(u.Role),
	})
	writeJSON(w, http.StatusOK, tokenResponseFrom(pair))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, caller, err := a.issuer.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInactivityTimeout):
			obs.ObserveRefresh("inactive")
			_ = audit.LogEvent(r.Context(), "auth.refresh.inactive", nil)
			writeError(w, r, http.StatusUnauthorized, "session expired due to inactivity")
		case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrNotFound):
			obs.ObserveRefresh("invalid")
			_ = audit.LogEvent(r.Context(), "auth.refresh.rejected", nil)
			writeError(w, r, http.StatusUnauthorized, "invalid refresh token")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	obs.ObserveRefresh("rotated")
	_ = audit.LogEvent(r.Context(), "auth.refresh.rotated", map[string]any{
		"user_id": caller.ID,
	})
	writeJSON(w, http.StatusOK, tokenResponseFrom(pair))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	caller, ok := access.CallerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := a.issuer.Revoke(r.Context(), caller.ID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "logout failed")
		return
	}
	if sid, ok := access.SessionIDFromContext(r.Context()); ok && a.clock != nil {
		a.clock.Forget(sid)
	}

	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{"user_id": caller.ID})
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

type createUserRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

type userResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status"`
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	role, ok := access.ParseRole(req.Role)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "role must be one of owner, admin, viewer")
		return
	}
	department := strings.TrimSpace(req.Department)
	if role == access.RoleAdmin && department == "" {
		writeError(w, r, http.StatusBadRequest, "admin users require a department")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	u := &task.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Department:   department,
		Status:       task.UserStatusActive,
	}
	if err := a.users.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, task.ErrInvalidInput) {
			writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "user.created", map[string]any{
		"user_id": u.ID,
		"role":    string(u.Role),
	})
	writeJSON(w, http.StatusCreated, userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Role:       string(u.Role),
		Department: u.Department,
		Status:     u.Status,
	})
}
