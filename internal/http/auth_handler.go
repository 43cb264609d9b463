package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/salon-scheduler/internal/application"
)

const sessionCookieName = "session_token"

type authService interface {
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	RefreshSession(ctx context.Context, token string) (application.Session, error)
	RevokeSession(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, principal application.Principal) (application.User, error)
}

type AuthHandler struct {
	service       authService
	responder     responder
	logger        *slog.Logger
	secureCookies bool
}

// NewAuthHandler builds the login endpoints. secureCookies marks the session
// cookie Secure, which browsers only send over HTTPS.
func NewAuthHandler(service authService, logger *slog.Logger, secureCookies bool) *AuthHandler {
	base := orDefault(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base, secureCookies: secureCookies}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return scopedLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Login checks the credentials and issues the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	w.Header().Set("X-Session-Token", result.Session.Token)

	h.log(r.Context(), "Login", "user_id", result.User.ID).InfoContext(r.Context(), "user authenticated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		User:      toUserDTO(result.User),
		ExpiresAt: formatTimestamp(result.Session.ExpiresAt),
	})
}

// Logout revokes the presented session, if any, and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if token := extractTokenFromRequest(r); token != "" {
		if err := h.service.RevokeSession(r.Context(), token); err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
	}

	clearSessionCookie(w, h.secureCookies)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Refresh extends the current session by a full TTL.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session, err := h.service.RefreshSession(r.Context(), extractTokenFromRequest(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, refreshResponse{ExpiresAt: formatTimestamp(session.ExpiresAt)})
}

// CurrentUser returns the signed in account.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.CurrentUser(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      userDTO `json:"user"`
	ExpiresAt string  `json:"expiresAt"`
}

type refreshResponse struct {
	ExpiresAt string `json:"expiresAt"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("Authorization"); header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && header[:len(prefix)] == prefix {
			return header[len(prefix):]
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
