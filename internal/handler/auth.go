package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zingerhq/zinger/internal/auth"
	"github.com/zingerhq/zinger/internal/email"
	"github.com/zingerhq/zinger/internal/middleware"
	"github.com/zingerhq/zinger/internal/model"
	"github.com/zingerhq/zinger/internal/store"
)

const maxCodeAttempts = 5

type AuthHandler struct {
	userStore      *store.UserStore
	sessionStore   *store.SessionStore
	magicLinkStore *store.MagicLinkStore
	emailClient    *email.Client
	logger         *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	ss *store.SessionStore,
	mls *store.MagicLinkStore,
	ec *email.Client,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userStore:      us,
		sessionStore:   ss,
		magicLinkStore: mls,
		emailClient:    ec,
		logger:         logger,
	}
}

type requestCodeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RequestCode handles POST /api/auth/request-code. A sign-in code is
// emailed whether or not the address is already registered; the response
// is identical either way to prevent user enumeration.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
		return
	}

	user, err := h.userStore.GetByEmail(emailAddr)
	if err != nil {
		h.logger.Error("request code lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if user == nil {
		if _, err := h.userStore.Create(emailAddr, strings.TrimSpace(req.Name)); err != nil {
			h.logger.Error("create user", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
	}

	ml, err := h.magicLinkStore.Create(emailAddr, "login")
	if err != nil {
		h.logger.Error("create sign-in code", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if err := h.emailClient.SendSignInCode(r.Context(), emailAddr, ml.Token); err != nil {
		h.logger.Error("send sign-in code", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "check your email for a sign-in code"})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify handles POST /api/auth/verify. On success it sets the session
// cookie and returns the signed-in user.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.Code)

	ml, errMsg := h.validateCode(emailAddr, code)
	if errMsg != "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": errMsg})
		return
	}

	user, err := h.userStore.GetByEmail(ml.Email)
	if err != nil || user == nil {
		h.logger.Error("verify user lookup", "error", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "user not found"})
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, user)
}

// validateCode checks the code for the given email, handling attempts and
// expiry. Returns the magic link on success, or an error message on failure.
func (h *AuthHandler) validateCode(emailAddr, code string) (*model.MagicLink, string) {
	if emailAddr == "" || code == "" {
		return nil, "email and code are required"
	}

	latest, err := h.magicLinkStore.GetLatestByEmail(emailAddr)
	if err != nil {
		h.logger.Error("validate code lookup", "error", err)
		return nil, "internal error"
	}
	if latest == nil {
		return nil, "code has expired or already been used, request a new one"
	}

	if latest.Attempts >= maxCodeAttempts {
		h.magicLinkStore.MarkUsed(latest.ID)
		return nil, "too many incorrect attempts, request a new code"
	}

	if latest.Token != code {
		newAttempts, err := h.magicLinkStore.IncrementAttempts(latest.ID)
		if err != nil {
			h.logger.Error("increment attempts", "error", err)
		}
		if newAttempts >= maxCodeAttempts {
			h.magicLinkStore.MarkUsed(latest.ID)
			return nil, "too many incorrect attempts, request a new code"
		}
		return nil, "incorrect code"
	}

	if err := h.magicLinkStore.MarkUsed(latest.ID); err != nil {
		h.logger.Error("mark code used", "error", err)
		return nil, "internal error"
	}

	return latest, ""
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get current user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}
