package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignUp registers an account and signs it in.
func SignUp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		sess, err := d.Auth.SignUp(r.Context(), normalizeEmail(req.Email), req.Password)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		d.Logger.Info("user signed up", logger.String("user_id", sess.UserID))
		setSessionCookie(w, r, d.SessionCookie, sess)
		writeJSON(w, http.StatusCreated, sess)
	}
}

func SignIn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		sess, err := d.Auth.SignIn(r.Context(), normalizeEmail(req.Email), req.Password)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		setSessionCookie(w, r, d.SessionCookie, sess)
		writeJSON(w, http.StatusOK, sess)
	}
}

func SignOut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		d.Workspace.Discard(sess.UserID)
		if err := d.Auth.SignOut(r.Context(), sess); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     d.SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// CurrentSession echoes the session the request carries.
func CurrentSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, name string, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
