package mw

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
)

// SessionResolver turns a token into a session.
type SessionResolver interface {
	Resolve(r *http.Request, token string) (auth.Session, error)
}

// ResolverFunc adapts a function to SessionResolver.
type ResolverFunc func(r *http.Request, token string) (auth.Session, error)

func (f ResolverFunc) Resolve(r *http.Request, token string) (auth.Session, error) {
	return f(r, token)
}

// AuthResolver resolves tokens through the auth service.
func AuthResolver(svc *auth.Service) SessionResolver {
	return ResolverFunc(func(r *http.Request, token string) (auth.Session, error) {
		return svc.Resolve(r.Context(), token)
	})
}

// RequireSession resolves the caller's session from an "Authorization:
// Bearer" header or the session cookie and stores it on the request context.
// Requests without one get a 401 asking the client to sign in.
func RequireSession(res SessionResolver, cookie string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := res.Resolve(r, sessionToken(r, cookie))
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					log.Error("failed to resolve session", logger.Error(err))
					writeStatus(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
					return
				}
				writeStatus(w, http.StatusUnauthorized, map[string]string{
					"error": auth.ErrNoSession.Error(),
					"hint":  "sign_in",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

func sessionToken(r *http.Request, cookie string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie == "" {
		return ""
	}
	if c, err := r.Cookie(cookie); err == nil {
		return c.Value
	}
	return ""
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
