package auth

import "context"

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// FromContext extracts the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(Session)
	return sess, ok
}
