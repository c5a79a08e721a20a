package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	redisstore "github.com/MrSnakeDoc/bookmarkhub/internal/store/redis"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(redisstore.NewStore(client), time.Hour, bcrypt.MinCost), mr
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess, err := svc.SignUp(ctx, "ann@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.NotEmpty(t, sess.UserID)

	_, err = svc.SignUp(ctx, "ANN@example.com", "whatever1")
	require.ErrorIs(t, err, ErrEmailTaken)

	again, err := svc.SignIn(ctx, "ann@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, sess.UserID, again.UserID)
	require.NotEqual(t, sess.Token, again.Token)

	_, err = svc.SignIn(ctx, "ann@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveAndSignOut(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestService(t)

	_, err := svc.Resolve(ctx, "")
	require.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Resolve(ctx, "unknown")
	require.ErrorIs(t, err, ErrNoSession)

	sess, err := svc.SignUp(ctx, "bob@example.com", "password1")
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", got.Email)

	require.NoError(t, svc.SignOut(ctx, got))
	_, err = svc.Resolve(ctx, sess.Token)
	require.ErrorIs(t, err, ErrNoSession)
	require.NoError(t, svc.SignOut(ctx, got))

	expiring, err := svc.SignIn(ctx, "bob@example.com", "password1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)
	_, err = svc.Resolve(ctx, expiring.Token)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Errorf("FromContext() ok = %v, want %v", ok, false)
	}

	want := Session{Token: "t", UserID: "u"}
	got, ok := FromContext(WithSession(context.Background(), want))
	if !ok || got != want {
		t.Errorf("FromContext() = %v, %v, want %v, true", got, ok, want)
	}
}
