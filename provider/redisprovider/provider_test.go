package redisprovider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/evangelho"
	"github.com/MrEthical07/evangelho/password"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Prefix = "t"
	cfg.Token.Secret = "test-secret-0123456789"
	cfg.Throttle.MaxAttempts = 3
	cfg.Throttle.Window = time.Minute
	cfg.Password = password.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestProvider(t *testing.T) (*Provider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	p, err := New(rdb, testConfig())
	require.NoError(t, err)
	return p, mr
}

func TestCreateUserAndSignIn(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	uid, err := p.CreateUser(ctx, " Maria@Example.com ", "segredo")
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	got, err := mr.Get("t:email:maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, uid, got)
	assert.Equal(t, "maria@example.com", mr.HGet("t:user:"+uid, "email"))

	signedIn, err := p.SignIn(ctx, "maria@example.com", "segredo")
	require.NoError(t, err)
	assert.Equal(t, uid, signedIn)
	assert.NotEmpty(t, p.IDToken())

	current, err := p.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, uid, current)
}

func TestCreateUserRejections(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.CreateUser(ctx, "not-an-email", "segredo")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = p.CreateUser(ctx, "a@b.c", "12345")
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.EqualError(t, err, "password should be at least 6 characters")

	_, err = p.CreateUser(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	_, err = p.CreateUser(ctx, "A@B.C", "abcdef")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestWeakPasswordMessageFollowsPolicy(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig()
	cfg.Password.MinLength = 10
	cfg.Password.MaxLength = 12
	p, err := New(rdb, cfg)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.CreateUser(ctx, "curto@example.com", "segredo")
	require.ErrorIs(t, err, ErrWeakPassword)
	assert.EqualError(t, err, "password should be at least 10 characters")

	_, err = p.CreateUser(ctx, "longo@example.com", "segredo-longo-demais")
	require.ErrorIs(t, err, ErrWeakPassword)
	assert.EqualError(t, err, "password should be at most 12 characters")

	var lenErr *PasswordLengthError
	require.ErrorAs(t, err, &lenErr)
	assert.True(t, lenErr.TooLong)
	assert.False(t, mr.Exists("t:email:longo@example.com"))
}

func TestSignInWrongPasswordAndUnknownUser(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.CreateUser(ctx, "joao@example.com", "segredo")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "joao@example.com", "errado")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "invalid email or password", err.Error())

	_, err = p.SignIn(ctx, "ninguem@example.com", "segredo")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSignInThrottle(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := evangelho.WithClientIP(context.Background(), "192.0.2.1")

	_, err := p.CreateUser(ctx, "lucas@example.com", "segredo")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = p.SignIn(ctx, "lucas@example.com", "errado")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = p.SignIn(ctx, "lucas@example.com", "segredo")
	assert.ErrorIs(t, err, ErrTooManyAttempts)
	assert.True(t, mr.Exists("t:rl:ip:192.0.2.1"))

	mr.FastForward(2 * time.Minute)
	_, err = p.SignIn(ctx, "lucas@example.com", "segredo")
	assert.NoError(t, err)
	assert.False(t, mr.Exists("t:rl:email:lucas@example.com"))
}

func TestSignOut(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SignOut(ctx), "sign out without session is a no-op")

	_, err := p.CreateUser(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)
	_, err = p.SignIn(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 3) // user, email, session

	require.NoError(t, p.SignOut(ctx))
	assert.Empty(t, p.IDToken())
	_, err = p.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Len(t, mr.Keys(), 2)
}

func TestSignOutRedisFailureStillForgetsSession(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	_, err := p.CreateUser(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)
	_, err = p.SignIn(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)

	mr.SetError("ERR simulated outage")
	err = p.SignOut(ctx)
	assert.Error(t, err)
	mr.SetError("")

	assert.Empty(t, p.IDToken())
}

func TestSessionExpiry(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	_, err := p.CreateUser(ctx, "pedro@example.com", "segredo")
	require.NoError(t, err)
	_, err = p.SignIn(ctx, "pedro@example.com", "segredo")
	require.NoError(t, err)

	mr.FastForward(31 * 24 * time.Hour)
	_, err = p.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSecondSignInReplacesSession(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	_, err := p.CreateUser(ctx, "a@example.com", "segredo")
	require.NoError(t, err)
	_, err = p.SignIn(ctx, "a@example.com", "segredo")
	require.NoError(t, err)
	_, err = p.SignIn(ctx, "a@example.com", "segredo")
	require.NoError(t, err)

	sessions := 0
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "t:session:") {
			sessions++
		}
	}
	assert.Equal(t, 1, sessions)
}

func TestProfileRoundTrip(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.GetProfile(ctx, "nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	err = p.PutProfile(ctx, "nobody", evangelho.Profile{Name: "X"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	uid, err := p.CreateUser(ctx, "marta@example.com", "segredo")
	require.NoError(t, err)

	want := evangelho.Profile{Name: "Marta", Email: "marta@example.com"}
	require.NoError(t, p.PutProfile(ctx, uid, want))

	got, err := p.GetProfile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDeleteUser(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	assert.ErrorIs(t, p.DeleteUser(ctx, "missing"), ErrUserNotFound)

	uid, err := p.CreateUser(ctx, "tiago@example.com", "segredo")
	require.NoError(t, err)
	require.NoError(t, p.PutProfile(ctx, uid, evangelho.Profile{Name: "Tiago", Email: "tiago@example.com"}))
	_, err = p.SignIn(ctx, "tiago@example.com", "segredo")
	require.NoError(t, err)

	require.NoError(t, p.DeleteUser(ctx, uid))
	assert.Empty(t, mr.Keys())
	assert.Empty(t, p.IDToken())

	// The email can be registered again.
	_, err = p.CreateUser(ctx, "tiago@example.com", "segredo")
	assert.NoError(t, err)
}

func TestNewValidatesConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig()
	cfg.Token.Secret = ""
	_, err := New(rdb, cfg)
	assert.Error(t, err)

	_, err = New(nil, testConfig())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Token.Secret = "short"
	_, err = New(rdb, cfg)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}
