package redisprovider_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/evangelho"
	"github.com/MrEthical07/evangelho/provider/redisprovider"
)

func newController(t *testing.T) (*evangelho.Controller, *redisprovider.Provider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := redisprovider.DefaultConfig()
	cfg.Token.Secret = "integration-secret-123"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	p, err := redisprovider.New(rdb, cfg)
	require.NoError(t, err)

	c, err := evangelho.New().
		WithIdentityProvider(p).
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }).
		Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, p, mr
}

func TestControllerSignUpLoginLogout(t *testing.T) {
	c, p, mr := newController(t)
	ctx := context.Background()

	res := c.SubmitAccount(ctx, evangelho.AccountDraft{
		Name:            "Maria",
		Email:           "maria@example.com",
		Password:        "segredo",
		ConfirmPassword: "segredo",
		BirthDate:       time.Date(1990, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.True(t, res.OK(), res.String())
	c.Wait()

	st := c.State()
	require.True(t, st.Authenticated, "error: %q", st.ErrorMessage)
	assert.Empty(t, st.ErrorMessage)

	profile, err := p.GetProfile(ctx, st.UserID)
	require.NoError(t, err)
	assert.Equal(t, evangelho.Profile{Name: "Maria", Email: "maria@example.com"}, profile)

	c.Logout(ctx)
	c.Wait()
	assert.False(t, c.State().Authenticated)
	assert.Empty(t, c.State().UserID)

	c.Login(ctx, "maria@example.com", "errado")
	c.Wait()
	st = c.State()
	assert.False(t, st.Authenticated)
	assert.Equal(t, "invalid email or password", st.ErrorMessage)

	c.Login(ctx, "maria@example.com", "segredo")
	c.Wait()
	st = c.State()
	assert.True(t, st.Authenticated)
	assert.False(t, st.HasError())
	assert.True(t, mr.Exists("evangelho:email:maria@example.com"))
}

func TestControllerDuplicateEmailSurfacesProviderMessage(t *testing.T) {
	c, _, _ := newController(t)
	ctx := context.Background()

	draft := evangelho.AccountDraft{
		Name:            "Ana",
		Email:           "ana@example.com",
		Password:        "segredo",
		ConfirmPassword: "segredo",
		BirthDate:       time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	c.CreateAccount(ctx, draft)
	c.Wait()
	c.Logout(ctx)
	c.Wait()

	c.CreateAccount(ctx, draft)
	c.Wait()
	st := c.State()
	assert.False(t, st.Authenticated)
	assert.Equal(t, redisprovider.ErrEmailInUse.Error(), st.ErrorMessage)
}
