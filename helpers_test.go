package evangelho

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

var errProviderDown = errors.New("network error")

// fakeProvider is an in-memory IdentityProvider, ProfileStore and UserDeleter.
type fakeProvider struct {
	mu sync.Mutex

	users    map[string]string // email -> password
	ids      map[string]string // email -> uid
	profiles map[string]Profile
	deleted  []string
	nextID   int

	signIn     func(ctx context.Context, email, password string) (string, error)
	signOutErr error
	createErr  error
	putErr     error
	deleteErr  error

	signInCalls int
	putCalls    int
	lastCtx     context.Context
	lastCtxErr  error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		users:    map[string]string{},
		ids:      map[string]string{},
		profiles: map[string]Profile{},
	}
}

func (f *fakeProvider) addUser(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	uid := fmt.Sprintf("uid-%d", f.nextID)
	f.users[email] = password
	f.ids[email] = uid
	return uid
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	f.signInCalls++
	f.lastCtx = ctx
	f.lastCtxErr = ctx.Err()
	hook := f.signIn
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, email, password)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.users[email]; !ok || pw != password {
		return "", errors.New("invalid email or password")
	}
	return f.ids[email], nil
}

func (f *fakeProvider) SignOut(context.Context) error {
	return f.signOutErr
}

func (f *fakeProvider) CreateUser(_ context.Context, email, password string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	_, exists := f.users[email]
	f.mu.Unlock()
	if exists {
		return "", errors.New("email already in use")
	}
	return f.addUser(email, password), nil
}

func (f *fakeProvider) PutProfile(_ context.Context, uid string, p Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.profiles[uid] = p
	return nil
}

func (f *fakeProvider) DeleteUser(_ context.Context, uid string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	for email, id := range f.ids {
		if id == uid {
			delete(f.ids, email)
			delete(f.users, email)
		}
	}
	return nil
}

func (f *fakeProvider) counts() (signIn, put int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInCalls, f.putCalls
}

// identityOnly hides the ProfileStore and UserDeleter methods of a provider.
type identityOnly struct {
	p IdentityProvider
}

func (i identityOnly) SignIn(ctx context.Context, email, password string) (string, error) {
	return i.p.SignIn(ctx, email, password)
}
func (i identityOnly) SignOut(ctx context.Context) error { return i.p.SignOut(ctx) }
func (i identityOnly) CreateUser(ctx context.Context, email, password string) (string, error) {
	return i.p.CreateUser(ctx, email, password)
}

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildTestController(t *testing.T, cfg Config, p IdentityProvider, sink AuditSink) *Controller {
	t.Helper()
	c, err := New().
		WithConfig(cfg).
		WithIdentityProvider(p).
		WithAuditSink(sink).
		WithLogger(quietLogger()).
		WithClock(func() time.Time { return testNow }).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func adultDraft() AccountDraft {
	return AccountDraft{
		Name:            "Maria",
		Email:           "maria@example.com",
		Password:        "segredo",
		ConfirmPassword: "segredo",
		BirthDate:       time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC),
	}
}
