package evangelho

import (
	"context"
	"time"
)

// SessionState is the authentication state observed by presentation code.
//
// An empty ErrorMessage means no error is being shown. UserID is cleared
// whenever Authenticated becomes false.
type SessionState struct {
	Authenticated bool
	ErrorMessage  string
	UserID        string

	// Version counts applied updates; it lets observers skip duplicates.
	Version uint64
}

// HasError reports whether an error message should be shown.
func (s SessionState) HasError() bool {
	return s.ErrorMessage != ""
}

// AccountDraft holds unsaved sign-up form input.
type AccountDraft struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	BirthDate       time.Time
}

// Profile is the document stored next to the identity record of every user.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IdentityProvider performs email/password authentication and account
// creation. Implementations may be called from any goroutine.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context) error
	CreateUser(ctx context.Context, email, password string) (string, error)
}

// ProfileStore persists profile documents keyed by user identifier.
type ProfileStore interface {
	PutProfile(ctx context.Context, userID string, profile Profile) error
}

// UserDeleter is implemented by providers that can remove a freshly created
// user. The controller uses it to undo an account whose profile write failed.
type UserDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

// DrainMode selects which goroutine applies queued state updates.
type DrainMode int

const (
	// DrainBackground starts a controller-owned goroutine that applies updates.
	DrainBackground DrainMode = iota
	// DrainManual leaves draining to the host via [Controller.Run] or
	// [Controller.DrainPending].
	DrainManual
)

func (m DrainMode) String() string {
	switch m {
	case DrainBackground:
		return "background"
	case DrainManual:
		return "manual"
	default:
		return "unknown"
	}
}
