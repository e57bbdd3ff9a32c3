package redisprovider

import (
	"errors"
	"fmt"
)

// Messages are phrased for end users; the controller shows them verbatim.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many sign-in attempts, try again later")
	ErrInvalidEmail       = errors.New("the email address is badly formatted")
	ErrWeakPassword       = errors.New("password does not meet the length policy")
	ErrEmailInUse         = errors.New("the email address is already in use by another account")
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrNotSignedIn        = errors.New("not signed in")
)

// PasswordLengthError reports the configured limit a password missed. It
// matches ErrWeakPassword with errors.Is.
type PasswordLengthError struct {
	Min, Max int
	TooLong  bool
}

func (e *PasswordLengthError) Error() string {
	if e.TooLong {
		return fmt.Sprintf("password should be at most %d characters", e.Max)
	}
	return fmt.Sprintf("password should be at least %d characters", e.Min)
}

// Is makes errors.Is(err, ErrWeakPassword) hold.
func (e *PasswordLengthError) Is(target error) bool {
	return target == ErrWeakPassword
}
