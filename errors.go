package evangelho

import "errors"

var (
	// ErrEmptyCredentials is reported when Login is called without an email or password.
	ErrEmptyCredentials = errors.New("email and password are required")
	// ErrControllerClosed is returned by queue operations after Close.
	ErrControllerClosed = errors.New("session controller closed")
	// ErrIdentityProviderRequired is returned by Build without an identity provider.
	ErrIdentityProviderRequired = errors.New("identity provider required")
	// ErrProfileStoreRequired is returned by Build when no profile store is available.
	ErrProfileStoreRequired = errors.New("profile store required")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrManualDrainRequired is returned by Run when the controller drains in the background.
	ErrManualDrainRequired = errors.New("controller is not in manual drain mode")
)

// ValidationError is a user-correctable problem with an [AccountDraft].
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ProviderError wraps a failure reported by the identity or profile service.
// Error returns the provider's own message so it can be shown verbatim.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerMessage(op string, err error) string {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		pe = &ProviderError{Op: op, Err: err}
	}
	return pe.Error()
}
