package evangelho

import (
	"fmt"
	"time"
)

// Reasons reported by [AccountFormValidator].
const (
	ReasonNameRequired     = "name required"
	ReasonEmailRequired    = "email required"
	ReasonPasswordMismatch = "passwords do not match"
	ReasonUnderage         = "must be at least 18 years old"
)

// DefaultMinimumAge is the youngest age, in whole years, allowed to sign up.
const DefaultMinimumAge = 18

// ValidationResult is either Valid (the zero value) or Invalid with a reason.
type ValidationResult struct {
	reason string
}

// Valid is the successful validation result.
var Valid = ValidationResult{}

// Invalid returns a failed validation result carrying reason.
func Invalid(reason string) ValidationResult {
	return ValidationResult{reason: reason}
}

// OK reports whether the draft passed validation.
func (r ValidationResult) OK() bool {
	return r.reason == ""
}

// Reason is empty for valid results.
func (r ValidationResult) Reason() string {
	return r.reason
}

// Err returns a *ValidationError for invalid results and nil otherwise.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Reason: r.reason}
}

func (r ValidationResult) String() string {
	if r.OK() {
		return "valid"
	}
	return "invalid: " + r.reason
}

// AccountFormValidator checks sign-up drafts. It is pure apart from reading
// the clock, which can be replaced for tests.
type AccountFormValidator struct {
	MinimumAge int
	Now        func() time.Time
}

// NewAccountFormValidator returns a validator using the wall clock and
// [DefaultMinimumAge].
func NewAccountFormValidator() AccountFormValidator {
	return AccountFormValidator{MinimumAge: DefaultMinimumAge, Now: time.Now}
}

// Validate runs the checks in order and returns the first failure.
// No email format or password strength rules are applied.
func (v AccountFormValidator) Validate(draft AccountDraft) ValidationResult {
	if draft.Name == "" {
		return Invalid(ReasonNameRequired)
	}
	if draft.Email == "" {
		return Invalid(ReasonEmailRequired)
	}
	if draft.Password != draft.ConfirmPassword {
		return Invalid(ReasonPasswordMismatch)
	}

	minAge := v.MinimumAge
	if minAge <= 0 {
		minAge = DefaultMinimumAge
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if AgeInYears(draft.BirthDate, now()) < minAge {
		if minAge == DefaultMinimumAge {
			return Invalid(ReasonUnderage)
		}
		return Invalid(fmt.Sprintf("must be at least %d years old", minAge))
	}

	return Valid
}

// ValidateAccount validates draft against now with the default minimum age.
func ValidateAccount(draft AccountDraft, now time.Time) ValidationResult {
	v := AccountFormValidator{
		MinimumAge: DefaultMinimumAge,
		Now:        func() time.Time { return now },
	}
	return v.Validate(draft)
}

// AgeInYears returns the number of whole calendar years between birth and
// now. Dates are compared in birth's location; time of day is ignored. A
// 29 February birthday is reached on 1 March in non-leap years.
func AgeInYears(birth, now time.Time) int {
	now = now.In(birth.Location())

	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
