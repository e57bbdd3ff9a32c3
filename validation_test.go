package evangelho

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateAccountOrder(t *testing.T) {
	now := date(2024, 6, 15)

	tests := []struct {
		name   string
		mutate func(*AccountDraft)
		want   string
	}{
		{name: "valid", mutate: func(*AccountDraft) {}, want: ""},
		{name: "empty name", mutate: func(d *AccountDraft) { d.Name = "" }, want: ReasonNameRequired},
		{name: "empty email", mutate: func(d *AccountDraft) { d.Email = "" }, want: ReasonEmailRequired},
		{name: "mismatch", mutate: func(d *AccountDraft) { d.ConfirmPassword = "x" }, want: ReasonPasswordMismatch},
		{name: "underage", mutate: func(d *AccountDraft) { d.BirthDate = date(2010, 1, 1) }, want: ReasonUnderage},
		{
			name: "name checked before everything",
			mutate: func(d *AccountDraft) {
				*d = AccountDraft{ConfirmPassword: "x", BirthDate: now}
			},
			want: ReasonNameRequired,
		},
		{
			name: "email checked before passwords",
			mutate: func(d *AccountDraft) {
				d.Email = ""
				d.ConfirmPassword = "x"
			},
			want: ReasonEmailRequired,
		},
		{
			name: "passwords checked before age",
			mutate: func(d *AccountDraft) {
				d.ConfirmPassword = "x"
				d.BirthDate = now
			},
			want: ReasonPasswordMismatch,
		},
		{
			name:   "empty passwords match",
			mutate: func(d *AccountDraft) { d.Password, d.ConfirmPassword = "", "" },
			want:   "",
		},
		{
			name:   "no email format check",
			mutate: func(d *AccountDraft) { d.Email = "not an email" },
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := adultDraft()
			tt.mutate(&draft)
			if got := ValidateAccount(draft, now).Reason(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAgeInYears(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{"birthday today", date(2006, 6, 15), date(2024, 6, 15), 18},
		{"day before birthday", date(2006, 6, 16), date(2024, 6, 15), 17},
		{"later month", date(2006, 7, 1), date(2024, 6, 15), 17},
		{"earlier month", date(2006, 5, 30), date(2024, 6, 15), 18},
		{"leap day before march", date(2004, 2, 29), date(2022, 2, 28), 17},
		{"leap day on march first", date(2004, 2, 29), date(2022, 3, 1), 18},
		{"leap day in leap year", date(2004, 2, 29), date(2024, 2, 29), 20},
		{"future birth", date(2030, 1, 1), date(2024, 1, 1), 0},
		{"time of day ignored", date(2006, 6, 15).Add(23 * time.Hour), date(2024, 6, 15), 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeInYears(tt.birth, tt.now); got != tt.want {
				t.Fatalf("AgeInYears = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAgeInYearsUsesBirthLocation(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	birth := time.Date(2006, 6, 15, 0, 0, 0, 0, saoPaulo)

	// 01:00 UTC on the 15th is still the 14th in São Paulo.
	now := time.Date(2024, 6, 15, 1, 0, 0, 0, time.UTC)
	if got := AgeInYears(birth, now); got != 17 {
		t.Fatalf("expected 17 in birth location, got %d", got)
	}
}

func TestValidatorCustomMinimumAge(t *testing.T) {
	v := AccountFormValidator{MinimumAge: 21, Now: func() time.Time { return date(2024, 6, 15) }}

	draft := adultDraft()
	draft.BirthDate = date(2004, 1, 1)
	res := v.Validate(draft)
	if res.OK() || res.Reason() != "must be at least 21 years old" {
		t.Fatalf("unexpected result %v", res)
	}

	var verr *ValidationError
	if !errors.As(res.Err(), &verr) || verr.Reason != res.Reason() {
		t.Fatalf("expected *ValidationError, got %v", res.Err())
	}
}

func TestValidationResult(t *testing.T) {
	var zero ValidationResult
	if !zero.OK() || zero != Valid || zero.Err() != nil || zero.String() != "valid" {
		t.Fatalf("zero value must be Valid, got %v", zero)
	}
	bad := Invalid(ReasonEmailRequired)
	if bad.OK() || bad.String() != "invalid: email required" {
		t.Fatalf("unexpected invalid result %v", bad)
	}
}

func TestNewAccountFormValidatorDefaults(t *testing.T) {
	v := NewAccountFormValidator()
	if v.MinimumAge != DefaultMinimumAge || v.Now == nil {
		t.Fatalf("unexpected defaults %+v", v)
	}
	if res := v.Validate(adultDraft()); !res.OK() {
		t.Fatalf("expected adult draft to validate, got %v", res)
	}
}
