package redisprovider

import (
	"errors"
	"time"

	"github.com/MrEthical07/evangelho/password"
)

// Config configures a [Provider].
type Config struct {
	Prefix     string        `env:"PREFIX"`
	SessionTTL time.Duration `env:"SESSION_TTL"`

	Password password.Config `envPrefix:"PASSWORD_"`
	Token    TokenConfig     `envPrefix:"TOKEN_"`
	Throttle ThrottleConfig  `envPrefix:"THROTTLE_"`
}

// TokenConfig controls the ID token issued on sign-in. Only HS256 is
// exposed here; the signing secret must be at least 16 bytes.
type TokenConfig struct {
	Secret string        `env:"SECRET"`
	Issuer string        `env:"ISSUER"`
	TTL    time.Duration `env:"TTL"`
	Leeway time.Duration `env:"LEEWAY"`
}

// ThrottleConfig limits failed sign-ins. MaxAttempts of 0 disables it.
type ThrottleConfig struct {
	MaxAttempts      int           `env:"MAX_ATTEMPTS"`
	Window           time.Duration `env:"WINDOW"`
	EnableIPThrottle bool          `env:"IP"`
}

// DefaultConfig returns a config with every field set except Token.Secret.
func DefaultConfig() Config {
	return Config{
		Prefix:     "evangelho",
		SessionTTL: 30 * 24 * time.Hour,
		Password:   password.DefaultConfig(),
		Token: TokenConfig{
			Issuer: "evangelho",
			TTL:    time.Hour,
		},
		Throttle: ThrottleConfig{
			MaxAttempts:      5,
			Window:           15 * time.Minute,
			EnableIPThrottle: true,
		},
	}
}

// Validate reports the first invalid setting. Password and token settings
// are checked again by their own packages in New.
func (c Config) Validate() error {
	if c.Prefix == "" {
		return errors.New("redisprovider: prefix is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("redisprovider: session ttl must be > 0")
	}
	if len(c.Token.Secret) == 0 {
		return errors.New("redisprovider: token secret is required")
	}
	if c.Throttle.MaxAttempts < 0 {
		return errors.New("redisprovider: throttle max attempts must be >= 0")
	}
	if c.Throttle.MaxAttempts > 0 && c.Throttle.Window <= 0 {
		return errors.New("redisprovider: throttle window must be > 0")
	}
	return c.Password.Validate()
}
