package redisprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/evangelho"
	"github.com/MrEthical07/evangelho/internal/idtoken"
	"github.com/MrEthical07/evangelho/internal/rate"
	"github.com/MrEthical07/evangelho/password"
)

var (
	_ evangelho.IdentityProvider = (*Provider)(nil)
	_ evangelho.ProfileStore     = (*Provider)(nil)
	_ evangelho.UserDeleter      = (*Provider)(nil)
)

// Provider is safe for concurrent use.
type Provider struct {
	redis   redis.UniversalClient
	cfg     Config
	hasher  *password.Hasher
	tokens  *idtoken.Manager
	limiter *rate.Limiter
	now     func() time.Time

	mu      sync.Mutex
	current *session
}

type session struct {
	userID    string
	sessionID string
	token     string
}

// New validates cfg and returns a Provider using client.
func New(client redis.UniversalClient, cfg Config) (*Provider, error) {
	if client == nil {
		return nil, errors.New("redisprovider: redis client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("redisprovider: %w", err)
	}
	tokens, err := idtoken.NewManager(idtoken.Config{
		Method: idtoken.MethodHS256,
		Secret: []byte(cfg.Token.Secret),
		Issuer: cfg.Token.Issuer,
		TTL:    cfg.Token.TTL,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("redisprovider: %w", err)
	}

	return &Provider{
		redis:  client,
		cfg:    cfg,
		hasher: hasher,
		tokens: tokens,
		limiter: rate.New(client, cfg.Prefix, rate.Config{
			MaxAttempts:      cfg.Throttle.MaxAttempts,
			Window:           cfg.Throttle.Window,
			EnableIPThrottle: cfg.Throttle.EnableIPThrottle,
		}),
		now: time.Now,
	}, nil
}

// SignIn verifies email and password and makes the user current. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (p *Provider) SignIn(ctx context.Context, email, pw string) (string, error) {
	email = normalizeEmail(email)
	ip := evangelho.ClientIPFromContext(ctx)

	if err := p.limiter.Check(ctx, email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return "", ErrTooManyAttempts
		}
		return "", fmt.Errorf("redisprovider: throttle: %w", err)
	}

	uid, hash, err := p.lookupCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", p.failSignIn(ctx, email, ip)
		}
		return "", err
	}

	ok, err := p.hasher.Verify(pw, hash)
	if err != nil {
		return "", fmt.Errorf("redisprovider: verify password: %w", err)
	}
	if !ok {
		return "", p.failSignIn(ctx, email, ip)
	}

	if err := p.limiter.Reset(ctx, email, ip); err != nil {
		return "", fmt.Errorf("redisprovider: throttle reset: %w", err)
	}
	p.upgradeHash(ctx, uid, pw, hash)

	sid := uuid.NewString()
	if err := p.redis.Set(ctx, p.sessionKey(sid), uid, p.cfg.SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("redisprovider: store session: %w", err)
	}
	token, err := p.tokens.Issue(uid, sid)
	if err != nil {
		_ = p.redis.Del(ctx, p.sessionKey(sid)).Err()
		return "", fmt.Errorf("redisprovider: issue token: %w", err)
	}

	p.mu.Lock()
	prev := p.current
	p.current = &session{userID: uid, sessionID: sid, token: token}
	p.mu.Unlock()

	if prev != nil {
		_ = p.redis.Del(ctx, p.sessionKey(prev.sessionID)).Err()
	}
	return uid, nil
}

// SignOut ends the current session. It is a no-op when nobody is signed in.
// The local session is forgotten even if Redis cannot be reached.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	cur := p.current
	p.current = nil
	p.mu.Unlock()

	if cur == nil {
		return nil
	}
	if err := p.redis.Del(ctx, p.sessionKey(cur.sessionID)).Err(); err != nil {
		return fmt.Errorf("redisprovider: delete session: %w", err)
	}
	return nil
}

// CreateUser registers email with a hashed password and returns the new
// user's id. It does not sign the user in.
func (p *Provider) CreateUser(ctx context.Context, email, pw string) (string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return "", ErrInvalidEmail
	}

	hash, err := p.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) || errors.Is(err, password.ErrTooLong) {
			return "", &PasswordLengthError{
				Min:     p.cfg.Password.MinLength,
				Max:     p.cfg.Password.MaxLength,
				TooLong: errors.Is(err, password.ErrTooLong),
			}
		}
		return "", fmt.Errorf("redisprovider: hash password: %w", err)
	}

	uid := uuid.NewString()
	claimed, err := p.redis.SetNX(ctx, p.emailKey(email), uid, 0).Result()
	if err != nil {
		return "", fmt.Errorf("redisprovider: claim email: %w", err)
	}
	if !claimed {
		return "", ErrEmailInUse
	}

	err = p.redis.HSet(ctx, p.userKey(uid),
		"email", email,
		"password_hash", hash,
		"created_at", p.now().UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		_ = p.redis.Del(ctx, p.emailKey(email)).Err()
		return "", fmt.Errorf("redisprovider: store user: %w", err)
	}
	return uid, nil
}

// DeleteUser removes the user, the email claim and the profile. If the user
// is signed in, the session ends too.
func (p *Provider) DeleteUser(ctx context.Context, uid string) error {
	email, err := p.redis.HGet(ctx, p.userKey(uid), "email").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrUserNotFound
		}
		return fmt.Errorf("redisprovider: load user: %w", err)
	}

	_, err = p.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.userKey(uid), p.emailKey(email), p.profileKey(uid))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisprovider: delete user: %w", err)
	}

	p.mu.Lock()
	cur := p.current
	if cur != nil && cur.userID == uid {
		p.current = nil
	} else {
		cur = nil
	}
	p.mu.Unlock()

	if cur != nil {
		_ = p.redis.Del(ctx, p.sessionKey(cur.sessionID)).Err()
	}
	return nil
}

// PutProfile stores profile under uid, replacing any previous document.
func (p *Provider) PutProfile(ctx context.Context, uid string, profile evangelho.Profile) error {
	n, err := p.redis.Exists(ctx, p.userKey(uid)).Result()
	if err != nil {
		return fmt.Errorf("redisprovider: check user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("redisprovider: encode profile: %w", err)
	}
	if err := p.redis.Set(ctx, p.profileKey(uid), data, 0).Err(); err != nil {
		return fmt.Errorf("redisprovider: store profile: %w", err)
	}
	return nil
}

// GetProfile loads the profile stored for uid. It returns ErrProfileNotFound
// if none was written.
func (p *Provider) GetProfile(ctx context.Context, uid string) (evangelho.Profile, error) {
	var profile evangelho.Profile

	data, err := p.redis.Get(ctx, p.profileKey(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return profile, ErrProfileNotFound
		}
		return profile, fmt.Errorf("redisprovider: load profile: %w", err)
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("redisprovider: decode profile: %w", err)
	}
	return profile, nil
}

// CurrentUser returns the signed-in user's id. It fails with ErrNotSignedIn
// when there is no session, the ID token no longer verifies, or the session
// key has expired in Redis.
func (p *Provider) CurrentUser(ctx context.Context) (string, error) {
	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur == nil {
		return "", ErrNotSignedIn
	}

	claims, err := p.tokens.Parse(cur.token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotSignedIn, err)
	}

	uid, err := p.redis.Get(ctx, p.sessionKey(claims.SID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotSignedIn
		}
		return "", fmt.Errorf("redisprovider: load session: %w", err)
	}
	if uid != claims.UID {
		return "", ErrNotSignedIn
	}
	return uid, nil
}

// IDToken returns the current user's signed token, or "" when signed out.
func (p *Provider) IDToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ""
	}
	return p.current.token
}

func (p *Provider) lookupCredentials(ctx context.Context, email string) (uid, hash string, err error) {
	uid, err = p.redis.Get(ctx, p.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", ErrUserNotFound
		}
		return "", "", fmt.Errorf("redisprovider: lookup email: %w", err)
	}

	hash, err = p.redis.HGet(ctx, p.userKey(uid), "password_hash").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", ErrUserNotFound
		}
		return "", "", fmt.Errorf("redisprovider: load user: %w", err)
	}
	return uid, hash, nil
}

func (p *Provider) failSignIn(ctx context.Context, email, ip string) error {
	if err := p.limiter.Increment(ctx, email, ip); err != nil {
		return fmt.Errorf("redisprovider: throttle: %w", err)
	}
	return ErrInvalidCredentials
}

// upgradeHash re-hashes pw when the stored hash used weaker parameters.
// Failures leave the old hash in place.
func (p *Provider) upgradeHash(ctx context.Context, uid, pw, hash string) {
	stale, err := p.hasher.NeedsRehash(hash)
	if err != nil || !stale {
		return
	}
	fresh, err := p.hasher.Hash(pw)
	if err != nil {
		return
	}
	_ = p.redis.HSet(ctx, p.userKey(uid), "password_hash", fresh).Err()
}

func validEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	return ok && local != "" && domain != "" && !strings.ContainsAny(email, " \t\r\n")
}
