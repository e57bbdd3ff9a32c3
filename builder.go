package evangelho

import (
	"log/slog"
	"time"
)

// Builder assembles a [Controller]. A Builder can be used once.
type Builder struct {
	config Config

	provider  IdentityProvider
	profiles  ProfileStore
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. It is validated by Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithIdentityProvider sets the identity service. If the provider also
// implements [ProfileStore] it is used for profiles unless WithProfileStore
// overrides it.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithProfileStore sets where account profiles are written.
func (b *Builder) WithProfileStore(s ProfileStore) *Builder {
	b.profiles = s
	return b
}

// WithAuditSink sets the audit destination. Audit must also be enabled in
// the config for events to be dispatched.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger. The default is [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces the wall clock used by the account form validator.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and starts the controller. In
// [DrainBackground] mode the drain goroutine is running when Build returns.
func (b *Builder) Build() (*Controller, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, ErrIdentityProviderRequired
	}

	profiles := b.profiles
	if profiles == nil {
		ps, ok := b.provider.(ProfileStore)
		if !ok {
			return nil, ErrProfileStoreRequired
		}
		profiles = ps
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	c := &Controller{
		config:   cfg,
		provider: b.provider,
		profiles: profiles,
		validator: AccountFormValidator{
			MinimumAge: cfg.Account.MinimumAge,
			Now:        now,
		},
		logger:  logger,
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		queue:   newUpdateQueue(cfg.Session.QueueBuffer),
		subs:    make(map[uint64]func(SessionState)),
	}
	c.state.Store(&SessionState{})

	if cfg.Session.DrainMode == DrainBackground {
		c.queue.start()
	}

	b.built = true
	return c, nil
}
