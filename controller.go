package evangelho

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Controller is the single source of truth for whether a user is signed in.
//
// Login, Logout and CreateAccount never block: each starts the provider call
// on its own goroutine and returns. The outcome is submitted to the update
// queue and becomes visible through State and Subscribe once the drain
// context applies it.
type Controller struct {
	config    Config
	provider  IdentityProvider
	profiles  ProfileStore
	validator AccountFormValidator
	logger    *slog.Logger
	audit     *auditDispatcher
	metrics   *Metrics
	queue     *updateQueue

	state atomic.Pointer[SessionState]

	// seq orders authentication outcomes by invocation. appliedSeq is only
	// touched on the drain context.
	seq        atomic.Uint64
	appliedSeq uint64

	inflight sync.WaitGroup

	subMu   sync.Mutex
	subs    map[uint64]func(SessionState)
	nextSub uint64

	// notifying is set while subscribers run on the drain context.
	notifying atomic.Bool

	closed    atomic.Bool
	closeOnce sync.Once
}

// stateUpdate is one queued mutation. A non-zero seq marks an authentication
// outcome, which is dropped if a later one has already been applied.
type stateUpdate struct {
	op     string
	seq    uint64
	userID string
	mutate func(*SessionState)
}

// State returns the most recently applied state. Safe from any goroutine.
func (c *Controller) State() SessionState {
	return *c.state.Load()
}

// Validator returns the validator configured for this controller.
func (c *Controller) Validator() AccountFormValidator {
	return c.validator
}

// Subscribe registers fn to be called on the drain context after every
// applied update. The returned function removes the subscription.
//
// fn may call State, Login, Logout and Close. It must not call Wait: the
// operation being applied is still in flight while fn runs.
func (c *Controller) Subscribe(fn func(SessionState)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// Login signs in with email and password. Empty credentials are rejected
// locally without contacting the provider; the rejection sets ErrorMessage
// and leaves Authenticated unchanged.
func (c *Controller) Login(ctx context.Context, email, password string) {
	if email == "" || password == "" {
		c.metricInc(MetricLoginRejected)
		c.emitAudit(ctx, AuditLoginRejected, false, "", email, ErrEmptyCredentials, nil)
		c.goOp("login", func() {
			c.commit(stateUpdate{
				op: "login",
				mutate: func(s *SessionState) {
					s.ErrorMessage = ErrEmptyCredentials.Error()
				},
			})
		})
		return
	}

	seq := c.seq.Add(1)
	base := detach(ctx)
	c.goOp("login", func() {
		var userID string
		err := c.callProvider(base, func(ctx context.Context) error {
			var err error
			userID, err = c.provider.SignIn(ctx, email, password)
			return err
		})
		if err != nil {
			msg := providerMessage("sign in", err)
			c.metricInc(MetricLoginFailure)
			c.emitAudit(base, AuditLoginFailure, false, "", email, err, nil)
			c.commit(stateUpdate{
				op:  "login",
				seq: seq,
				mutate: func(s *SessionState) {
					s.Authenticated = false
					s.ErrorMessage = msg
				},
			})
			return
		}

		c.metricInc(MetricLoginSuccess)
		c.emitAudit(base, AuditLoginSuccess, true, userID, email, nil, nil)
		c.commit(stateUpdate{
			op:     "login",
			seq:    seq,
			userID: userID,
			mutate: func(s *SessionState) {
				s.Authenticated = true
				s.ErrorMessage = ""
				s.UserID = userID
			},
		})
	})
}

// Logout signs out. Provider errors are logged and otherwise ignored;
// Authenticated always ends up false.
func (c *Controller) Logout(ctx context.Context) {
	seq := c.seq.Add(1)
	base := detach(ctx)
	userID := c.State().UserID
	c.goOp("logout", func() {
		err := c.callProvider(base, c.provider.SignOut)
		if err != nil {
			c.metricInc(MetricLogoutProviderError)
			c.logger.WarnContext(base, "sign out failed; clearing session anyway", "error", err, "user_id", userID)
			c.emitAudit(base, AuditLogoutProviderError, false, userID, "", err, nil)
		}

		c.metricInc(MetricLogout)
		c.emitAudit(base, AuditLogout, true, userID, "", nil, nil)
		c.commit(stateUpdate{
			op:  "logout",
			seq: seq,
			mutate: func(s *SessionState) {
				s.Authenticated = false
			},
		})
	})
}

// Wait blocks until every operation invoked so far has been applied or
// discarded. In DrainManual mode another goroutine must be draining.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Run drains the update queue on the calling goroutine until ctx ends or the
// controller closes. Only valid in DrainManual mode.
func (c *Controller) Run(ctx context.Context) error {
	if c.config.Session.DrainMode != DrainManual {
		return ErrManualDrainRequired
	}
	return c.queue.run(ctx)
}

// DrainPending applies the updates queued right now and returns how many
// were applied. It suits hosts with their own frame loop. It returns 0 in
// DrainBackground mode or while Run is active.
func (c *Controller) DrainPending() int {
	if c.config.Session.DrainMode != DrainManual {
		return 0
	}
	if !c.queue.draining.CompareAndSwap(false, true) {
		return 0
	}
	defer c.queue.draining.Store(false)
	return c.queue.drainPending()
}

// Close stops the drain goroutine and the audit dispatcher. Operations
// still in flight finish their provider calls but their outcome is dropped.
// Called from a subscriber, Close returns without waiting for the drain
// goroutine, which exits once the subscriber returns.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.notifying.Load() {
			c.queue.shut()
		} else {
			c.queue.close()
		}
		if c.audit != nil {
			c.audit.Close()
		}
	})
}

func (c *Controller) goOp(op string, fn func()) {
	if c.closed.Load() {
		c.logger.Warn("operation ignored on closed controller", "op", op)
		return
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		fn()
	}()
}

// commit submits u and waits until it is applied or the queue closes.
func (c *Controller) commit(u stateUpdate) {
	applied := make(chan struct{})
	err := c.queue.submit(func() {
		defer close(applied)
		c.apply(u)
	})
	if err != nil {
		c.logger.Warn("session update discarded", "op", u.op, "error", err)
		return
	}
	select {
	case <-applied:
	case <-c.queue.done:
	}
}

// apply runs on the drain context only.
func (c *Controller) apply(u stateUpdate) {
	if u.seq != 0 {
		if u.seq < c.appliedSeq {
			c.metricInc(MetricStaleCompletionDropped)
			c.logger.Info("dropping stale session outcome", "op", u.op, "seq", u.seq, "applied_seq", c.appliedSeq)
			c.emitAudit(context.Background(), AuditStaleCompletion, false, u.userID, "", nil, func() map[string]string {
				return map[string]string{"op": u.op}
			})
			return
		}
		c.appliedSeq = u.seq
	}

	next := *c.state.Load()
	u.mutate(&next)
	if !next.Authenticated {
		next.UserID = ""
	}
	next.Version++
	c.state.Store(&next)
	c.metricInc(MetricStateUpdateApplied)

	c.subMu.Lock()
	subs := make([]func(SessionState), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()
	c.notifying.Store(true)
	defer c.notifying.Store(false)
	for _, fn := range subs {
		fn(next)
	}
}

func (c *Controller) callProvider(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Provider.CallTimeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	c.metrics.Observe(MetricProviderLatency, time.Since(start))
	return err
}

// detach keeps ctx values (client IP, trace data) but drops cancellation:
// an invoked operation cannot be aborted by its caller.
func detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
