package evangelho

import (
	"context"
)

// CreateAccount creates an identity for draft.Email, then writes the
// {name, email} profile under the new user's id. The draft is not
// validated; call [Controller.SubmitAccount] to validate first.
//
// Failure at either step sets ErrorMessage and leaves Authenticated
// unchanged. If the profile write fails and the provider implements
// [UserDeleter], the new identity is removed again when
// RollbackOnProfileFailure is set. With SignInOnCreate the new user is
// signed in after both steps succeed.
func (c *Controller) CreateAccount(ctx context.Context, draft AccountDraft) {
	seq := c.seq.Add(1)
	base := detach(ctx)
	c.goOp("create_account", func() {
		c.createAccount(base, seq, draft)
	})
}

// SubmitAccount validates draft and, if it passes, starts CreateAccount.
// The validation result is returned synchronously.
func (c *Controller) SubmitAccount(ctx context.Context, draft AccountDraft) ValidationResult {
	res := c.validator.Validate(draft)
	if !res.OK() {
		return res
	}
	c.CreateAccount(ctx, draft)
	return res
}

func (c *Controller) createAccount(ctx context.Context, seq uint64, draft AccountDraft) {
	var userID string
	err := c.callProvider(ctx, func(ctx context.Context) error {
		var err error
		userID, err = c.provider.CreateUser(ctx, draft.Email, draft.Password)
		return err
	})
	if err != nil {
		c.metricInc(MetricAccountCreationFailure)
		c.emitAudit(ctx, AuditAccountCreationFailed, false, "", draft.Email, err, nil)
		c.commitError("create_account", providerMessage("create user", err))
		return
	}

	profile := Profile{Name: draft.Name, Email: draft.Email}
	err = c.callProvider(ctx, func(ctx context.Context) error {
		return c.profiles.PutProfile(ctx, userID, profile)
	})
	if err != nil {
		c.metricInc(MetricProfileWriteFailure)
		c.metricInc(MetricAccountCreationFailure)
		c.emitAudit(ctx, AuditProfileWriteFailed, false, userID, draft.Email, err, nil)
		c.rollbackUser(ctx, userID)
		c.commitError("create_account", providerMessage("write profile", err))
		return
	}

	c.metricInc(MetricAccountCreationSuccess)
	c.emitAudit(ctx, AuditAccountCreated, true, userID, draft.Email, nil, nil)

	if !c.config.Account.SignInOnCreate {
		c.commitError("create_account", "")
		return
	}

	var signedIn string
	err = c.callProvider(ctx, func(ctx context.Context) error {
		var err error
		signedIn, err = c.provider.SignIn(ctx, draft.Email, draft.Password)
		return err
	})
	if err != nil {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, AuditLoginFailure, false, userID, draft.Email, err, nil)
		c.commitError("create_account", providerMessage("sign in", err))
		return
	}

	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, AuditLoginSuccess, true, signedIn, draft.Email, nil, nil)
	c.commit(stateUpdate{
		op:     "create_account",
		seq:    seq,
		userID: signedIn,
		mutate: func(s *SessionState) {
			s.Authenticated = true
			s.ErrorMessage = ""
			s.UserID = signedIn
		},
	})
}

// commitError replaces ErrorMessage without touching Authenticated. An empty
// msg clears the message.
func (c *Controller) commitError(op, msg string) {
	c.commit(stateUpdate{
		op: op,
		mutate: func(s *SessionState) {
			s.ErrorMessage = msg
		},
	})
}

func (c *Controller) rollbackUser(ctx context.Context, userID string) {
	if !c.config.Account.RollbackOnProfileFailure {
		return
	}
	deleter, ok := c.provider.(UserDeleter)
	if !ok {
		c.logger.WarnContext(ctx, "profile write failed; provider cannot delete users", "user_id", userID)
		return
	}

	err := c.callProvider(ctx, func(ctx context.Context) error {
		return deleter.DeleteUser(ctx, userID)
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "rollback of orphaned user failed", "user_id", userID, "error", err)
		return
	}
	c.metricInc(MetricAccountRolledBack)
	c.emitAudit(ctx, AuditAccountRolledBack, true, userID, "", nil, nil)
}
