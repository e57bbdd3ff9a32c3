package internaldefs

import (
	"github.com/MrEthical07/evangelho"
)

// CounterDef maps a controller counter to its exported name.
type CounterDef struct {
	ID   evangelho.MetricID
	Name string
	Help string
}

// HistogramDef maps a controller histogram to its exported name.
type HistogramDef struct {
	ID   evangelho.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: evangelho.MetricLoginSuccess, Name: "evangelho_login_success_total", Help: "Sign-ins accepted by the identity provider."},
	{ID: evangelho.MetricLoginFailure, Name: "evangelho_login_failure_total", Help: "Sign-ins rejected by the identity provider."},
	{ID: evangelho.MetricLoginRejected, Name: "evangelho_login_rejected_total", Help: "Sign-ins refused locally for empty credentials."},
	{ID: evangelho.MetricLogout, Name: "evangelho_logout_total", Help: "Sign-outs."},
	{ID: evangelho.MetricLogoutProviderError, Name: "evangelho_logout_provider_error_total", Help: "Sign-outs whose provider call failed."},
	{ID: evangelho.MetricAccountCreationSuccess, Name: "evangelho_account_creation_success_total", Help: "Accounts created with a profile."},
	{ID: evangelho.MetricAccountCreationFailure, Name: "evangelho_account_creation_failure_total", Help: "Account creations that failed at either step."},
	{ID: evangelho.MetricProfileWriteFailure, Name: "evangelho_profile_write_failure_total", Help: "Profile writes that failed after the user was created."},
	{ID: evangelho.MetricAccountRolledBack, Name: "evangelho_account_rolled_back_total", Help: "Users deleted after their profile write failed."},
	{ID: evangelho.MetricStaleCompletionDropped, Name: "evangelho_stale_completion_dropped_total", Help: "Authentication outcomes superseded by a later operation."},
	{ID: evangelho.MetricStateUpdateApplied, Name: "evangelho_state_update_applied_total", Help: "Session state updates applied by the drain context."},
}

var HistogramDefs = []HistogramDef{
	{ID: evangelho.MetricProviderLatency, Name: "evangelho_provider_latency_seconds", Help: "Identity and profile provider call latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "evangelho_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// BucketUpperBounds are the finite bucket bounds in seconds; the eighth
// bucket is +Inf.
var BucketUpperBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, n := range raw {
		running += n
		out[i] = running
	}
	return out
}
