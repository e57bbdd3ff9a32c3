package evangelho

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Providers that
// throttle sign-in attempts per IP read it back with [ClientIPFromContext].
// The value survives the controller detaching cancellation from ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the IP set by [WithClientIP], or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
