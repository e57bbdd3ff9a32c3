// Package rate throttles repeated sign-in failures with Redis fixed-window
// counters: INCR, then EXPIRE on the first hit of a window.
//
// Keys live under the caller's prefix:
//   - <prefix>:rl:email:<email> counts failures per normalized email
//   - <prefix>:rl:ip:<ip> counts failures per client IP, when enabled
package rate
