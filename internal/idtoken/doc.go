// Package idtoken issues and verifies the ID tokens the Redis identity
// provider hands out on sign-in. A token names the user and the server-side
// session it belongs to; the session key in Redis stays authoritative.
package idtoken
