// Package reflection records a signed-in user's free-text answers to
// devotional questions such as "Como viver o Evangelho?".
//
// A [Service] validates submissions and appends them to a [Store]; the
// Redis-backed [RedisStore] keeps one list per user, oldest first.
package reflection
