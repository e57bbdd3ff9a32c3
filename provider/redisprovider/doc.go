// Package redisprovider is an identity service and profile store backed by
// Redis. It implements evangelho.IdentityProvider, evangelho.ProfileStore
// and evangelho.UserDeleter, so one value can be handed to the builder.
//
// # Key layout
//
// All keys share a configurable prefix p:
//
//	p:user:<uid>          hash {email, password_hash, created_at}
//	p:email:<email>       uid, claimed with SETNX so emails stay unique
//	p:profile:<uid>       JSON profile document
//	p:session:<sid>       uid, expires after SessionTTL
//	p:rl:email:<email>    sign-in failure counter
//
// A Provider tracks one signed-in user at a time, like a client SDK: SignIn
// replaces the current session and SignOut ends it.
package redisprovider
