// Package evangelho provides the session core of the Evangelho do Dia app: a
// [Controller] that owns the "is someone signed in" state and mediates login,
// logout and account creation against a remote identity provider, and an
// [AccountFormValidator] for the sign-up form.
//
// The controller never blocks its caller. Login, Logout and CreateAccount
// return immediately; their outcome is delivered as a [SessionState] change.
// Every state change is submitted to a single-consumer update queue and
// applied on the context that drains it, which is the context presentation
// code observes from.
//
// # Architecture boundaries
//
// evangelho is the public surface. It exposes [Controller], [Builder], [Config]
// and value types (SessionState, AccountDraft, Profile). The identity service is
// an opaque collaborator behind [IdentityProvider] and [ProfileStore]; the
// Redis-backed implementation lives in provider/redisprovider.
//
// # What this package must NOT do
//
//   - Surface provider failures as returned errors or panics. They become
//     SessionState.ErrorMessage.
//   - Write SessionState from any goroutine other than the update queue's
//     drain context.
//   - Import provider/redisprovider or any other concrete backend.
package evangelho
