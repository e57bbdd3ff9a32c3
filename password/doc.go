// Package password hashes and verifies account passwords with Argon2id.
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports hashes produced with weaker parameters than the
// current configuration so callers can re-hash on the next successful sign-in.
//
// The length policy lives here too: the identity service rejects passwords
// shorter than [Config.MinLength] with [ErrTooShort].
package password
