// Package identity resolves actor names to identity records and verifies
// supplied passwords against stored credential hashes.
//
// Every identity carries exactly one Role drawn from a closed enumeration.
// Role strings read from the backing store that fall outside the enumeration
// are kept verbatim so that policy code can treat them as "any other role".
//
// # Password Hashes
//
// Hashes written by wardgate are bcrypt. Legacy unsalted SHA-256 hex digests
// are still accepted by Verify, compared in constant time, and reported by
// NeedsRehash so the Authenticator can upgrade them on the next successful
// login.
package identity
