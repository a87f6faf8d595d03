package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyHashLen is the length of a hex-encoded SHA-256 digest.
const legacyHashLen = sha256.Size * 2

// HashPassword returns a bcrypt hash of plain at the given cost. A cost of
// zero selects bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// LegacyHash returns the unsalted SHA-256 hex digest used by records
// provisioned before bcrypt was adopted.
func LegacyHash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether supplied matches the identity's stored hash.
func Verify(id *Identity, supplied string) bool {
	if id == nil {
		return false
	}
	return VerifyHash(id.PasswordHash, supplied)
}

// VerifyHash reports whether supplied matches hash. Legacy SHA-256 digests
// are compared in constant time.
func VerifyHash(hash, supplied string) bool {
	if hash == "" {
		return false
	}
	if isLegacy(hash) {
		want := []byte(strings.ToLower(hash))
		got := []byte(LegacyHash(supplied))
		return subtle.ConstantTimeCompare(want, got) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied)) == nil
}

// NeedsRehash reports whether hash uses the legacy unsalted scheme.
func NeedsRehash(hash string) bool {
	return isLegacy(hash)
}

func isLegacy(hash string) bool {
	if len(hash) != legacyHashLen {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
