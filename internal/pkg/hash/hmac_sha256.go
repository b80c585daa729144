package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 produces hex-encoded keyed digests. Because the digest is
// deterministic for a given secret, stores can index by it and look rows up
// without ever holding the plaintext.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 builds a hasher keyed with secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash digests str. The error return exists only to share the Hash interface
// with bcrypt; this implementation cannot fail.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.digest(str), nil
}

// Verify reports whether str digests to hashed, in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), s.digest(str)) == 1
}

func (s *HMACSHA256) digest(str string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(str))
	sum := mac.Sum(nil)

	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)

	return out
}
