package hash

import "golang.org/x/crypto/bcrypt"

// Bcrypt hashes passwords with an application-wide pepper appended to the
// plaintext. The pepper lives in configuration, so a leaked database alone
// is not enough to mount an offline attack.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt builds a hasher with the given work factor. An empty pepper is
// allowed but defeats the point outside tests.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	return &Bcrypt{cost: cost, pepper: pepper}
}

// Hash digests the peppered plaintext.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
}

// Verify reports whether plaintext matches the stored hash.
func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}
