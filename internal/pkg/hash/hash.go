package hash

// Hash is the digest-and-check pair both schemes implement. Verify takes the
// stored representation as a string because that is how digests come back
// from the database.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
