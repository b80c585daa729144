package uid

import "github.com/google/uuid"

// UUID generates time-ordered UUIDv7 strings, used for correlation ids and
// token jti claims.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string. V7 can fail only when the random
// source does; a V4 fallback keeps id generation infallible for callers.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
