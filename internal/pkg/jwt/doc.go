// Package jwt mints and verifies the module's two token kinds. Access and
// refresh tokens share one HS512 signer but are discriminated by the typ
// claim, so one can never be replayed as the other. Context helpers carry
// verified claims from the auth middleware to handlers.
package jwt
