// Package hash holds the two secret-digest schemes the module stores:
// peppered bcrypt for passwords, and keyed HMAC-SHA256 for values that must
// be looked up by digest (one-time codes, refresh tokens). Both implement
// the same Hash/Verify pair so stores stay agnostic.
package hash
