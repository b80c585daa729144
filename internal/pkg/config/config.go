// Package config reads runtime settings. Lookups are by dotted key and never
// fail: a missing or malformed value yields the type's zero value, so callers
// pick defaults at the call site.
package config

import (
	"io"
	"time"
)

// Config is the read surface handed to components. Close releases whatever
// the backing source holds (file watchers, remote sessions).
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat32(key string) float32
	GetFloat64(key string) float64

	// The duration getters read a bare integer and scale it, so config files
	// say `expire_minute: 5` instead of Go duration syntax.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration

	// GetBinary decodes a base64 string value, for keys holding raw secrets.
	GetBinary(key string) []byte

	// GetArray splits a comma-separated string value.
	GetArray(key string) []string

	// GetMap parses a "k1:v1,k2:v2" string value.
	GetMap(key string) map[string]string
}
