package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app:
  maintenance:
    endpoints: "POST /api/v1/auth/signup,POST /api/v1/auth/login"
modules:
  auth:
    enabled: true
    otp:
      expire_minute: 5
    jwt:
      refresh_token_day: 30
    ratelimit:
      login:
        limit: 10
labels: "region:ap-southeast-1,tier:free"
`

func newTestViper(t *testing.T) *Viper {
	t.Helper()

	v, err := NewViperFromBytes("yaml", []byte(testYAML))
	require.NoError(t, err)
	return v
}

func TestNewViperFromBytes(t *testing.T) {
	t.Run("RejectsEmptyType", func(t *testing.T) {
		_, err := NewViperFromBytes("", []byte("a: 1"))
		assert.Error(t, err)
	})

	t.Run("RejectsMalformedContent", func(t *testing.T) {
		_, err := NewViperFromBytes("yaml", []byte(":\n  -"))
		assert.Error(t, err)
	})
}

func TestViperGetters(t *testing.T) {
	v := newTestViper(t)

	t.Run("Durations", func(t *testing.T) {
		assert.Equal(t, 5*time.Minute, v.GetMinute("modules.auth.otp.expire_minute"))
		assert.Equal(t, 30*24*time.Hour, v.GetDay("modules.auth.jwt.refresh_token_day"))
		assert.Equal(t, time.Duration(0), v.GetMinute("missing.key"))
	})

	t.Run("Scalars", func(t *testing.T) {
		assert.True(t, v.GetBool("modules.auth.enabled"))
		assert.Equal(t, int64(10), v.GetInt64("modules.auth.ratelimit.login.limit"))
		assert.Equal(t, 0, v.GetInt("missing.key"))
	})

	t.Run("Array", func(t *testing.T) {
		assert.Equal(t,
			[]string{"POST /api/v1/auth/signup", "POST /api/v1/auth/login"},
			v.GetArray("app.maintenance.endpoints"),
		)
	})

	t.Run("Map", func(t *testing.T) {
		assert.Equal(t,
			map[string]string{"region": "ap-southeast-1", "tier": "free"},
			v.GetMap("labels"),
		)
	})
}
