package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapSQLRoundTrip(t *testing.T) {
	// Arrange
	m := JSONMap{"ip": "10.0.0.1", "user_agent": "curl/8.0"}

	// Act
	value, err := m.Value()
	require.NoError(t, err)

	var scanned JSONMap
	require.NoError(t, scanned.Scan(value))

	// Assert
	assert.Equal(t, "10.0.0.1", scanned.GetString("ip"))
	assert.Equal(t, "curl/8.0", scanned.GetString("user_agent"))
}

func TestJSONMapScan(t *testing.T) {
	t.Run("NilBecomesEmptyMap", func(t *testing.T) {
		var m JSONMap
		require.NoError(t, m.Scan(nil))
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("String", func(t *testing.T) {
		var m JSONMap
		require.NoError(t, m.Scan(`{"ip":"10.0.0.1"}`))
		assert.Equal(t, "10.0.0.1", m.GetString("ip"))
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		var m JSONMap
		assert.ErrorIs(t, m.Scan(42), ErrScanValueNotBytes)
	})
}

func TestJSONMapGetters(t *testing.T) {
	m := JSONMap{"count": float64(3), "ok": true, "name": "josie"}

	assert.Equal(t, 3, m.GetInt("count"))
	assert.Equal(t, int64(3), m.GetInt64("count"))
	assert.True(t, m.GetBool("ok"))
	assert.Equal(t, "josie", m.GetString("name"))
	assert.Empty(t, m.GetString("missing"))
	assert.False(t, m.Has("missing"))
}
